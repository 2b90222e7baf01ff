// Package console drives the interactive terminal session. Each loop
// iteration asks the session controller which view is active and dispatches
// commands for that view; views never touch session state directly, they go
// through the controller's transition operations.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/usermgmt/account-console/internal/core/confirm"
	"github.com/usermgmt/account-console/internal/core/domain"
	"github.com/usermgmt/account-console/internal/core/livelist"
	"github.com/usermgmt/account-console/internal/core/ports"
	"github.com/usermgmt/account-console/internal/core/session"
)

var errQuit = errors.New("quit")

// Console is the top-level interactive loop.
type Console struct {
	session *session.Controller
	gw      ports.Gateway
	in      *bufio.Reader
	out     io.Writer
	log     zerolog.Logger
}

// New builds a console reading commands from in and rendering to out.
func New(sess *session.Controller, gw ports.Gateway, in io.Reader, out io.Writer, log zerolog.Logger) *Console {
	return &Console{
		session: sess,
		gw:      gw,
		in:      bufio.NewReader(in),
		out:     out,
		log:     log.With().Str("component", "console").Logger(),
	}
}

// Run dispatches to the active view until the input ends, the user quits,
// or the context is cancelled.
func (c *Console) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		var err error
		switch c.session.ActiveView() {
		case session.ViewAnonymous:
			err = c.anonymous(ctx)
		case session.ViewForcedReset:
			err = c.forcedReset(ctx)
		case session.ViewUser:
			err = c.user(ctx)
		case session.ViewAdmin:
			err = c.admin(ctx)
		}
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return ctx.Err()
}

// anonymous shows the login and registration entry points.
func (c *Console) anonymous(ctx context.Context) error {
	fmt.Fprintln(c.out, "\n== account console ==")
	fmt.Fprintln(c.out, "commands: login, register, quit")

	for c.session.ActiveView() == session.ViewAnonymous {
		cmd, _, err := c.readCommand("> ")
		if err != nil {
			return err
		}
		switch cmd {
		case "login":
			username, password, err := c.promptCredentials()
			if err != nil {
				return err
			}
			if err := c.session.Login(ctx, username, password); err != nil {
				c.notify(err.Error())
				continue
			}
		case "register":
			username, password, err := c.promptCredentials()
			if err != nil {
				return err
			}
			if err := c.gw.Register(ctx, username, password); err != nil {
				c.notify(err.Error())
				continue
			}
			c.notify("user registered, you can log in now")
		case "quit", "exit":
			return errQuit
		case "":
		default:
			c.notify("unknown command: " + cmd)
		}
	}
	return nil
}

// forcedReset is the gated view: password change is the only thing on
// offer, the last-login display stays suppressed.
func (c *Console) forcedReset(ctx context.Context) error {
	fmt.Fprintln(c.out, "\nyou must change your password before continuing")
	fmt.Fprintln(c.out, "commands: passwd, logout, quit")

	for c.session.ActiveView() == session.ViewForcedReset {
		cmd, _, err := c.readCommand("reset> ")
		if err != nil {
			return err
		}
		switch cmd {
		case "passwd":
			if err := c.changePassword(ctx); err != nil {
				return err
			}
		case "logout":
			c.session.Logout(ctx)
		case "quit", "exit":
			return errQuit
		case "":
		default:
			c.notify("change your password first (passwd)")
		}
	}
	return nil
}

// user is the full self-service view.
func (c *Console) user(ctx context.Context) error {
	cred, ok := c.session.Credential()
	if !ok {
		return nil
	}

	fmt.Fprintf(c.out, "\n== user panel (%s) ==\n", cred.Username())
	// Best-effort, like the rest of the panel header: a failed lookup just
	// leaves the line out.
	if last, err := c.gw.LastLogin(ctx, cred.Token()); err == nil {
		if last == nil {
			fmt.Fprintln(c.out, "last login: never")
		} else {
			fmt.Fprintf(c.out, "last login: %s\n", last.Local().Format("2006-01-02 15:04:05"))
		}
	}
	fmt.Fprintln(c.out, "commands: passwd, logout, quit")

	for c.session.ActiveView() == session.ViewUser {
		cmd, _, err := c.readCommand("user> ")
		if err != nil {
			return err
		}
		switch cmd {
		case "passwd":
			if err := c.changePassword(ctx); err != nil {
				return err
			}
		case "logout":
			c.session.Logout(ctx)
		case "quit", "exit":
			return errQuit
		case "":
		default:
			c.notify("unknown command: " + cmd)
		}
	}
	return nil
}

func (c *Console) changePassword(ctx context.Context) error {
	oldPassword, err := c.prompt("current password: ")
	if err != nil {
		return err
	}
	newPassword, err := c.prompt("new password: ")
	if err != nil {
		return err
	}
	if err := c.session.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		c.notify(err.Error())
		return nil
	}
	c.notify("password changed")
	return nil
}

func (c *Console) promptCredentials() (string, string, error) {
	username, err := c.prompt("username: ")
	if err != nil {
		return "", "", err
	}
	password, err := c.prompt("password: ")
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func (c *Console) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) readCommand(prompt string) (string, string, error) {
	line, err := c.prompt(prompt)
	if err != nil {
		return "", "", err
	}
	cmd, arg, _ := strings.Cut(line, " ")
	return strings.ToLower(cmd), strings.TrimSpace(arg), nil
}

// notify is the single notification surface for messages and errors.
func (c *Console) notify(msg string) {
	fmt.Fprintf(c.out, "* %s\n", msg)
}

// selectUser resolves a 1-based list position against the displayed
// collection.
func selectUser(users []domain.UserRecord, arg string) (domain.UserRecord, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(users) {
		return domain.UserRecord{}, fmt.Errorf("pick a user between 1 and %d", len(users))
	}
	return users[n-1], nil
}

func (c *Console) printUsers(users []domain.UserRecord) {
	if len(users) == 0 {
		fmt.Fprintln(c.out, "no users")
		return
	}
	for i, u := range users {
		fmt.Fprintf(c.out, "%3d. %-24s %s\n", i+1, u.Username, u.Role)
	}
}

func (c *Console) printAudit(username string, entries []domain.AuditEntry) {
	fmt.Fprintf(c.out, "audit trail for %s:\n", username)
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "  (no entries)")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(c.out, "  %s  %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.IP)
	}
}

// admin mounts the live list and the confirmation gate for the lifetime of
// the admin view; both are torn down on the way out.
func (c *Console) admin(ctx context.Context) error {
	cred, ok := c.session.Credential()
	if !ok {
		return nil
	}

	actx, cancel := context.WithCancel(ctx)
	defer cancel()

	list := livelist.NewController(c.gw, cred.Token(), c.log)
	list.OnUpdate = func(users []domain.UserRecord) {
		fmt.Fprintf(c.out, "\n[live] user list updated (%d users)\n", len(users))
	}
	defer list.Close()

	gate := confirm.NewGate(func(ctx context.Context, target domain.UserRecord) error {
		return c.gw.DeleteUser(ctx, cred.Token(), target.ID)
	})

	fmt.Fprintf(c.out, "\n== admin panel (%s) ==\n", cred.Username())
	fmt.Fprintln(c.out, "commands: list, refresh, delete <#>, confirm, cancel, reset <#>, audit <username>, logout, quit")

	if err := list.Start(actx); err != nil {
		// The panel stays usable with manual refreshes.
		c.notify(err.Error())
	}

	for c.session.ActiveView() == session.ViewAdmin {
		cmd, arg, err := c.readCommand("admin> ")
		if err != nil {
			return err
		}
		switch cmd {
		case "list":
			c.printUsers(list.Users())
		case "refresh":
			if err := list.Refresh(actx); err != nil {
				c.notify(err.Error())
				continue
			}
			c.printUsers(list.Users())
		case "delete":
			target, err := selectUser(list.Users(), arg)
			if err != nil {
				c.notify(err.Error())
				continue
			}
			gate.Request(target)
			fmt.Fprintf(c.out, "delete user %q? this cannot be undone. type 'confirm' or 'cancel'\n", target.Username)
		case "confirm":
			target, _ := gate.Pending()
			executed, err := gate.Confirm(actx)
			switch {
			case !executed:
				c.notify("nothing to confirm")
			case err != nil:
				c.notify(err.Error())
			default:
				c.notify("user deleted: " + target.Username)
				if err := list.Refresh(actx); err != nil {
					c.notify(err.Error())
				}
			}
		case "cancel":
			gate.Cancel()
		case "reset":
			target, err := selectUser(list.Users(), arg)
			if err != nil {
				c.notify(err.Error())
				continue
			}
			temp, err := c.gw.ResetPassword(actx, cred.Token(), target.ID)
			if err != nil {
				c.notify(err.Error())
				continue
			}
			// Shown exactly once, never kept around.
			c.notify(fmt.Sprintf("temporary password for %s: %s", target.Username, temp))
		case "audit":
			if arg == "" {
				c.notify("usage: audit <username>")
				continue
			}
			entries, err := c.gw.Audit(actx, cred.Token(), arg)
			if err != nil {
				c.notify(err.Error())
				continue
			}
			c.printAudit(arg, entries)
		case "logout":
			c.session.Logout(actx)
		case "quit", "exit":
			return errQuit
		case "":
		default:
			c.notify("unknown command: " + cmd)
		}
	}
	return nil
}
