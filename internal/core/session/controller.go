package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/usermgmt/account-console/internal/core/domain"
	"github.com/usermgmt/account-console/internal/core/ports"
)

// ErrNoSession is returned by operations that need an authenticated session
// when none is held.
var ErrNoSession = errors.New("no active session")

// Controller owns the current credential and the forced-reset flag. It is
// the single mutation surface for session state: views read it through
// ActiveView and Credential and change it only through the transition
// operations below.
type Controller struct {
	gw  ports.Gateway
	log zerolog.Logger

	mu         sync.Mutex
	cred       *domain.Credential
	forceReset bool
}

// NewController returns a Controller in the anonymous state.
func NewController(gw ports.Gateway, log zerolog.Logger) *Controller {
	return &Controller{gw: gw, log: log.With().Str("component", "session").Logger()}
}

// Login authenticates against the backend and, on success, commits the new
// session state atomically. A response token whose role claim cannot be
// decoded counts as a login failure: the previous state is left untouched
// and no privileged role is ever assumed.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	res, err := c.gw.Login(ctx, username, password)
	if err != nil {
		return err
	}

	cred, err := domain.NewCredential(res.Token)
	if err != nil {
		c.log.Warn().Err(err).Msg("login response carried an undecodable token")
		return err
	}

	c.mu.Lock()
	c.cred = &cred
	// The forced-reset gate only ever applies to USER accounts.
	c.forceReset = !cred.IsAdmin() && res.ForcePasswordReset
	c.mu.Unlock()

	c.log.Info().Str("username", cred.Username()).Str("role", cred.Role()).Msg("session established")
	return nil
}

// Logout notifies the server best-effort and clears local state no matter
// what the server said. Local logout is authoritative for the interface: a
// failed server call must never leave the client authenticated.
func (c *Controller) Logout(ctx context.Context) {
	if err := c.gw.Logout(ctx); err != nil {
		c.log.Debug().Err(err).Msg("server logout failed, clearing local session anyway")
	}

	c.mu.Lock()
	c.cred = nil
	c.forceReset = false
	c.mu.Unlock()
}

// ChangePassword delegates to the gateway. Success is the only path that
// clears the forced-reset flag; on failure the flag and the rest of the
// session state are unchanged.
func (c *Controller) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	cred, ok := c.Credential()
	if !ok {
		return ErrNoSession
	}

	if err := c.gw.ChangePassword(ctx, cred.Token(), oldPassword, newPassword); err != nil {
		return err
	}

	c.mu.Lock()
	c.forceReset = false
	c.mu.Unlock()
	return nil
}

// Credential returns the held credential, if any.
func (c *Controller) Credential() (domain.Credential, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cred == nil {
		return domain.Credential{}, false
	}
	return *c.cred, true
}

// Token returns the raw bearer string, or "" when anonymous.
func (c *Controller) Token() string {
	cred, ok := c.Credential()
	if !ok {
		return ""
	}
	return cred.Token()
}

// ActiveView routes the current session state to the view that must be
// shown.
func (c *Controller) ActiveView() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Route(c.cred, c.forceReset)
}
