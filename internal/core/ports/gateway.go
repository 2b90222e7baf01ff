package ports

import (
	"context"
	"time"

	"github.com/usermgmt/account-console/internal/core/domain"
)

// LoginResult carries the bearer token and the server-supplied forced-reset
// flag from a successful login.
type LoginResult struct {
	Token              string
	ForcePasswordReset bool
}

// Gateway is the stateless client for the backend HTTP contract.
// Implementations hold no session state: authenticated calls receive the
// bearer token explicitly from the caller. Authorization failures (401/403)
// are not intercepted here — they surface as ordinary failures for the
// calling controller to display.
type Gateway interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (LoginResult, error)
	Logout(ctx context.Context) error
	LastLogin(ctx context.Context, token string) (*time.Time, error)
	ChangePassword(ctx context.Context, token, oldPassword, newPassword string) error
	ListUsers(ctx context.Context, token string) ([]domain.UserRecord, error)
	DeleteUser(ctx context.Context, token, id string) error
	ResetPassword(ctx context.Context, token, id string) (string, error)
	Audit(ctx context.Context, token, username string) ([]domain.AuditEntry, error)
	Subscribe(ctx context.Context, token string) (Subscription, error)
}

// Subscription is a long-lived server-push channel delivering named
// signals. The Signals channel is closed when the stream ends for any
// reason; Close releases the underlying connection and is the only cleanup
// a consumer owes.
type Subscription interface {
	Signals() <-chan string
	Close() error
}
