package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/usermgmt/account-console/internal/core/domain"
	"github.com/usermgmt/account-console/internal/core/ports"
)

type stubGateway struct {
	loginFn          func(username, password string) (ports.LoginResult, error)
	logoutErr        error
	changePasswordFn func(token, oldPassword, newPassword string) error
}

func (s *stubGateway) Register(_ context.Context, _, _ string) error { return nil }

func (s *stubGateway) Login(_ context.Context, username, password string) (ports.LoginResult, error) {
	if s.loginFn == nil {
		return ports.LoginResult{}, errors.New("login not stubbed")
	}
	return s.loginFn(username, password)
}

func (s *stubGateway) Logout(_ context.Context) error { return s.logoutErr }

func (s *stubGateway) LastLogin(_ context.Context, _ string) (*time.Time, error) { return nil, nil }

func (s *stubGateway) ChangePassword(_ context.Context, token, oldPassword, newPassword string) error {
	if s.changePasswordFn == nil {
		return errors.New("change password not stubbed")
	}
	return s.changePasswordFn(token, oldPassword, newPassword)
}

func (s *stubGateway) ListUsers(_ context.Context, _ string) ([]domain.UserRecord, error) {
	return nil, nil
}

func (s *stubGateway) DeleteUser(_ context.Context, _, _ string) error { return nil }

func (s *stubGateway) ResetPassword(_ context.Context, _, _ string) (string, error) {
	return "", nil
}

func (s *stubGateway) Audit(_ context.Context, _, _ string) ([]domain.AuditEntry, error) {
	return nil, nil
}

func (s *stubGateway) Subscribe(_ context.Context, _ string) (ports.Subscription, error) {
	return nil, errors.New("subscribe not stubbed")
}

func TestController_LoginSuccess(t *testing.T) {
	userToken := mintCredential(t, domain.RoleUser).Token()
	gw := &stubGateway{loginFn: func(_, _ string) (ports.LoginResult, error) {
		return ports.LoginResult{Token: userToken, ForcePasswordReset: false}, nil
	}}
	ctrl := NewController(gw, zerolog.Nop())

	if err := ctrl.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	cred, ok := ctrl.Credential()
	if !ok {
		t.Fatalf("expected a credential after login")
	}
	if cred.Role() != domain.RoleUser {
		t.Fatalf("unexpected role: %s", cred.Role())
	}
	if ctrl.ActiveView() != ViewUser {
		t.Fatalf("expected user view, got %s", ctrl.ActiveView())
	}
}

func TestController_LoginCarriesForcedResetFlag(t *testing.T) {
	userToken := mintCredential(t, domain.RoleUser).Token()
	gw := &stubGateway{loginFn: func(_, _ string) (ports.LoginResult, error) {
		return ports.LoginResult{Token: userToken, ForcePasswordReset: true}, nil
	}}
	ctrl := NewController(gw, zerolog.Nop())

	if err := ctrl.Login(context.Background(), "alice", "temp"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if ctrl.ActiveView() != ViewForcedReset {
		t.Fatalf("expected forced-reset view, got %s", ctrl.ActiveView())
	}
}

func TestController_AdminIgnoresForcedResetFlag(t *testing.T) {
	adminToken := mintCredential(t, domain.RoleAdmin).Token()
	gw := &stubGateway{loginFn: func(_, _ string) (ports.LoginResult, error) {
		return ports.LoginResult{Token: adminToken, ForcePasswordReset: true}, nil
	}}
	ctrl := NewController(gw, zerolog.Nop())

	if err := ctrl.Login(context.Background(), "root", "secret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if ctrl.ActiveView() != ViewAdmin {
		t.Fatalf("expected admin view, got %s", ctrl.ActiveView())
	}
}

func TestController_LoginFailureLeavesStateUntouched(t *testing.T) {
	userToken := mintCredential(t, domain.RoleUser).Token()
	fail := false
	gw := &stubGateway{loginFn: func(_, _ string) (ports.LoginResult, error) {
		if fail {
			return ports.LoginResult{}, errors.New("bad credentials")
		}
		return ports.LoginResult{Token: userToken}, nil
	}}
	ctrl := NewController(gw, zerolog.Nop())

	if err := ctrl.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("first login failed: %v", err)
	}

	fail = true
	if err := ctrl.Login(context.Background(), "alice", "wrong"); err == nil {
		t.Fatalf("expected login failure")
	}
	if _, ok := ctrl.Credential(); !ok {
		t.Fatalf("prior credential must survive a failed login")
	}
	if ctrl.ActiveView() != ViewUser {
		t.Fatalf("expected user view after failed re-login, got %s", ctrl.ActiveView())
	}
}

func TestController_MalformedTokenIsLoginFailure(t *testing.T) {
	gw := &stubGateway{loginFn: func(_, _ string) (ports.LoginResult, error) {
		return ports.LoginResult{Token: "not-a-jwt"}, nil
	}}
	ctrl := NewController(gw, zerolog.Nop())

	err := ctrl.Login(context.Background(), "alice", "secret")
	if !errors.Is(err, domain.ErrMalformedCredential) {
		t.Fatalf("expected ErrMalformedCredential, got %v", err)
	}
	if ctrl.ActiveView() != ViewAnonymous {
		t.Fatalf("undecodable token must never authenticate, got %s", ctrl.ActiveView())
	}
}

func TestController_LogoutClearsStateEvenWhenServerFails(t *testing.T) {
	userToken := mintCredential(t, domain.RoleUser).Token()
	gw := &stubGateway{
		loginFn:   func(_, _ string) (ports.LoginResult, error) { return ports.LoginResult{Token: userToken}, nil },
		logoutErr: errors.New("connection refused"),
	}
	ctrl := NewController(gw, zerolog.Nop())

	if err := ctrl.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	ctrl.Logout(context.Background())

	if ctrl.ActiveView() != ViewAnonymous {
		t.Fatalf("local logout must be authoritative, got %s", ctrl.ActiveView())
	}
	if _, ok := ctrl.Credential(); ok {
		t.Fatalf("credential must be discarded on logout")
	}
}

func TestController_ChangePasswordClearsFlagOnSuccessOnly(t *testing.T) {
	userToken := mintCredential(t, domain.RoleUser).Token()
	changeErr := errors.New("old password does not match")
	gw := &stubGateway{
		loginFn: func(_, _ string) (ports.LoginResult, error) {
			return ports.LoginResult{Token: userToken, ForcePasswordReset: true}, nil
		},
		changePasswordFn: func(_, _, _ string) error { return changeErr },
	}
	ctrl := NewController(gw, zerolog.Nop())

	if err := ctrl.Login(context.Background(), "alice", "temp"); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := ctrl.ChangePassword(context.Background(), "temp", "newpass"); !errors.Is(err, changeErr) {
		t.Fatalf("expected change failure, got %v", err)
	}
	if ctrl.ActiveView() != ViewForcedReset {
		t.Fatalf("failed change must not clear the forced-reset gate")
	}

	gw.changePasswordFn = func(token, oldPassword, newPassword string) error {
		if token != userToken {
			t.Fatalf("expected bearer token to be forwarded")
		}
		return nil
	}
	if err := ctrl.ChangePassword(context.Background(), "temp", "newpass"); err != nil {
		t.Fatalf("change failed: %v", err)
	}
	if ctrl.ActiveView() != ViewUser {
		t.Fatalf("successful change must clear the forced-reset gate, got %s", ctrl.ActiveView())
	}
}

func TestController_ChangePasswordWithoutSession(t *testing.T) {
	ctrl := NewController(&stubGateway{}, zerolog.Nop())
	if err := ctrl.ChangePassword(context.Background(), "a", "b"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}
