package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testGateway(t *testing.T, handler http.Handler) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGateway(srv.URL, 5*time.Second, zerolog.Nop())
}

func TestGateway_LoginParsesResult(t *testing.T) {
	gw := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var body credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username != "alice" {
			t.Errorf("bad request body: %+v err=%v", body, err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(loginResponse{Token: "tok-123", ForcePasswordReset: true})
	}))

	res, err := gw.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Token != "tok-123" || !res.ForcePasswordReset {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestGateway_BearerTokenForwarded(t *testing.T) {
	gw := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("expected bearer header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))

	if _, err := gw.ListUsers(context.Background(), "tok-123"); err != nil {
		t.Fatalf("list failed: %v", err)
	}
}

func TestGateway_RejectionBecomesAPIError(t *testing.T) {
	gw := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"username already in use"}`))
	}))

	err := gw.Register(context.Background(), "alice", "secret")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Error() != "username already in use" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestGateway_TransportFailureIsNotAPIError(t *testing.T) {
	gw := NewGateway("http://127.0.0.1:1", time.Second, zerolog.Nop())

	err := gw.Logout(context.Background())
	if err == nil {
		t.Fatalf("expected transport failure")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("transport failure must not masquerade as a server rejection")
	}
}

func TestGateway_LastLogin(t *testing.T) {
	stamp := time.Date(2026, 8, 30, 12, 30, 0, 0, time.UTC)
	body := `"` + stamp.Format(time.RFC3339) + `"`
	gw := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))

	got, err := gw.LastLogin(context.Background(), "tok")
	if err != nil {
		t.Fatalf("last-login failed: %v", err)
	}
	if got == nil || !got.Equal(stamp) {
		t.Fatalf("expected %v, got %v", stamp, got)
	}
}

func TestGateway_LastLoginNeverLoggedIn(t *testing.T) {
	gw := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`null`))
	}))

	got, err := gw.LastLogin(context.Background(), "tok")
	if err != nil {
		t.Fatalf("last-login failed: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for a first login, got %v", got)
	}
}

func TestGateway_DeleteUserEscapesID(t *testing.T) {
	var path string
	gw := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.EscapedPath()
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := gw.DeleteUser(context.Background(), "tok", "a/b"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if path != "/api/admin/users/a%2Fb" {
		t.Fatalf("unexpected path: %s", path)
	}
}

func TestGateway_ResetPasswordReturnsTempPassword(t *testing.T) {
	gw := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/admin/users/42/reset-password" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"tempPassword":"kfmrt2xq7xwd"}`))
	}))

	temp, err := gw.ResetPassword(context.Background(), "tok", "42")
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if temp != "kfmrt2xq7xwd" {
		t.Fatalf("unexpected temp password: %q", temp)
	}
}
