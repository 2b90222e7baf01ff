// Package backend implements ports.Gateway against the fixed user-management
// HTTP contract. Every failing call is reduced to a single displayable
// message via one shared extraction policy; nothing here retries, refreshes
// tokens, or special-cases authorization failures.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/usermgmt/account-console/internal/core/domain"
	"github.com/usermgmt/account-console/internal/core/ports"
)

const maxErrorBody = 64 << 10

// Gateway is the stateless HTTP client for the backend contract. The only
// thing it keeps between calls is the cookie jar, which carries the session
// cookie the cookie-authenticated logout endpoint expects.
type Gateway struct {
	baseURL string
	client  *http.Client
	stream  *http.Client
	log     zerolog.Logger
}

var _ ports.Gateway = (*Gateway)(nil)

// NewGateway builds a gateway for the given base URL. The timeout applies
// to every request except the event-stream subscription, which stays open
// until its subscription is closed.
func NewGateway(baseURL string, timeout time.Duration, log zerolog.Logger) *Gateway {
	jar, _ := cookiejar.New(nil)
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout, Jar: jar},
		stream:  &http.Client{Jar: jar},
		log:     log.With().Str("component", "gateway").Logger(),
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token              string `json:"token"`
	ForcePasswordReset bool   `json:"forcePasswordReset"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type resetPasswordResponse struct {
	TempPassword string `json:"tempPassword"`
}

func (g *Gateway) Register(ctx context.Context, username, password string) error {
	return g.do(ctx, http.MethodPost, "/api/auth/register", "", credentialsRequest{username, password}, nil)
}

func (g *Gateway) Login(ctx context.Context, username, password string) (ports.LoginResult, error) {
	var resp loginResponse
	err := g.do(ctx, http.MethodPost, "/api/auth/login", "", credentialsRequest{username, password}, &resp)
	if err != nil {
		return ports.LoginResult{}, err
	}
	return ports.LoginResult{Token: resp.Token, ForcePasswordReset: resp.ForcePasswordReset}, nil
}

// Logout authenticates through the session cookie held in the jar, not the
// bearer token. Callers treat the outcome as advisory.
func (g *Gateway) Logout(ctx context.Context) error {
	return g.do(ctx, http.MethodPost, "/api/auth/logout", "", nil, nil)
}

// LastLogin returns nil when the account has never logged in before.
func (g *Gateway) LastLogin(ctx context.Context, token string) (*time.Time, error) {
	var raw *string
	if err := g.do(ctx, http.MethodGet, "/api/auth/me/last-login", token, nil, &raw); err != nil {
		return nil, err
	}
	if raw == nil || *raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, fmt.Errorf("unreadable last-login timestamp %q", *raw)
	}
	return &ts, nil
}

func (g *Gateway) ChangePassword(ctx context.Context, token, oldPassword, newPassword string) error {
	return g.do(ctx, http.MethodPost, "/api/auth/me/change-password", token,
		changePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}, nil)
}

func (g *Gateway) ListUsers(ctx context.Context, token string) ([]domain.UserRecord, error) {
	var users []domain.UserRecord
	if err := g.do(ctx, http.MethodGet, "/api/admin/users", token, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (g *Gateway) DeleteUser(ctx context.Context, token, id string) error {
	return g.do(ctx, http.MethodDelete, "/api/admin/users/"+url.PathEscape(id), token, nil, nil)
}

// ResetPassword returns the one-time plaintext temporary password. The
// caller displays it exactly once and must not store it.
func (g *Gateway) ResetPassword(ctx context.Context, token, id string) (string, error) {
	var resp resetPasswordResponse
	err := g.do(ctx, http.MethodPost, "/api/admin/users/"+url.PathEscape(id)+"/reset-password", token, nil, &resp)
	if err != nil {
		return "", err
	}
	return resp.TempPassword, nil
}

func (g *Gateway) Audit(ctx context.Context, token, username string) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	path := "/api/admin/audit?username=" + url.QueryEscape(username)
	if err := g.do(ctx, http.MethodGet, path, token, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// do issues one request. A transport failure comes back wrapped; a
// non-success status comes back as *APIError carrying the extracted
// message; otherwise the body is decoded into out when asked for.
func (g *Gateway) do(ctx context.Context, method, path, token string, body, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Message: messageFrom(resp.StatusCode, resp.Header.Get("Content-Type"), raw),
		}
		g.log.Debug().Int("status", resp.StatusCode).Str("path", path).Str("message", apiErr.Message).Msg("request rejected")
		return apiErr
	}

	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
