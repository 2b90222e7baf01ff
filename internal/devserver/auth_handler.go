package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/usermgmt/account-console/internal/devserver/metrics"
)

const sessionCookie = "SESSION"

// AuthHandler serves the unauthenticated and self-service endpoints.
type AuthHandler struct {
	store     *Store
	jwtSecret string
	tokenTTL  time.Duration
}

// NewAuthHandler wires the auth endpoints to the store.
func NewAuthHandler(store *Store, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	if tokenTTL <= 0 {
		tokenTTL = 5 * time.Minute
	}
	return &AuthHandler{store: store, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type loginResponse struct {
	Token              string `json:"token"`
	ForcePasswordReset bool   `json:"forcePasswordReset"`
}

// Register creates a USER account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.store.Register(req.Username, req.Password); err != nil {
		return err
	}
	metrics.RegistrationsTotal.Inc()
	return c.NoContent(http.StatusOK)
}

// Login verifies credentials, records the audit row, and issues the bearer
// token plus the session cookie the cookie-authenticated logout uses.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	res, err := h.store.Authenticate(req.Username, req.Password, normalizeIP(c.RealIP()))
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}

	token, err := h.mint(res.Username, res.Role)
	if err != nil {
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.tokenTTL / time.Second),
	})

	return c.JSON(http.StatusOK, loginResponse{Token: token, ForcePasswordReset: res.ForcePasswordReset})
}

// Logout is cookie-authenticated and best-effort: it always succeeds so the
// client can treat its local logout as authoritative.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	return c.NoContent(http.StatusOK)
}

// LastLogin returns the RFC3339 stamp of the caller's most recent login, or
// null when there has never been one.
func (h *AuthHandler) LastLogin(c echo.Context) error {
	username, _ := c.Get("username").(string)
	ts, err := h.store.LastLogin(username)
	if err != nil {
		return err
	}
	if ts == nil {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, ts.UTC().Format(time.RFC3339))
}

// ChangePassword verifies the old password before storing the new one.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	username, _ := c.Get("username").(string)
	if err := h.store.ChangePassword(username, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusOK)
}

func (h *AuthHandler) mint(username, role string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  username,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(h.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
}

// normalizeIP collapses the common IPv6 loopback spellings so audit rows
// stay comparable.
func normalizeIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "::1" || ip == "0:0:0:0:0:0:0:1" {
		return "127.0.0.1"
	}
	return strings.TrimPrefix(ip, "::ffff:")
}
