package devserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/usermgmt/account-console/internal/devserver/metrics"
)

// AdminHandler serves the admin-only endpoints. Routes carrying it are
// guarded by Auth plus RBAC(ADMIN).
type AdminHandler struct {
	store *Store
	hub   *Hub
	log   zerolog.Logger
}

// NewAdminHandler wires the admin endpoints to the store and the event hub.
func NewAdminHandler(store *Store, hub *Hub, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{store: store, hub: hub, log: log}
}

// ListUsers returns every account.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.List())
}

// DeleteUser removes an account and notifies subscribers.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		return err
	}
	h.hub.NotifyUsersChanged()
	h.log.Info().Str("id", id).Msg("user deleted")
	return c.JSON(http.StatusOK, map[string]string{"deleted": id})
}

// ResetPassword issues a one-time temporary password, raises the account's
// forced-reset flag, and notifies subscribers.
func (h *AdminHandler) ResetPassword(c echo.Context) error {
	id := c.Param("id")
	temp, err := h.store.ResetPassword(id)
	if err != nil {
		return err
	}
	metrics.PasswordResetsTotal.Inc()
	h.hub.NotifyUsersChanged()
	h.log.Info().Str("id", id).Msg("password reset")
	return c.JSON(http.StatusOK, map[string]string{"tempPassword": temp})
}

// Audit returns the login trail for one username.
func (h *AdminHandler) Audit(c echo.Context) error {
	username := c.QueryParam("username")
	if username == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}
	return c.JSON(http.StatusOK, h.store.Audit(username))
}

// Events streams named server-push signals until the client disconnects.
func (h *AdminHandler) Events(c echo.Context) error {
	signals, cancel := h.hub.Subscribe()
	defer cancel()

	metrics.EventClients.Inc()
	defer metrics.EventClients.Dec()

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case name, ok := <-signals:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(resp, "event: %s\ndata: refresh\n\n", name); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}
