package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/console-auth/internal/api/middleware"
	"github.com/99minutos/console-auth/internal/core/domain"
)

type meResponse struct {
	User      *domain.User `json:"user"`
	Admin     bool         `json:"admin"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
}

// Me returns the signed-in user. Requires middleware.RequireSession.
//
// @Summary      Current user
// @Tags         session
// @Produce      json
// @Success      200  {object}  meResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/me [get]
func Me(c echo.Context) error {
	user, ok := c.Get(middleware.ContextUser).(*domain.User)
	if !ok || user == nil {
		return domain.ErrNoSession
	}
	resp := meResponse{User: user, Admin: user.EffectiveRole() == domain.RoleAdmin}
	if exp, ok := c.Get(middleware.ContextExpiry).(time.Time); ok {
		resp.ExpiresAt = &exp
	}
	return c.JSON(http.StatusOK, resp)
}

// AdminCheck answers 200 when the session belongs to an admin. Requires
// middleware.RequireRole(domain.RoleAdmin).
//
// @Summary      Admin check
// @Tags         session
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Failure      403  {object}  map[string]string
// @Router       /auth/admin [get]
func AdminCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"admin": true})
}
