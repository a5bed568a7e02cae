package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/console-auth/internal/core/domain"
)

// RequireRole enforces role-based access on top of RequireSession.
func RequireRole(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, _ := c.Get(ContextUser).(*domain.User)
			if _, ok := allowed[user.EffectiveRole()]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
