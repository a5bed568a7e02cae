package middleware

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/99minutos/console-auth/internal/core/domain"
)

// Context keys set by RequireSession.
const (
	ContextUser   = "user"
	ContextToken  = "token"
	ContextExpiry = "token_expiry"
)

// SessionReader is the read side of the session.
type SessionReader interface {
	Current() *domain.User
	Token(ctx context.Context) string
}

// RequireSession rejects requests when nobody is signed in or the bearer token
// is a JWT past its exp claim. The token is resolved in the same order the
// outgoing interceptor uses. Opaque tokens are accepted as-is: the backend,
// not this agent, verifies signatures.
func RequireSession(sess SessionReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := sess.Current()
			if user == nil {
				return domain.ErrNoSession
			}

			token := domain.ResolveToken(user.SessionToken(), func() string {
				return sess.Token(c.Request().Context())
			})
			if token != "" {
				exp, ok := tokenExpiry(token)
				if ok {
					if time.Now().After(exp) {
						return domain.ErrSessionExpired
					}
					c.Set(ContextExpiry, exp)
				}
			}

			c.Set(ContextUser, user)
			c.Set(ContextToken, token)
			return next(c)
		}
	}
}

// tokenExpiry reads exp from a JWT without verifying it. ok is false for
// tokens that are not JWTs or carry no exp.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
