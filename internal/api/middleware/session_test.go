package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/99minutos/console-auth/internal/core/domain"
)

type stubSession struct {
	user  *domain.User
	token string
}

func (s stubSession) Current() *domain.User { return s.user }
func (s stubSession) Token(context.Context) string { return s.token }

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runSession(t *testing.T, sess SessionReader) (echo.Context, bool, error) {
	t.Helper()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/auth/me", nil), httptest.NewRecorder())

	called := false
	handler := RequireSession(sess)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return c, called, err
}

func TestRequireSession_ValidJWT(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	sess := stubSession{user: &domain.User{Email: "a@b.com"}, token: signedToken(t, exp)}

	c, called, err := runSession(t, sess)
	if err != nil || !called {
		t.Fatalf("expected pass-through, got called=%v err=%v", called, err)
	}
	if u, _ := c.Get(ContextUser).(*domain.User); u == nil || u.Email != "a@b.com" {
		t.Fatalf("user not set in context")
	}
	if got, _ := c.Get(ContextExpiry).(time.Time); !got.Equal(exp) {
		t.Fatalf("expected expiry %s, got %s", exp, got)
	}
}

func TestRequireSession_ExpiredJWT(t *testing.T) {
	sess := stubSession{user: &domain.User{Email: "a@b.com"}, token: signedToken(t, time.Now().Add(-time.Minute))}

	_, called, err := runSession(t, sess)
	if called {
		t.Fatalf("next must not be called for an expired token")
	}
	if !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestRequireSession_OpaqueToken(t *testing.T) {
	sess := stubSession{user: &domain.User{Email: "a@b.com"}, token: "abc"}

	c, called, err := runSession(t, sess)
	if err != nil || !called {
		t.Fatalf("opaque tokens must pass, got called=%v err=%v", called, err)
	}
	if c.Get(ContextExpiry) != nil {
		t.Fatalf("no expiry expected for opaque token")
	}
}

func TestRequireSession_TokenOnUserRecord(t *testing.T) {
	sess := stubSession{user: &domain.User{Email: "a@b.com", Token: signedToken(t, time.Now().Add(-time.Minute))}}

	_, _, err := runSession(t, sess)
	if !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected the record token to be inspected, got %v", err)
	}
}

func TestRequireSession_NoSession(t *testing.T) {
	_, called, err := runSession(t, stubSession{})
	if called {
		t.Fatalf("next must not be called without a session")
	}
	if !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestRequireSession_ChecksTheTokenThatIsSent(t *testing.T) {
	live := signedToken(t, time.Now().Add(time.Hour))
	expired := signedToken(t, time.Now().Add(-time.Minute))

	tests := []struct {
		name    string
		sess    stubSession
		want    string
		wantErr error
	}{
		{
			name: "record token wins over standalone",
			sess: stubSession{user: &domain.User{Token: live}, token: expired},
			want: live,
		},
		{
			name:    "data token wins over standalone",
			sess:    stubSession{user: &domain.User{Data: map[string]any{"token": expired}}, token: live},
			wantErr: domain.ErrSessionExpired,
		},
		{
			name: "standalone when the record has none",
			sess: stubSession{user: &domain.User{Email: "a@b.com"}, token: live},
			want: live,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, err := runSession(t, tt.sess)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got, _ := c.Get(ContextToken).(string); got != tt.want {
				t.Fatalf("context token mismatch")
			}
		})
	}
}
