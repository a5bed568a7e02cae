package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/99minutos/console-auth/internal/api/middleware"
	"github.com/99minutos/console-auth/internal/core/domain"
)

func TestMe(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/auth/me", "")
	c.Set(middleware.ContextUser, &domain.User{Email: "admin@x.com", Role: domain.RoleAdmin})
	c.Set(middleware.ContextExpiry, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))

	if err := Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decodeBody(t, rec)
	if resp["admin"] != true || resp["expires_at"] != "2030-01-01T00:00:00Z" {
		t.Fatalf("unexpected payload: %v", resp)
	}
}

func TestMe_WithoutSession(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/auth/me", "")
	if err := Me(c); !errors.Is(err, domain.ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
}

func TestMe_AdminFromDataRole(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/auth/me", "")
	c.Set(middleware.ContextUser, &domain.User{Email: "ops@x.com", Data: map[string]any{"role": "ADMIN"}})

	if err := Me(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resp := decodeBody(t, rec); resp["admin"] != true {
		t.Fatalf("expected admin from data.role, got %v", resp)
	}
}
