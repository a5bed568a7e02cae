package navigation

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestRouter_Navigate(t *testing.T) {
	var changes [][2]string
	r := NewRouter("/", func(from, to string) {
		changes = append(changes, [2]string{from, to})
	}, zerolog.Nop())

	if err := r.Navigate(context.Background(), "/auth/login"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	if err := r.Navigate(context.Background(), "/apps/kanban"); err != nil {
		t.Fatalf("navigate: %v", err)
	}

	if r.Current() != "/apps/kanban" {
		t.Fatalf("unexpected current view %q", r.Current())
	}
	if len(changes) != 2 || changes[1] != [2]string{"/auth/login", "/apps/kanban"} {
		t.Fatalf("unexpected observer calls: %v", changes)
	}
}

func TestRouter_RejectsRelativePath(t *testing.T) {
	r := NewRouter("/", nil, zerolog.Nop())
	if err := r.Navigate(context.Background(), "auth/login"); err == nil {
		t.Fatalf("expected error for relative path")
	}
	if r.Current() != "/" {
		t.Fatalf("view must not change on error")
	}
}

func TestRouter_CancelledContext(t *testing.T) {
	r := NewRouter("/", nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Navigate(ctx, "/auth/login"); err == nil {
		t.Fatalf("expected context error")
	}
}
