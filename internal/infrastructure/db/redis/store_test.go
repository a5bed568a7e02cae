package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Runs only against a live server: REDIS_ADDR=localhost:6379 go test ./...
func TestSessionStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()

	client, err := Connect(ctx, Config{Addr: addr, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	s := NewSessionStore(client, "console-auth-test-"+uuid.NewString(), time.Minute)
	t.Cleanup(func() { _ = s.Delete(context.Background(), "token", "currentUser") })

	if _, ok, err := s.Get(ctx, "token"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "token", "abc"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, ok, err := s.Get(ctx, "token"); err != nil || !ok || v != "abc" {
		t.Fatalf("get: %q %v %v", v, ok, err)
	}
	if ttl := client.TTL(ctx, s.key("token")).Val(); ttl <= 0 {
		t.Fatalf("expected ttl on key, got %v", ttl)
	}
	if err := s.Delete(ctx, "token", "currentUser"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "token"); ok {
		t.Fatalf("expected key removed")
	}
}

func TestSessionStore_DefaultPrefix(t *testing.T) {
	s := NewSessionStore(nil, "", 0)
	if got := s.key("token"); got != "console-auth:token" {
		t.Fatalf("unexpected key %q", got)
	}
}
