package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

// Runs only against a live server: MONGO_URI=mongodb://localhost:27017 go test ./...
func TestSessionStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()

	db, disconnect, err := Connect(ctx, Config{URI: uri, Database: "console_auth_test", Timeout: 3 * time.Second})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = disconnect(context.Background()) })

	s := NewSessionStore(db, "session_keys_"+uuid.NewString())
	t.Cleanup(func() { _ = s.coll.Drop(context.Background()) })

	if _, ok, err := s.Get(ctx, "currentUser"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
	for _, v := range []string{`{"email":"a@b.com"}`, `{"email":"c@d.com"}`} {
		if err := s.Set(ctx, "currentUser", v); err != nil {
			t.Fatalf("set: %v", err)
		}
		if got, ok, err := s.Get(ctx, "currentUser"); err != nil || !ok || got != v {
			t.Fatalf("get: %q %v %v", got, ok, err)
		}
	}
	if err := s.Delete(ctx, "currentUser", "token"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "currentUser"); ok {
		t.Fatalf("expected key removed")
	}
}
