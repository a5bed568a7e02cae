package effects

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/console-auth/internal/core/domain"
	"github.com/99minutos/console-auth/internal/core/store"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubAuthService struct {
	loginCalls atomic.Int32
	loginGate  chan struct{}
	loginFn    func(email, password string) (*domain.User, error)
	registerFn func(email, firstName, password string) (*domain.User, error)
	socialFn   func() (*domain.User, error)
	clearErr   error
	cleared    atomic.Bool
}

func (s *stubAuthService) IsLoggedIn() bool { return false }
func (s *stubAuthService) IsAdmin() bool { return false }
func (s *stubAuthService) IsUser() bool { return false }
func (s *stubAuthService) CurrentUser() *domain.User { return nil }
func (s *stubAuthService) Token(context.Context) string { return "" }
func (s *stubAuthService) SignOut(context.Context) error { return nil }
func (s *stubAuthService) Logout(context.Context) {}
func (s *stubAuthService) ResetPassword(context.Context, string) (json.RawMessage, error) {
	return nil, nil
}

func (s *stubAuthService) Register(_ context.Context, email, firstName, password string) (*domain.User, error) {
	return s.registerFn(email, firstName, password)
}

func (s *stubAuthService) Login(_ context.Context, email, password string) (*domain.User, error) {
	s.loginCalls.Add(1)
	if s.loginGate != nil {
		<-s.loginGate
	}
	return s.loginFn(email, password)
}

func (s *stubAuthService) SignInWithGoogle(context.Context) (*domain.User, error) {
	return s.socialFn()
}

func (s *stubAuthService) SignInWithFacebook(context.Context) (*domain.User, error) {
	return s.socialFn()
}

func (s *stubAuthService) ClearSession(context.Context) error {
	s.cleared.Store(true)
	return s.clearErr
}

type recordingNav struct {
	mu    sync.Mutex
	paths []string
}

func (n *recordingNav) Navigate(_ context.Context, path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.paths = append(n.paths, path)
	return nil
}

func (n *recordingNav) last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.paths) == 0 {
		return ""
	}
	return n.paths[len(n.paths)-1]
}

type harness struct {
	store  *store.Store
	runner *Runner
	svc    *stubAuthService
	nav    *recordingNav
}

func newHarness(t *testing.T, svc *stubAuthService) *harness {
	t.Helper()
	h := &harness{store: store.New(zerolog.Nop()), svc: svc, nav: &recordingNav{}}
	h.runner = NewRunner(h.store, zerolog.Nop())
	NewAuthEffects(svc, h.nav, zerolog.Nop()).Bind(h.runner)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h.runner.Start(ctx)
	h.store.AddListener(h.runner.Handle)
	return h
}

func (h *harness) await(t *testing.T, a domain.Action, until ...domain.ActionType) domain.Action {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := h.store.Await(ctx, a, until...)
	if err != nil {
		t.Fatalf("await %s: %v", a.Type, err)
	}
	return got
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestLoginEffect_SuccessRedirectsUser(t *testing.T) {
	svc := &stubAuthService{loginFn: func(email, _ string) (*domain.User, error) {
		return &domain.User{Email: email, Role: domain.RoleUser}, nil
	}}
	h := newHarness(t, svc)

	got := h.await(t, domain.Login("a@b.com", "pw"), domain.ActionLoginSuccess, domain.ActionLoginFailure)
	if got.Type != domain.ActionLoginSuccess || got.User.Email != "a@b.com" {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	h.runner.Wait()

	if h.nav.last() != domain.RouteWorkItems {
		t.Fatalf("expected redirect to %s, got %q", domain.RouteWorkItems, h.nav.last())
	}
	if h.store.State().Status != domain.StatusSucceeded {
		t.Fatalf("expected succeeded state, got %s", h.store.State().Status)
	}
}

func TestLoginEffect_Failure(t *testing.T) {
	svc := &stubAuthService{loginFn: func(string, string) (*domain.User, error) {
		return nil, domain.ErrLoginFailed
	}}
	h := newHarness(t, svc)

	got := h.await(t, domain.Login("a@b.com", "bad"), domain.ActionLoginSuccess, domain.ActionLoginFailure)
	if got.Type != domain.ActionLoginFailure || !errors.Is(got.Err, domain.ErrLoginFailed) {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	h.runner.Wait()
	if h.nav.last() != "" {
		t.Fatalf("failed login must not navigate, got %q", h.nav.last())
	}
}

func TestLoginEffect_IgnoresTriggerWhileInFlight(t *testing.T) {
	svc := &stubAuthService{
		loginGate: make(chan struct{}),
		loginFn: func(email, _ string) (*domain.User, error) {
			return &domain.User{Email: email, Role: domain.RoleUser}, nil
		},
	}
	h := newHarness(t, svc)

	sub, cancel := h.store.Subscribe()
	defer cancel()

	h.store.Dispatch(domain.Login("first@x.com", "pw"))
	h.store.Dispatch(domain.Login("second@x.com", "pw"))
	close(svc.loginGate)

	var success domain.Action
	for success.Type != domain.ActionLoginSuccess {
		select {
		case success = <-sub:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for LoginSuccess")
		}
	}
	h.runner.Wait()

	if n := svc.loginCalls.Load(); n != 1 {
		t.Fatalf("expected exactly one login call, got %d", n)
	}
	if success.User.Email != "first@x.com" {
		t.Fatalf("expected the first attempt to win, got %s", success.User.Email)
	}
}

func TestLoginEffect_AcceptsNewTriggerAfterCompletion(t *testing.T) {
	svc := &stubAuthService{loginFn: func(email, _ string) (*domain.User, error) {
		return &domain.User{Email: email}, nil
	}}
	h := newHarness(t, svc)

	h.await(t, domain.Login("a@b.com", "pw"), domain.ActionLoginSuccess)
	h.await(t, domain.Login("a@b.com", "pw"), domain.ActionLoginSuccess)

	if n := svc.loginCalls.Load(); n != 2 {
		t.Fatalf("expected two login calls, got %d", n)
	}
}

func TestLoginEffect_BackToBackTriggersAreNeverDropped(t *testing.T) {
	svc := &stubAuthService{loginFn: func(email, _ string) (*domain.User, error) {
		return &domain.User{Email: email}, nil
	}}
	h := newHarness(t, svc)

	const attempts = 2000
	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := h.store.Await(ctx, domain.Login("a@b.com", "pw"), domain.ActionLoginSuccess, domain.ActionLoginFailure)
		cancel()
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	if n := svc.loginCalls.Load(); n != attempts {
		t.Fatalf("expected %d login calls, got %d", attempts, n)
	}
}

// ---------------------------------------------------------------------------
// Redirect
// ---------------------------------------------------------------------------

func TestRouteFor(t *testing.T) {
	tests := []struct {
		name string
		user *domain.User
		want string
	}{
		{"user role", &domain.User{Role: domain.RoleUser}, domain.RouteWorkItems},
		{"admin role", &domain.User{Role: domain.RoleAdmin}, domain.RouteRoot},
		{"role under data", &domain.User{Data: map[string]any{"role": "USER"}}, domain.RouteWorkItems},
		{"no role", &domain.User{Email: "a@b.com"}, domain.RouteRoot},
		{"unknown role", &domain.User{Role: "AUDITOR"}, domain.RouteRoot},
		{"nil user", nil, domain.RouteRoot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RouteFor(tt.user); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestRegisterEffect_NavigatesToLogin(t *testing.T) {
	for _, fail := range []bool{false, true} {
		svc := &stubAuthService{registerFn: func(email, firstName, _ string) (*domain.User, error) {
			if fail {
				return nil, domain.ErrRegistrationFailed
			}
			return &domain.User{Email: email, FirstName: firstName}, nil
		}}
		h := newHarness(t, svc)

		got := h.await(t, domain.Register("ada@x.com", "Ada", "pw"), domain.ActionRegisterSuccess, domain.ActionRegisterFailure)
		h.runner.Wait()

		want := domain.ActionRegisterSuccess
		if fail {
			want = domain.ActionRegisterFailure
		}
		if got.Type != want {
			t.Fatalf("fail=%v: expected %s, got %s", fail, want, got.Type)
		}
		if h.nav.last() != domain.RouteLogin {
			t.Fatalf("fail=%v: expected navigation to login, got %q", fail, h.nav.last())
		}
	}
}

// ---------------------------------------------------------------------------
// Social sign-in
// ---------------------------------------------------------------------------

func TestSocialEffects(t *testing.T) {
	svc := &stubAuthService{socialFn: func() (*domain.User, error) {
		return &domain.User{Email: "g@x.com", Role: domain.RoleUser}, nil
	}}
	h := newHarness(t, svc)

	got := h.await(t, domain.SignInWithGoogle(), domain.ActionLoginSuccess, domain.ActionLoginFailure)
	if got.Type != domain.ActionLoginSuccess {
		t.Fatalf("expected LoginSuccess, got %s", got.Type)
	}
	h.runner.Wait()

	svc.socialFn = func() (*domain.User, error) { return nil, domain.ErrProviderSignIn }
	got = h.await(t, domain.SignInWithFacebook(), domain.ActionLoginSuccess, domain.ActionLoginFailure)
	if got.Type != domain.ActionLoginFailure || !errors.Is(got.Err, domain.ErrProviderSignIn) {
		t.Fatalf("expected LoginFailure, got %+v", got)
	}
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func TestLogoutEffect_AlwaysSucceeds(t *testing.T) {
	svc := &stubAuthService{clearErr: errors.New("store unavailable")}
	h := newHarness(t, svc)

	got := h.await(t, domain.Logout(), domain.ActionLogoutSuccess)
	if got.Type != domain.ActionLogoutSuccess {
		t.Fatalf("expected LogoutSuccess, got %s", got.Type)
	}
	if !svc.cleared.Load() {
		t.Fatalf("expected session to be cleared")
	}
	if h.store.State().Status != domain.StatusIdle {
		t.Fatalf("expected idle state after logout")
	}
}
