package effects

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/99minutos/console-auth/internal/core/domain"
	"github.com/99minutos/console-auth/internal/core/ports"
)

// AuthEffects maps authentication actions onto AuthService calls and
// navigation.
type AuthEffects struct {
	svc ports.AuthService
	nav ports.Navigator
	log zerolog.Logger
}

func NewAuthEffects(svc ports.AuthService, nav ports.Navigator, log zerolog.Logger) *AuthEffects {
	return &AuthEffects{svc: svc, nav: nav, log: log}
}

// Bind registers every handler on r.
func (e *AuthEffects) Bind(r *Runner) {
	r.On(domain.ActionRegister, e.Register)
	r.On(domain.ActionLogin, e.Login)
	r.On(domain.ActionLoginSuccess, e.Redirect)
	r.On(domain.ActionSignInWithGoogle, e.SignInWithGoogle)
	r.On(domain.ActionSignInWithFacebook, e.SignInWithFacebook)
	r.On(domain.ActionLogout, e.Logout)
}

// Register creates the account and sends the user to the login view whatever
// the outcome.
func (e *AuthEffects) Register(ctx context.Context, a domain.Action) []domain.Action {
	user, err := e.svc.Register(ctx, a.Email, a.FirstName, a.Password)
	e.navigate(ctx, domain.RouteLogin)
	if err != nil {
		return []domain.Action{domain.RegisterFailure(err)}
	}
	return []domain.Action{domain.RegisterSuccess(user)}
}

func (e *AuthEffects) Login(ctx context.Context, a domain.Action) []domain.Action {
	user, err := e.svc.Login(ctx, a.Email, a.Password)
	if err != nil {
		return []domain.Action{domain.LoginFailure(err)}
	}
	return []domain.Action{domain.LoginSuccess(user)}
}

// Redirect sends plain users to the work-item view and everyone else to the root.
func (e *AuthEffects) Redirect(ctx context.Context, a domain.Action) []domain.Action {
	e.navigate(ctx, RouteFor(a.User))
	return nil
}

func (e *AuthEffects) SignInWithGoogle(ctx context.Context, _ domain.Action) []domain.Action {
	return loginOutcome(e.svc.SignInWithGoogle(ctx))
}

func (e *AuthEffects) SignInWithFacebook(ctx context.Context, _ domain.Action) []domain.Action {
	return loginOutcome(e.svc.SignInWithFacebook(ctx))
}

// Logout clears the session and always reports success.
func (e *AuthEffects) Logout(ctx context.Context, _ domain.Action) []domain.Action {
	if err := e.svc.ClearSession(ctx); err != nil {
		e.log.Warn().Err(err).Msg("clear session on logout")
	}
	return []domain.Action{domain.LogoutSuccess()}
}

func (e *AuthEffects) navigate(ctx context.Context, path string) {
	if err := e.nav.Navigate(ctx, path); err != nil {
		e.log.Warn().Err(err).Str("path", path).Msg("navigation failed")
	}
}

// RouteFor is the post-login destination for user.
func RouteFor(user *domain.User) string {
	if user.EffectiveRole() == domain.RoleUser {
		return domain.RouteWorkItems
	}
	return domain.RouteRoot
}

func loginOutcome(user *domain.User, err error) []domain.Action {
	if err != nil {
		return []domain.Action{domain.LoginFailure(err)}
	}
	return []domain.Action{domain.LoginSuccess(user)}
}
