package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/console-auth/internal/core/domain"
	"github.com/99minutos/console-auth/internal/core/ports"
	"github.com/99minutos/console-auth/internal/core/session"
)

// AuthService wraps the REST backend and the identity providers, and keeps the
// persisted session in step through the session manager.
type AuthService struct {
	api      ports.AuthAPI
	identity ports.IdentityBackend
	session  *session.Manager
	nav      ports.Navigator
	dispatch ports.Dispatcher
	log      zerolog.Logger

	detailedErrors bool
}

// Option customises an AuthService.
type Option func(*AuthService)

// WithDetailedErrors makes returned AuthErrors print their cause next to the
// fixed message.
func WithDetailedErrors(on bool) Option {
	return func(s *AuthService) { s.detailedErrors = on }
}

// WithIdentity sets the third-party sign-in backend.
func WithIdentity(b ports.IdentityBackend) Option {
	return func(s *AuthService) { s.identity = b }
}

func NewAuthService(
	api ports.AuthAPI,
	sess *session.Manager,
	nav ports.Navigator,
	dispatch ports.Dispatcher,
	log zerolog.Logger,
	opts ...Option,
) *AuthService {
	s := &AuthService{
		api:      api,
		session:  sess,
		nav:      nav,
		dispatch: dispatch,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) IsLoggedIn() bool {
	return s.session.Current() != nil
}

func (s *AuthService) IsAdmin() bool {
	u := s.session.Current()
	return u.EffectiveRole() == domain.RoleAdmin
}

func (s *AuthService) IsUser() bool {
	u := s.session.Current()
	return u.EffectiveRole() == domain.RoleUser
}

// CurrentUser returns the session user, falling back to whoever the identity
// backend last authenticated.
func (s *AuthService) CurrentUser() *domain.User {
	if u := s.session.Current(); u != nil {
		return u
	}
	if s.identity != nil {
		return s.identity.AuthenticatedUser()
	}
	return nil
}

// Token returns the persisted bearer token.
func (s *AuthService) Token(ctx context.Context) string {
	return s.session.Token(ctx)
}

// Register creates an account. The role defaults from the email when the
// backend leaves it out.
func (s *AuthService) Register(ctx context.Context, email, firstName, password string) (*domain.User, error) {
	res, err := s.api.SignUp(ctx, email, firstName, password)
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("registration failed")
		return nil, s.authError("register", domain.ErrRegistrationFailed, err)
	}
	user, token := s.normalize(res, email)

	if err := s.session.Set(ctx, user, token); err != nil {
		return nil, s.authError("register", domain.ErrRegistrationFailed, err)
	}
	s.log.Info().Str("email", user.Email).Str("role", string(user.EffectiveRole())).Str("shape", string(res.Shape)).Msg("user registered")
	return user, nil
}

// Login signs in with email and password and persists user and token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	res, err := s.api.SignIn(ctx, email, password)
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("login failed")
		return nil, s.authError("login", domain.ErrLoginFailed, err)
	}
	user, token := s.normalize(res, email)

	if err := s.session.Set(ctx, user, token); err != nil {
		return nil, s.authError("login", domain.ErrLoginFailed, err)
	}
	s.log.Info().Str("email", user.Email).Str("role", string(user.EffectiveRole())).Bool("token", token != "").Msg("user logged in")
	return user, nil
}

func (s *AuthService) SignInWithGoogle(ctx context.Context) (*domain.User, error) {
	return s.signInWithPopup(ctx, ports.ProviderGoogle)
}

func (s *AuthService) SignInWithFacebook(ctx context.Context) (*domain.User, error) {
	return s.signInWithPopup(ctx, ports.ProviderFacebook)
}

func (s *AuthService) signInWithPopup(ctx context.Context, provider string) (*domain.User, error) {
	op := "sign in with " + provider
	if s.identity == nil {
		return nil, s.authError(op, domain.ErrProviderSignIn, domain.ErrProviderUnavailable)
	}
	profile, err := s.identity.SignInWithPopup(ctx, provider)
	if err != nil {
		s.log.Warn().Err(err).Str("provider", provider).Msg("provider sign-in failed")
		return nil, s.authError(op, domain.ErrProviderSignIn, err)
	}

	user := &domain.User{
		Email:     profile.Email,
		FirstName: profile.DisplayName,
		Role:      domain.RoleUser,
	}
	if err := s.session.Set(ctx, user, ""); err != nil {
		return nil, s.authError(op, domain.ErrProviderSignIn, err)
	}
	s.log.Info().Str("provider", provider).Str("email", user.Email).Msg("provider sign-in succeeded")
	return user.Clone(), nil
}

// SignOut ends the session, then signs out of the identity backend and returns
// its result.
func (s *AuthService) SignOut(ctx context.Context) error {
	s.endSession(ctx)
	if s.identity == nil {
		return nil
	}
	if err := s.identity.SignOut(ctx); err != nil {
		return fmt.Errorf("identity sign out: %w", err)
	}
	return nil
}

// Logout ends the session. It cannot fail.
func (s *AuthService) Logout(ctx context.Context) {
	s.endSession(ctx)
}

// ClearSession removes the persisted session without signalling or navigating.
func (s *AuthService) ClearSession(ctx context.Context) error {
	return s.session.Clear(ctx)
}

func (s *AuthService) endSession(ctx context.Context) {
	if err := s.session.Clear(ctx); err != nil {
		s.log.Warn().Err(err).Msg("clear persisted session")
	}
	if s.dispatch != nil {
		s.dispatch.Dispatch(domain.LogoutSuccess())
	}
	if err := s.nav.Navigate(ctx, domain.RouteLogin); err != nil {
		s.log.Warn().Err(err).Msg("navigate to login")
	}
	s.log.Info().Msg("session ended")
}

// ResetPassword asks the backend to send a reset email. The reply is returned as-is.
func (s *AuthService) ResetPassword(ctx context.Context, email string) (json.RawMessage, error) {
	raw, err := s.api.ResetPassword(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("reset password: %w", err)
	}
	return raw, nil
}

// normalize picks the user and token out of a decoded reply and fills in a
// missing role from the email the caller signed in with.
func (s *AuthService) normalize(res *domain.AuthResult, email string) (*domain.User, string) {
	user := res.User.Clone()
	if user == nil {
		user = &domain.User{}
	}
	if user.EffectiveRole() == "" {
		user.Role = domain.DefaultRoleFor(email)
	}
	return user, res.Token
}

func (s *AuthService) authError(op string, kind, cause error) error {
	return &domain.AuthError{Op: op, Kind: kind, Cause: cause, Detailed: s.detailedErrors}
}
