package ports

import (
	"context"

	"github.com/99minutos/console-auth/internal/core/domain"
)

// Provider names understood by IdentityBackend.
const (
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
)

// IdentityBackend runs third-party sign-in flows and remembers who signed in.
type IdentityBackend interface {
	SignInWithPopup(ctx context.Context, provider string) (*domain.ProviderProfile, error)
	SignOut(ctx context.Context) error
	// AuthenticatedUser returns the last provider-authenticated user, or nil.
	AuthenticatedUser() *domain.User
}
