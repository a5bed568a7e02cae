package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/99minutos/console-auth/internal/core/domain"
	"github.com/99minutos/console-auth/internal/pkg/metrics"
)

// Backend implements ports.IdentityBackend over a set of providers and
// remembers the last successful sign-in.
type Backend struct {
	providers map[string]*Provider
	log       zerolog.Logger

	mu       sync.Mutex
	profile  *domain.ProviderProfile
	token    *oauth2.Token
	provider *Provider
}

func NewBackend(log zerolog.Logger, providers ...*Provider) *Backend {
	b := &Backend{providers: make(map[string]*Provider, len(providers)), log: log}
	for _, p := range providers {
		b.providers[p.Name()] = p
	}
	return b
}

func (b *Backend) SignInWithPopup(ctx context.Context, name string) (*domain.ProviderProfile, error) {
	p, ok := b.providers[name]
	if !ok {
		metrics.ProviderSignInsTotal.WithLabelValues(name, "error").Inc()
		return nil, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, name)
	}

	profile, tok, err := p.SignIn(ctx)
	if err != nil {
		metrics.ProviderSignInsTotal.WithLabelValues(name, "error").Inc()
		return nil, fmt.Errorf("%s sign-in: %w", name, err)
	}
	metrics.ProviderSignInsTotal.WithLabelValues(name, "ok").Inc()

	b.mu.Lock()
	b.profile = profile
	b.token = tok
	b.provider = p
	b.mu.Unlock()

	b.log.Info().Str("provider", name).Str("subject", profile.Subject).Msg("provider sign-in completed")
	return profile, nil
}

// SignOut forgets the cached sign-in and revokes its token where supported.
func (b *Backend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	p, tok := b.provider, b.token
	b.profile, b.token, b.provider = nil, nil, nil
	b.mu.Unlock()

	if p == nil {
		return nil
	}
	return p.Revoke(ctx, tok)
}

func (b *Backend) AuthenticatedUser() *domain.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.profile == nil {
		return nil
	}
	return &domain.User{
		ID:        b.profile.Subject,
		Email:     b.profile.Email,
		FirstName: b.profile.DisplayName,
		Role:      domain.RoleUser,
	}
}
