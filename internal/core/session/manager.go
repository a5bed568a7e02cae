// Package session owns the persisted session: the serialized current user, the
// raw bearer token, and the in-memory holder observers subscribe to. Every
// write to the two persisted keys goes through Manager.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/console-auth/internal/core/domain"
	"github.com/99minutos/console-auth/internal/core/ports"
)

// Manager is the single writer of the persisted session keys.
type Manager struct {
	mu      sync.Mutex
	store   ports.KeyValueStore
	current *domain.User
	subs    map[int]chan *domain.User
	nextSub int
	log     zerolog.Logger
}

// NewManager loads the persisted user. A missing or unreadable record yields an
// empty session; the failure is logged, not returned.
func NewManager(ctx context.Context, store ports.KeyValueStore, log zerolog.Logger) *Manager {
	m := &Manager{
		store: store,
		subs:  make(map[int]chan *domain.User),
		log:   log,
	}
	m.current = m.load(ctx)
	return m
}

func (m *Manager) load(ctx context.Context) *domain.User {
	raw, ok, err := m.store.Get(ctx, domain.KeyCurrentUser)
	if err != nil {
		m.log.Warn().Err(err).Msg("read persisted session")
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		m.log.Warn().Err(err).Msg("persisted session is malformed, starting empty")
		return nil
	}
	return &u
}

// Current returns a copy of the held user, or nil when signed out.
func (m *Manager) Current() *domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

// Token returns the persisted standalone token, or "".
func (m *Manager) Token(ctx context.Context) string {
	tok, _, err := m.store.Get(ctx, domain.KeyToken)
	if err != nil {
		m.log.Warn().Err(err).Msg("read persisted token")
		return ""
	}
	return tok
}

// Set persists user and, when non-empty, token, then publishes user.
func (m *Manager) Set(ctx context.Context, user *domain.User, token string) error {
	if user == nil {
		return m.Clear(ctx)
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Set(ctx, domain.KeyCurrentUser, string(raw)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if token != "" {
		if err := m.store.Set(ctx, domain.KeyToken, token); err != nil {
			return fmt.Errorf("persist token: %w", err)
		}
	}
	m.current = user.Clone()
	m.publishLocked()
	return nil
}

// Clear removes both persisted keys and publishes an empty session. The holder
// is reset even if the store fails.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.store.Delete(ctx, domain.KeyCurrentUser, domain.KeyToken)
	m.current = nil
	m.publishLocked()
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Subscribe returns a channel that first receives the current user and then
// every change. A slow reader only ever sees the latest value.
func (m *Manager) Subscribe() (<-chan *domain.User, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan *domain.User, 1)
	ch <- m.current.Clone()
	m.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (m *Manager) publishLocked() {
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		ch <- m.current.Clone()
	}
}
