// Package store holds the authentication state and fans dispatched actions out
// to listeners (the effects runner) and subscribers.
package store

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/console-auth/internal/core/domain"
	"github.com/99minutos/console-auth/internal/pkg/metrics"
)

const subscriberBuffer = 32

// Listener is called synchronously for every dispatched action, after the
// state has been reduced. It must not block.
type Listener func(domain.Action)

// Store implements ports.Dispatcher.
type Store struct {
	mu        sync.Mutex
	state     domain.AuthState
	listeners []Listener
	subs      map[int]chan domain.Action
	nextSub   int
	log       zerolog.Logger
}

func New(log zerolog.Logger) *Store {
	return &Store{
		state: domain.AuthState{Status: domain.StatusIdle},
		subs:  make(map[int]chan domain.Action),
		log:   log,
	}
}

// AddListener registers l for every future action.
func (s *Store) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Dispatch reduces action into the state and delivers it.
func (s *Store) Dispatch(action domain.Action) {
	if action.ID == "" {
		action.ID = uuid.NewString()
	}

	s.mu.Lock()
	s.state = Reduce(s.state, action)
	listeners := slices.Clone(s.listeners)
	for id, ch := range s.subs {
		select {
		case ch <- action:
		default:
			s.log.Warn().Int("subscriber", id).Str("action", string(action.Type)).Msg("subscriber full, action not delivered")
		}
	}
	s.mu.Unlock()

	metrics.ActionsDispatchedTotal.WithLabelValues(string(action.Type)).Inc()
	s.log.Debug().Str("action", string(action.Type)).Str("action_id", action.ID).Msg("action dispatched")

	for _, l := range listeners {
		l(action)
	}
}

// State returns a copy of the current state.
func (s *Store) State() domain.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.User = st.User.Clone()
	return st
}

// Subscribe returns a channel receiving every action dispatched after the call.
func (s *Store) Subscribe() (<-chan domain.Action, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan domain.Action, subscriberBuffer)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Await dispatches action and waits for the first action whose type is in
// until. When the trigger is dropped because the same effect is in flight, the
// in-flight attempt's outcome is returned.
func (s *Store) Await(ctx context.Context, action domain.Action, until ...domain.ActionType) (domain.Action, error) {
	ch, cancel := s.Subscribe()
	defer cancel()

	s.Dispatch(action)

	for {
		select {
		case <-ctx.Done():
			return domain.Action{}, ctx.Err()
		case a, ok := <-ch:
			if !ok {
				return domain.Action{}, context.Canceled
			}
			if slices.Contains(until, a.Type) {
				return a, nil
			}
		}
	}
}

// Reduce folds one action into the state.
func Reduce(st domain.AuthState, a domain.Action) domain.AuthState {
	switch a.Type {
	case domain.ActionLogin, domain.ActionRegister,
		domain.ActionSignInWithGoogle, domain.ActionSignInWithFacebook:
		st.Status = domain.StatusRequested
		st.Error = ""
	case domain.ActionLoginSuccess, domain.ActionRegisterSuccess:
		st.Status = domain.StatusSucceeded
		st.User = a.User.Clone()
		st.Error = ""
	case domain.ActionLoginFailure, domain.ActionRegisterFailure:
		st.Status = domain.StatusFailed
		st.User = nil
		if a.Err != nil {
			st.Error = a.Err.Error()
		}
	case domain.ActionLogoutSuccess:
		st = domain.AuthState{Status: domain.StatusIdle}
	}
	return st
}
