// Package navigation tracks which view the client is showing.
package navigation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Observer is told about every view change.
type Observer func(from, to string)

// Router implements ports.Navigator by recording the current view.
type Router struct {
	mu       sync.RWMutex
	current  string
	observer Observer
	log      zerolog.Logger
}

// NewRouter starts at initial and notifies observer, if non-nil, on changes.
func NewRouter(initial string, observer Observer, log zerolog.Logger) *Router {
	return &Router{current: initial, observer: observer, log: log}
}

func (r *Router) Navigate(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("navigate: path %q must be absolute", path)
	}

	r.mu.Lock()
	from := r.current
	r.current = path
	r.mu.Unlock()

	r.log.Info().Str("from", from).Str("to", path).Msg("navigated")
	if r.observer != nil {
		r.observer(from, path)
	}
	return nil
}

// Current returns the last view navigated to.
func (r *Router) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}
