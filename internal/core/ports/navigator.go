package ports

import (
	"context"

	"github.com/99minutos/console-auth/internal/core/domain"
)

// Navigator moves the user to a view.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// Dispatcher delivers actions to the store.
type Dispatcher interface {
	Dispatch(action domain.Action)
}
