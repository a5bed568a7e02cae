package ports

import (
	"context"
	"encoding/json"

	"github.com/99minutos/console-auth/internal/core/domain"
)

// AuthAPI is the REST backend that owns credentials.
type AuthAPI interface {
	SignUp(ctx context.Context, email, firstName, password string) (*domain.AuthResult, error)
	SignIn(ctx context.Context, email, password string) (*domain.AuthResult, error)
	ResetPassword(ctx context.Context, email string) (json.RawMessage, error)
}
