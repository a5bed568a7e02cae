package ports

import (
	"context"
	"encoding/json"

	"github.com/99minutos/console-auth/internal/core/domain"
)

type AuthService interface {
	IsLoggedIn() bool
	IsAdmin() bool
	IsUser() bool
	CurrentUser() *domain.User
	Token(ctx context.Context) string

	Register(ctx context.Context, email, firstName, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	SignInWithGoogle(ctx context.Context) (*domain.User, error)
	SignInWithFacebook(ctx context.Context) (*domain.User, error)
	ResetPassword(ctx context.Context, email string) (json.RawMessage, error)

	SignOut(ctx context.Context) error
	Logout(ctx context.Context)
	ClearSession(ctx context.Context) error
}
