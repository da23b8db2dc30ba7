package ports

import (
	"context"

	"github.com/docvault/document-service/internal/core/domain"
)

// AuthResult is returned by registration and login.
type AuthResult struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*AuthResult, error)
	Login(ctx context.Context, login, password string) (*AuthResult, error)
	// ResolveIdentity verifies a bearer token and loads the user it names.
	ResolveIdentity(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
	Profile(ctx context.Context, caller *domain.User) (*domain.User, error)
	ListUsers(ctx context.Context, caller *domain.User) ([]*domain.User, error)
	DeleteUser(ctx context.Context, caller *domain.User, id int64) error
}
