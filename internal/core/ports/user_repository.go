package ports

import (
	"context"

	"github.com/docvault/document-service/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	// Create stores a new user and assigns its role atomically: the first user
	// ever stored becomes admin, every later one a regular user. Duplicate
	// usernames or emails fail with domain.ErrUsernameTaken / ErrEmailTaken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByLogin looks a user up by username or email.
	FindByLogin(ctx context.Context, login string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// Delete removes the user together with its documents and tags, and
	// returns the storage paths of the removed documents.
	Delete(ctx context.Context, id int64) ([]string, error)
	Count(ctx context.Context) (int64, error)
}
