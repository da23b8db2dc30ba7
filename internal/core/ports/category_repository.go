package ports

import (
	"context"

	"github.com/docvault/document-service/internal/core/domain"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	// List returns every category with its document count, oldest first.
	List(ctx context.Context) ([]*domain.Category, error)
	FindByID(ctx context.Context, id int64) (*domain.Category, error)
	// Create fails with domain.ErrCategoryExists on a duplicate name.
	Create(ctx context.Context, c *domain.Category) (*domain.Category, error)
	// Update rewrites name, description and color of an existing category.
	Update(ctx context.Context, c *domain.Category) (*domain.Category, error)
	// Delete fails with *domain.CategoryNotEmptyError while documents still
	// reference the category.
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int64, error)
}
