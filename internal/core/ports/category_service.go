package ports

import (
	"context"

	"github.com/docvault/document-service/internal/core/domain"
)

// CreateCategoryInput carries the fields of a new category.
type CreateCategoryInput struct {
	Name        string
	Description string
	Color       string
}

// UpdateCategoryInput carries a partial category update; nil fields are untouched.
type UpdateCategoryInput struct {
	Name        *string
	Description *string
	Color       *string
}

type CategoryService interface {
	List(ctx context.Context) ([]*domain.Category, error)
	Create(ctx context.Context, caller *domain.User, in CreateCategoryInput) (*domain.Category, error)
	Update(ctx context.Context, caller *domain.User, id int64, in UpdateCategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, caller *domain.User, id int64) error
	// Documents returns a category and the documents in it visible to caller.
	Documents(ctx context.Context, caller *domain.User, id int64) (*domain.Category, []*domain.Document, error)
}
