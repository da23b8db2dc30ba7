package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/docvault/document-service/internal/core/access"
	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/core/ports"
)

const maxCategoryNameLength = 100

type CategoryService struct {
	categories ports.CategoryRepository
	documents  ports.DocumentRepository
	log        zerolog.Logger
	now        func() time.Time
}

func NewCategoryService(categories ports.CategoryRepository, documents ports.DocumentRepository, log zerolog.Logger) *CategoryService {
	return &CategoryService{
		categories: categories,
		documents:  documents,
		log:        log,
		now:        time.Now,
	}
}

func (s *CategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

// Create stores a new category. A missing or malformed color falls back to
// domain.DefaultCategoryColor.
func (s *CategoryService) Create(ctx context.Context, caller *domain.User, in ports.CreateCategoryInput) (*domain.Category, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Errorf(domain.ErrValidation, "category name is required")
	}
	if utf8.RuneCountInString(name) > maxCategoryNameLength {
		return nil, domain.Errorf(domain.ErrValidation, "category name must be at most %d characters long", maxCategoryNameLength)
	}

	color := strings.TrimSpace(in.Color)
	if !domain.ValidColor(color) {
		color = domain.DefaultCategoryColor
	}

	created, err := s.categories.Create(ctx, &domain.Category{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Color:       color,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.log.Info().Int64("category_id", created.ID).Str("name", created.Name).Msg("category created")
	return created, nil
}

// Update applies a partial update. An empty or unchanged name is ignored, as
// is a malformed color.
func (s *CategoryService) Update(ctx context.Context, caller *domain.User, id int64, in ports.UpdateCategoryInput) (*domain.Category, error) {
	if err := access.RequireAdmin(caller); err != nil {
		return nil, err
	}

	cat, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if utf8.RuneCountInString(name) > maxCategoryNameLength {
			return nil, domain.Errorf(domain.ErrValidation, "category name must be at most %d characters long", maxCategoryNameLength)
		}
		if name != "" {
			cat.Name = name
		}
	}
	if in.Description != nil {
		cat.Description = strings.TrimSpace(*in.Description)
	}
	if in.Color != nil {
		if color := strings.TrimSpace(*in.Color); domain.ValidColor(color) {
			cat.Color = color
		}
	}

	updated, err := s.categories.Update(ctx, cat)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return updated, nil
}

func (s *CategoryService) Delete(ctx context.Context, caller *domain.User, id int64) error {
	if err := access.RequireAdmin(caller); err != nil {
		return err
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		var notEmpty *domain.CategoryNotEmptyError
		if errors.As(err, &notEmpty) {
			s.log.Debug().Int64("category_id", id).Int64("documents", notEmpty.Count).Msg("refused to delete non-empty category")
		}
		return fmt.Errorf("delete category: %w", err)
	}

	s.log.Info().Int64("category_id", id).Msg("category deleted")
	return nil
}

// Documents lists the documents of a category. Non-admins only see their own.
func (s *CategoryService) Documents(ctx context.Context, caller *domain.User, id int64) (*domain.Category, []*domain.Document, error) {
	if caller == nil {
		return nil, nil, domain.ErrTokenMissing
	}

	cat, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	docs, _, err := s.documents.List(ctx, ports.ListDocumentsFilter{
		OwnerID:    access.OwnerScope(caller, nil),
		CategoryID: &cat.ID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("category documents: %w", err)
	}
	return cat, docs, nil
}

// SeedDefaults creates the default categories that do not exist yet.
func (s *CategoryService) SeedDefaults(ctx context.Context) error {
	for _, c := range domain.DefaultCategories {
		c.CreatedAt = s.now().UTC()
		if _, err := s.categories.Create(ctx, &c); err != nil {
			if errors.Is(err, domain.ErrCategoryExists) {
				continue
			}
			return fmt.Errorf("seed categories: %w", err)
		}
		s.log.Info().Str("name", c.Name).Msg("default category seeded")
	}
	return nil
}
