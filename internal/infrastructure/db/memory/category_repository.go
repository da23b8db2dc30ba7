package memory

import (
	"context"
	"sort"

	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/core/ports"
)

type CategoryRepository struct {
	s *Store
}

var _ ports.CategoryRepository = (*CategoryRepository)(nil)

func (r *CategoryRepository) List(_ context.Context) ([]*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*domain.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		out = append(out, r.s.categoryView(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CategoryRepository) FindByID(_ context.Context, id int64) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.categories[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	return r.s.categoryView(c), nil
}

func (r *CategoryRepository) Create(_ context.Context, c *domain.Category) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.categoryNameTaken(c.Name, 0) {
		return nil, domain.ErrCategoryExists
	}
	stored := *c
	r.s.nextCategoryID++
	stored.ID = r.s.nextCategoryID
	stored.DocumentsCount = 0
	r.s.categories[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *CategoryRepository) Update(_ context.Context, c *domain.Category) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.categories[c.ID]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	if r.s.categoryNameTaken(c.Name, c.ID) {
		return nil, domain.ErrCategoryExists
	}
	stored.Name = c.Name
	stored.Description = c.Description
	stored.Color = c.Color
	return r.s.categoryView(stored), nil
}

func (r *CategoryRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.categories[id]; !ok {
		return domain.ErrCategoryNotFound
	}
	if n := r.s.categoryDocuments(id); n > 0 {
		return &domain.CategoryNotEmptyError{Count: n}
	}
	delete(r.s.categories, id)
	return nil
}

func (r *CategoryRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.categories)), nil
}

func (s *Store) categoryNameTaken(name string, except int64) bool {
	for _, c := range s.categories {
		if c.ID != except && c.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) categoryDocuments(id int64) int64 {
	return s.countDocuments(func(d *domain.Document) bool {
		return d.CategoryID != nil && *d.CategoryID == id
	})
}

func (s *Store) categoryView(c *domain.Category) *domain.Category {
	out := *c
	out.DocumentsCount = s.categoryDocuments(c.ID)
	return &out
}
