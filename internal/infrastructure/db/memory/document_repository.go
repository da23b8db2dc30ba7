package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/core/ports"
)

type DocumentRepository struct {
	s *Store
}

var _ ports.DocumentRepository = (*DocumentRepository)(nil)

func (r *DocumentRepository) Create(_ context.Context, doc *domain.Document) (*domain.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[doc.OwnerID]; !ok {
		return nil, domain.ErrUserNotFound
	}
	if doc.CategoryID != nil {
		if _, ok := r.s.categories[*doc.CategoryID]; !ok {
			return nil, domain.ErrCategoryNotFound
		}
	}

	stored := *doc
	r.s.nextDocumentID++
	stored.ID = r.s.nextDocumentID
	stored.CategoryID = copyID(doc.CategoryID)
	stored.Tags = append([]string{}, doc.Tags...)
	r.s.documents[stored.ID] = &stored

	return r.s.documentView(&stored), nil
}

func (r *DocumentRepository) FindByID(_ context.Context, id int64) (*domain.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	d, ok := r.s.documents[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return r.s.documentView(d), nil
}

func (r *DocumentRepository) List(_ context.Context, filter ports.ListDocumentsFilter) ([]*domain.Document, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	matched := make([]*domain.Document, 0)
	for _, d := range r.s.documents {
		if filter.OwnerID != nil && d.OwnerID != *filter.OwnerID {
			continue
		}
		if filter.CategoryID != nil && (d.CategoryID == nil || *d.CategoryID != *filter.CategoryID) {
			continue
		}
		if filter.FileType != "" && d.FileType != filter.FileType {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(d.Title), search) &&
			!strings.Contains(strings.ToLower(d.Description), search) {
			continue
		}
		matched = append(matched, d)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.UploadedAt.Equal(b.UploadedAt) {
			return a.UploadedAt.After(b.UploadedAt)
		}
		return a.ID > b.ID
	})

	total := int64(len(matched))
	if filter.PerPage > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := len(matched)
		if page-1 <= len(matched)/filter.PerPage {
			start = min((page-1)*filter.PerPage, len(matched))
		}
		end := start + filter.PerPage
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}

	out := make([]*domain.Document, 0, len(matched))
	for _, d := range matched {
		out = append(out, r.s.documentView(d))
	}
	return out, total, nil
}

func (r *DocumentRepository) Update(_ context.Context, id int64, patch ports.DocumentPatch) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.documents[id]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	if patch.SetCategory && patch.CategoryID != nil {
		if _, ok := r.s.categories[*patch.CategoryID]; !ok {
			return domain.ErrCategoryNotFound
		}
	}

	if patch.Title != nil {
		d.Title = *patch.Title
	}
	if patch.Description != nil {
		d.Description = *patch.Description
	}
	if patch.SetCategory {
		d.CategoryID = copyID(patch.CategoryID)
	}
	if patch.SetTags {
		d.Tags = append([]string{}, patch.Tags...)
	}
	return nil
}

func (r *DocumentRepository) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.documents[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(r.s.documents, id)
	return nil
}

func (r *DocumentRepository) Stats(_ context.Context, ownerID *int64) (ports.DocumentStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var st ports.DocumentStats
	for _, d := range r.s.documents {
		if ownerID != nil && d.OwnerID != *ownerID {
			continue
		}
		st.Documents++
		st.Bytes += d.FileSize
	}
	return st, nil
}

// documentView copies d and joins owner name and category. Callers hold s.mu.
func (s *Store) documentView(d *domain.Document) *domain.Document {
	out := *d
	out.CategoryID = copyID(d.CategoryID)
	out.Category = nil
	out.Tags = append([]string{}, d.Tags...)
	if u, ok := s.users[d.OwnerID]; ok {
		out.OwnerName = u.Username
	}
	if d.CategoryID != nil {
		if c, ok := s.categories[*d.CategoryID]; ok {
			out.Category = &domain.CategoryRef{ID: c.ID, Name: c.Name, Color: c.Color}
		}
	}
	return &out
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
