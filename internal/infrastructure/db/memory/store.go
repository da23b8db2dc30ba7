// Package memory keeps users, categories and documents in process memory.
// It is used for local runs and end-to-end tests and enforces the same
// uniqueness and referential rules as the PostgreSQL schema.
package memory

import (
	"sync"

	"github.com/docvault/document-service/internal/core/domain"
)

// Store is the shared state behind the memory repositories.
type Store struct {
	mu sync.RWMutex

	users      map[int64]*domain.User
	categories map[int64]*domain.Category
	documents  map[int64]*domain.Document

	nextUserID     int64
	nextCategoryID int64
	nextDocumentID int64
}

func NewStore() *Store {
	return &Store{
		users:      make(map[int64]*domain.User),
		categories: make(map[int64]*domain.Category),
		documents:  make(map[int64]*domain.Document),
	}
}

// Users returns a ports.UserRepository over the store.
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

// Categories returns a ports.CategoryRepository over the store.
func (s *Store) Categories() *CategoryRepository { return &CategoryRepository{s: s} }

// Documents returns a ports.DocumentRepository over the store.
func (s *Store) Documents() *DocumentRepository { return &DocumentRepository{s: s} }

// countDocuments counts documents matching keep. Callers hold s.mu.
func (s *Store) countDocuments(keep func(*domain.Document) bool) int64 {
	var n int64
	for _, d := range s.documents {
		if keep(d) {
			n++
		}
	}
	return n
}
