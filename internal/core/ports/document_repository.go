package ports

import (
	"context"

	"github.com/docvault/document-service/internal/core/domain"
)

// ListDocumentsFilter carries the query parameters for listing documents.
// OwnerID is always enforced by the service layer.
type ListDocumentsFilter struct {
	OwnerID    *int64 // nil = every owner (admin only)
	CategoryID *int64
	FileType   string
	Search     string // case-insensitive substring of title or description
	Page       int    // 1-based
	PerPage    int    // 0 = no limit
}

// DocumentPatch lists the fields an update touches. Nil pointers and unset
// flags leave the stored value alone.
type DocumentPatch struct {
	Title       *string
	Description *string
	SetCategory bool
	CategoryID  *int64
	SetTags     bool
	Tags        []string
}

// DocumentStats aggregates document count and stored bytes.
type DocumentStats struct {
	Documents int64
	Bytes     int64
}

// DocumentRepository defines persistence operations for document metadata.
type DocumentRepository interface {
	// Create inserts the document row and its tags in one transaction.
	Create(ctx context.Context, doc *domain.Document) (*domain.Document, error)
	// FindByID returns the document with owner name, category and tags.
	FindByID(ctx context.Context, id int64) (*domain.Document, error)
	// List returns a page of documents, newest first, and the total count.
	List(ctx context.Context, filter ListDocumentsFilter) ([]*domain.Document, int64, error)
	// Update applies patch in one transaction; tags are replaced wholesale.
	Update(ctx context.Context, id int64, patch DocumentPatch) error
	// Delete removes the row; tags go with it.
	Delete(ctx context.Context, id int64) error
	// Stats aggregates all documents, or only ownerID's when non-nil.
	Stats(ctx context.Context, ownerID *int64) (DocumentStats, error)
}
