package ports

import (
	"context"

	"github.com/docvault/document-service/internal/core/domain"
)

// ActivityRepository stores the append-only activity trail of documents.
type ActivityRepository interface {
	// InsertEvent appends an event to the trail.
	InsertEvent(ctx context.Context, event *domain.DocumentEvent) error
	// ListByDocument returns up to limit events for a document, newest first.
	ListByDocument(ctx context.Context, documentID int64, limit int) ([]*domain.DocumentEvent, error)
}
