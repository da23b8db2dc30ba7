package ports

import (
	"context"
	"io"

	"github.com/docvault/document-service/internal/core/domain"
)

// ListDocumentsInput carries the listing query as the caller sent it.
type ListDocumentsInput struct {
	CategoryID *int64
	OwnerID    *int64
	FileType   string
	Search     string
	Page       int
	PerPage    int
}

// ListDocumentsResult is a page of documents plus pagination data.
type ListDocumentsResult struct {
	Items      []*domain.Document
	Page       int
	PerPage    int
	Total      int64
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// UploadDocumentInput carries an upload. Content is consumed exactly once.
type UploadDocumentInput struct {
	Content     io.Reader
	Filename    string
	Title       string
	Description string
	CategoryID  *int64
	Tags        string
}

// UpdateDocumentInput carries a partial document update.
type UpdateDocumentInput struct {
	Title       *string
	Description *string
	SetCategory bool
	CategoryID  *int64
	SetTags     bool
	Tags        []string
}

// DownloadResult pairs a document with its open content. Callers close Content.
type DownloadResult struct {
	Document *domain.Document
	Content  io.ReadCloser
}

// StatsResult summarizes what the caller can see.
type StatsResult struct {
	TotalDocuments     int64  `json:"total_documents"`
	TotalSize          int64  `json:"total_size"`
	TotalSizeFormatted string `json:"total_size_formatted"`
	TotalUsers         int64  `json:"total_users"`
	TotalCategories    int64  `json:"total_categories"`
}

type DocumentService interface {
	List(ctx context.Context, caller *domain.User, in ListDocumentsInput) (*ListDocumentsResult, error)
	Upload(ctx context.Context, caller *domain.User, in UploadDocumentInput) (*domain.Document, error)
	Get(ctx context.Context, caller *domain.User, id int64) (*domain.Document, error)
	Download(ctx context.Context, caller *domain.User, id int64) (*DownloadResult, error)
	Update(ctx context.Context, caller *domain.User, id int64, in UpdateDocumentInput) (*domain.Document, error)
	Delete(ctx context.Context, caller *domain.User, id int64) error
	Stats(ctx context.Context, caller *domain.User) (*StatsResult, error)
	Activity(ctx context.Context, caller *domain.User, id int64) ([]*domain.DocumentEvent, error)
}
