package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/docvault/document-service/internal/core/access"
	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/core/ports"
)

const (
	defaultPerPage   = 10
	maxPerPage       = 100
	activityPageSize = 50
)

// DefaultAllowedExtensions is the upload allow-list used when none is configured.
var DefaultAllowedExtensions = []string{"pdf", "doc", "docx", "txt", "png", "jpg", "jpeg", "gif", "xlsx", "xls", "ppt", "pptx"}

type DocumentService struct {
	documents  ports.DocumentRepository
	categories ports.CategoryRepository
	users      ports.UserRepository
	blobs      ports.BlobStore
	activity   ports.ActivityRepository
	log        zerolog.Logger

	allowed     map[string]struct{}
	allowedList string
	now         func() time.Time
	blobName    func(ext string) string
}

func NewDocumentService(
	documents ports.DocumentRepository,
	categories ports.CategoryRepository,
	users ports.UserRepository,
	blobs ports.BlobStore,
	activity ports.ActivityRepository,
	allowedExtensions []string,
	log zerolog.Logger,
) *DocumentService {
	if len(allowedExtensions) == 0 {
		allowedExtensions = DefaultAllowedExtensions
	}
	allowed := make(map[string]struct{}, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			allowed[ext] = struct{}{}
		}
	}
	names := make([]string, 0, len(allowed))
	for ext := range allowed {
		names = append(names, ext)
	}
	sort.Strings(names)

	if activity == nil {
		activity = noopActivity{}
	}

	return &DocumentService{
		documents:   documents,
		categories:  categories,
		users:       users,
		blobs:       blobs,
		activity:    activity,
		log:         log,
		allowed:     allowed,
		allowedList: strings.Join(names, ", "),
		now:         time.Now,
		blobName:    randomBlobName,
	}
}

func randomBlobName(ext string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + "." + ext
}

func (s *DocumentService) List(ctx context.Context, caller *domain.User, in ports.ListDocumentsInput) (*ports.ListDocumentsResult, error) {
	if caller == nil {
		return nil, domain.ErrTokenMissing
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	perPage := in.PerPage
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	// keeps (page-1)*perPage inside int for any requested page
	if last := math.MaxInt / perPage; page > last {
		page = last
	}

	items, total, err := s.documents.List(ctx, ports.ListDocumentsFilter{
		OwnerID:    access.OwnerScope(caller, in.OwnerID),
		CategoryID: in.CategoryID,
		FileType:   strings.ToLower(strings.TrimSpace(in.FileType)),
		Search:     strings.TrimSpace(in.Search),
		Page:       page,
		PerPage:    perPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	pages := int(math.Ceil(float64(total) / float64(perPage)))
	return &ports.ListDocumentsResult{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}, nil
}

// Upload stores the blob first and the metadata second. If the metadata
// cannot be committed the blob is removed again.
func (s *DocumentService) Upload(ctx context.Context, caller *domain.User, in ports.UploadDocumentInput) (*domain.Document, error) {
	if caller == nil {
		return nil, domain.ErrTokenMissing
	}
	if in.Content == nil {
		return nil, domain.Errorf(domain.ErrValidation, "no file provided")
	}
	if in.Filename == "" {
		return nil, domain.Errorf(domain.ErrValidation, "no file selected")
	}

	stem, ext, ok := domain.SplitExtension(in.Filename)
	if !ok {
		return nil, domain.Errorf(domain.ErrValidation, "file must have an extension")
	}
	if _, allowed := s.allowed[ext]; !allowed {
		return nil, domain.Errorf(domain.ErrValidation, "file type not allowed. Allowed types: %s", s.allowedList)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = stem
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return nil, domain.Errorf(domain.ErrValidation, "title must be at most %d characters long", domain.MaxTitleLength)
	}

	var category *domain.Category
	if in.CategoryID != nil {
		c, err := s.lookupCategory(ctx, *in.CategoryID)
		if err != nil {
			return nil, err
		}
		category = c
	}

	filename := domain.SanitizeFilename(in.Filename)
	if _, _, ok := domain.SplitExtension(filename); !ok || strings.HasPrefix(filename, ".") {
		filename = "document." + ext
	}
	if utf8.RuneCountInString(filename) > domain.MaxFilenameLength {
		return nil, domain.Errorf(domain.ErrValidation, "filename must be at most %d characters long", domain.MaxFilenameLength)
	}

	blobName := s.blobName(ext)
	size, err := s.blobs.Put(ctx, blobName, in.Content)
	if err != nil {
		s.discardBlob(ctx, blobName)
		if errors.Is(err, domain.ErrTooLarge) {
			return nil, err
		}
		return nil, fmt.Errorf("upload document: store blob: %w", err)
	}

	doc := &domain.Document{
		Title:       title,
		Filename:    filename,
		StoragePath: blobName,
		FileSize:    size,
		FileType:    ext,
		Description: strings.TrimSpace(in.Description),
		UploadedAt:  s.now().UTC(),
		OwnerID:     caller.ID,
		OwnerName:   caller.Username,
		CategoryID:  in.CategoryID,
		Tags:        domain.ParseTags(in.Tags),
	}
	if category != nil {
		doc.Category = &domain.CategoryRef{ID: category.ID, Name: category.Name, Color: category.Color}
	}

	created, err := s.documents.Create(ctx, doc)
	if err != nil {
		s.discardBlob(ctx, blobName)
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, domain.ErrInvalidCategory
		}
		return nil, fmt.Errorf("upload document: %w", err)
	}

	s.record(ctx, caller, created.ID, domain.ActionUploaded, created.Filename)
	s.log.Info().
		Int64("document_id", created.ID).
		Int64("user_id", caller.ID).
		Str("file_type", ext).
		Int64("size", size).
		Msg("document uploaded")

	return created, nil
}

func (s *DocumentService) Get(ctx context.Context, caller *domain.User, id int64) (*domain.Document, error) {
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwnerOrAdmin(caller, doc.OwnerID); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) Download(ctx context.Context, caller *domain.User, id int64) (*ports.DownloadResult, error) {
	doc, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	content, err := s.blobs.Open(ctx, doc.StoragePath)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.log.Warn().Int64("document_id", id).Str("blob", doc.StoragePath).Msg("blob missing for document")
			return nil, domain.ErrBlobNotFound
		}
		return nil, fmt.Errorf("download document: %w", err)
	}

	s.record(ctx, caller, doc.ID, domain.ActionDownloaded, "")
	return &ports.DownloadResult{Document: doc, Content: content}, nil
}

// Update applies every present field independently and replaces tags
// wholesale when they are given.
func (s *DocumentService) Update(ctx context.Context, caller *domain.User, id int64, in ports.UpdateDocumentInput) (*domain.Document, error) {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return nil, err
	}

	var patch ports.DocumentPatch
	var changed []string

	if in.Title != nil {
		if title := strings.TrimSpace(*in.Title); title != "" {
			if utf8.RuneCountInString(title) > domain.MaxTitleLength {
				return nil, domain.Errorf(domain.ErrValidation, "title must be at most %d characters long", domain.MaxTitleLength)
			}
			patch.Title = &title
			changed = append(changed, "title")
		}
	}
	if in.Description != nil {
		desc := strings.TrimSpace(*in.Description)
		patch.Description = &desc
		changed = append(changed, "description")
	}
	if in.SetCategory {
		patch.SetCategory = true
		if in.CategoryID != nil {
			if _, err := s.lookupCategory(ctx, *in.CategoryID); err != nil {
				return nil, err
			}
			patch.CategoryID = in.CategoryID
		}
		changed = append(changed, "category")
	}
	if in.SetTags {
		patch.SetTags = true
		patch.Tags = domain.NormalizeTags(in.Tags)
		changed = append(changed, "tags")
	}

	if err := s.documents.Update(ctx, id, patch); err != nil {
		if errors.Is(err, domain.ErrCategoryNotFound) {
			return nil, domain.ErrInvalidCategory
		}
		return nil, fmt.Errorf("update document: %w", err)
	}

	updated, err := s.documents.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("update document: reload: %w", err)
	}

	s.record(ctx, caller, id, domain.ActionUpdated, strings.Join(changed, ","))
	return updated, nil
}

// Delete removes the blob before the row. A blob that is already gone is fine.
func (s *DocumentService) Delete(ctx context.Context, caller *domain.User, id int64) error {
	doc, err := s.Get(ctx, caller, id)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete document: remove blob: %w", err)
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	s.record(ctx, caller, id, domain.ActionDeleted, doc.Filename)
	s.log.Info().Int64("document_id", id).Int64("by", caller.ID).Msg("document deleted")
	return nil
}

// Stats reports global figures to admins and the caller's own figures to
// everyone else. The category count is always global.
func (s *DocumentService) Stats(ctx context.Context, caller *domain.User) (*ports.StatsResult, error) {
	if caller == nil {
		return nil, domain.ErrTokenMissing
	}

	var (
		owner *int64
		users int64 = 1
		err   error
	)
	if caller.IsAdmin() {
		if users, err = s.users.Count(ctx); err != nil {
			return nil, fmt.Errorf("stats: count users: %w", err)
		}
	} else {
		owner = &caller.ID
	}

	agg, err := s.documents.Stats(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	categories, err := s.categories.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: count categories: %w", err)
	}

	return &ports.StatsResult{
		TotalDocuments:     agg.Documents,
		TotalSize:          agg.Bytes,
		TotalSizeFormatted: domain.FormatSize(agg.Bytes),
		TotalUsers:         users,
		TotalCategories:    categories,
	}, nil
}

func (s *DocumentService) Activity(ctx context.Context, caller *domain.User, id int64) ([]*domain.DocumentEvent, error) {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return nil, err
	}
	events, err := s.activity.ListByDocument(ctx, id, activityPageSize)
	if err != nil {
		return nil, fmt.Errorf("document activity: %w", err)
	}
	return events, nil
}

func (s *DocumentService) lookupCategory(ctx context.Context, id int64) (*domain.Category, error) {
	c, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCategory
		}
		return nil, fmt.Errorf("lookup category: %w", err)
	}
	return c, nil
}

func (s *DocumentService) discardBlob(ctx context.Context, name string) {
	// the request context may already be cancelled
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err := s.blobs.Delete(cleanupCtx, name); err != nil {
		s.log.Error().Err(err).Str("blob", name).Msg("failed to remove orphaned blob")
	}
}

// record appends to the activity trail. Failures are logged only.
func (s *DocumentService) record(ctx context.Context, caller *domain.User, documentID int64, action domain.DocumentAction, details string) {
	event := &domain.DocumentEvent{
		DocumentID: documentID,
		Action:     action,
		ActorID:    caller.ID,
		ActorName:  caller.Username,
		Timestamp:  s.now().UTC(),
		Details:    details,
	}
	if err := s.activity.InsertEvent(ctx, event); err != nil {
		s.log.Warn().Err(err).Int64("document_id", documentID).Str("action", string(action)).Msg("failed to record document activity")
	}
}

type noopActivity struct{}

func (noopActivity) InsertEvent(context.Context, *domain.DocumentEvent) error { return nil }

func (noopActivity) ListByDocument(context.Context, int64, int) ([]*domain.DocumentEvent, error) {
	return []*domain.DocumentEvent{}, nil
}
