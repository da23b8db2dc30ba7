package service

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/core/ports"
)

func uploadInput(filename, content string) ports.UploadDocumentInput {
	return ports.UploadDocumentInput{Content: strings.NewReader(content), Filename: filename}
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(s string) *string { return &s }

func TestDocumentService_Upload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "alice")
	work, err := f.categories.Create(ctx, admin, ports.CreateCategoryInput{Name: "Work"})
	if err != nil {
		t.Fatal(err)
	}

	in := uploadInput("report.pdf", strings.Repeat("x", 1536))
	in.CategoryID = &work.ID
	in.Tags = " q1, draft ,,"
	in.Description = "  quarterly  "

	doc, err := f.documents.Upload(ctx, admin, in)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if doc.Title != "report" {
		t.Errorf("title = %q, want the filename stem", doc.Title)
	}
	if doc.Filename != "report.pdf" || doc.FileType != "pdf" || doc.FileSize != 1536 {
		t.Errorf("unexpected file fields: %+v", doc)
	}
	if doc.Description != "quarterly" {
		t.Errorf("description = %q", doc.Description)
	}
	if strings.Join(doc.Tags, "|") != "q1|draft" {
		t.Errorf("tags = %v", doc.Tags)
	}
	if doc.Category == nil || doc.Category.Name != "Work" {
		t.Errorf("category = %+v", doc.Category)
	}
	if doc.OwnerName != "alice" {
		t.Errorf("owner = %q", doc.OwnerName)
	}
	if !strings.HasSuffix(doc.StoragePath, ".pdf") || strings.Contains(doc.StoragePath, "report") {
		t.Errorf("storage path %q should be a random name with the extension", doc.StoragePath)
	}
	if f.blobCount(t) != 1 {
		t.Errorf("expected one stored blob")
	}
	if got := f.activity.actions(); len(got) != 1 || got[0] != domain.ActionUploaded {
		t.Errorf("activity = %v", got)
	}
}

func TestDocumentService_Upload_SanitizesFilename(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "alice")

	doc, err := f.documents.Upload(context.Background(), u, uploadInput("Résumé final (v2).PDF", "x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if doc.Filename != "Resume-final-v2.PDF" {
		t.Errorf("filename = %q", doc.Filename)
	}
	if doc.FileType != "pdf" {
		t.Errorf("file type = %q", doc.FileType)
	}
	if doc.Title != "Résumé final (v2)" {
		t.Errorf("title = %q", doc.Title)
	}
}

func TestDocumentService_Upload_Validation(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "alice")
	ctx := context.Background()

	long := uploadInput("a.txt", "x")
	long.Title = strings.Repeat("t", 201)

	unknownCategory := uploadInput("a.txt", "x")
	unknownCategory.CategoryID = int64Ptr(42)

	tests := []struct {
		name string
		in   ports.UploadDocumentInput
		msg  string
	}{
		{"no file", ports.UploadDocumentInput{Filename: "a.txt"}, "no file provided"},
		{"empty filename", uploadInput("", "x"), "no file selected"},
		{"no extension", uploadInput("README", "x"), "file must have an extension"},
		{"executable", uploadInput("virus.exe", "x"), "file type not allowed. Allowed types: doc, docx, gif, jpeg, jpg, pdf, png, ppt, pptx, txt, xls, xlsx"},
		{"title too long", long, "title must be at most 200 characters long"},
		{"unknown category", unknownCategory, "invalid category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.documents.Upload(ctx, u, tt.in)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := domain.Message(err); got != tt.msg {
				t.Fatalf("message = %q, want %q", got, tt.msg)
			}
		})
	}

	if n := f.blobCount(t); n != 0 {
		t.Fatalf("rejected uploads left %d blobs", n)
	}
}

func TestDocumentService_Upload_DuplicatesGetDistinctBlobs(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "alice")
	ctx := context.Background()

	first, err := f.documents.Upload(ctx, u, uploadInput("notes.txt", "same"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.documents.Upload(ctx, u, uploadInput("notes.txt", "same"))
	if err != nil {
		t.Fatal(err)
	}

	if first.ID == second.ID || first.StoragePath == second.StoragePath {
		t.Fatalf("duplicates share identity: %+v %+v", first, second)
	}
	if f.blobCount(t) != 2 {
		t.Fatalf("expected two blobs")
	}
}

type failingDocuments struct {
	ports.DocumentRepository
	err error
}

func (r failingDocuments) Create(context.Context, *domain.Document) (*domain.Document, error) {
	return nil, r.err
}

func TestDocumentService_Upload_RemovesBlobWhenMetadataFails(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "alice")
	f.documents.documents = failingDocuments{DocumentRepository: f.store.Documents(), err: errors.New("disk full")}

	_, err := f.documents.Upload(context.Background(), u, uploadInput("a.txt", "hello"))
	if err == nil || errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected an internal error, got %v", err)
	}
	if domain.Message(err) != "internal server error" {
		t.Fatalf("message leaks detail: %q", domain.Message(err))
	}
	if n := f.blobCount(t); n != 0 {
		t.Fatalf("orphaned blobs: %d", n)
	}

	// a category removed between lookup and insert surfaces as invalid input
	f.documents.documents = failingDocuments{DocumentRepository: f.store.Documents(), err: domain.ErrCategoryNotFound}
	_, err = f.documents.Upload(context.Background(), u, uploadInput("a.txt", "hello"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected invalid category, got %v", err)
	}
}

type oversizedReader struct{}

func (oversizedReader) Read(p []byte) (int, error) { return 0, domain.ErrFileTooLarge }

func TestDocumentService_Upload_TooLarge(t *testing.T) {
	f := newFixture(t)
	u := f.register(t, "alice")

	_, err := f.documents.Upload(context.Background(), u, ports.UploadDocumentInput{
		Content:  io.MultiReader(strings.NewReader("partial"), oversizedReader{}),
		Filename: "big.pdf",
	})
	if !errors.Is(err, domain.ErrTooLarge) {
		t.Fatalf("expected too large, got %v", err)
	}
	if n := f.blobCount(t); n != 0 {
		t.Fatalf("partial blob left behind")
	}
}

func TestDocumentService_List_OwnershipAndPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin")
	bob := f.register(t, "bob")

	for i := 0; i < 3; i++ {
		if _, err := f.documents.Upload(ctx, admin, uploadInput("admin.txt", "x")); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 12; i++ {
		if _, err := f.documents.Upload(ctx, bob, uploadInput("bob.txt", "x")); err != nil {
			t.Fatal(err)
		}
	}

	// bob asks for admin's documents and still only gets his own
	res, err := f.documents.List(ctx, bob, ports.ListDocumentsInput{OwnerID: &admin.ID})
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 12 || len(res.Items) != 10 || res.TotalPages != 2 || !res.HasNext || res.HasPrev {
		t.Fatalf("unexpected first page: total=%d items=%d pages=%d next=%v prev=%v",
			res.Total, len(res.Items), res.TotalPages, res.HasNext, res.HasPrev)
	}
	for _, d := range res.Items {
		if d.OwnerID != bob.ID {
			t.Fatalf("bob sees document of user %d", d.OwnerID)
		}
	}

	res, _ = f.documents.List(ctx, bob, ports.ListDocumentsInput{Page: 2})
	if len(res.Items) != 2 || res.HasNext || !res.HasPrev {
		t.Fatalf("unexpected second page: items=%d next=%v prev=%v", len(res.Items), res.HasNext, res.HasPrev)
	}

	res, err = f.documents.List(ctx, bob, ports.ListDocumentsInput{Page: math.MaxInt, PerPage: 10})
	if err != nil {
		t.Fatalf("huge page: %v", err)
	}
	if len(res.Items) != 0 || res.Total != 12 || res.HasNext {
		t.Fatalf("huge page: items=%d total=%d next=%v", len(res.Items), res.Total, res.HasNext)
	}

	res, _ = f.documents.List(ctx, admin, ports.ListDocumentsInput{Page: -3, PerPage: 1000})
	if res.Page != 1 || res.PerPage != 100 || res.Total != 15 || len(res.Items) != 15 {
		t.Fatalf("admin listing: page=%d per=%d total=%d", res.Page, res.PerPage, res.Total)
	}

	res, _ = f.documents.List(ctx, admin, ports.ListDocumentsInput{OwnerID: &admin.ID})
	if res.Total != 3 {
		t.Fatalf("admin owner filter total = %d", res.Total)
	}

	res, _ = f.documents.List(ctx, admin, ports.ListDocumentsInput{Search: "BOB", FileType: " TXT "})
	if res.Total != 12 {
		t.Fatalf("search total = %d", res.Total)
	}

	empty := newFixture(t)
	carol := empty.register(t, "carol")
	res, _ = empty.documents.List(ctx, carol, ports.ListDocumentsInput{})
	if res.Total != 0 || res.TotalPages != 0 || res.HasNext || res.Items == nil {
		t.Fatalf("empty listing: %+v", res)
	}
}

func TestDocumentService_Get_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin")
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")

	doc, err := f.documents.Upload(ctx, alice, uploadInput("a.txt", "x"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.documents.Get(ctx, alice, doc.ID); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if _, err := f.documents.Get(ctx, admin, doc.ID); err != nil {
		t.Fatalf("admin: %v", err)
	}
	_, err = f.documents.Get(ctx, bob, doc.ID)
	if !errors.Is(err, domain.ErrForbidden) || domain.Message(err) != "access denied" {
		t.Fatalf("other user: %v", err)
	}
	if _, err := f.documents.Get(ctx, alice, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}

	for _, op := range []func() error{
		func() error { _, err := f.documents.Download(ctx, bob, doc.ID); return err },
		func() error { _, err := f.documents.Update(ctx, bob, doc.ID, ports.UpdateDocumentInput{Title: strPtr("x")}); return err },
		func() error { return f.documents.Delete(ctx, bob, doc.ID) },
		func() error { _, err := f.documents.Activity(ctx, bob, doc.ID); return err },
	} {
		if err := op(); !errors.Is(err, domain.ErrForbidden) {
			t.Fatalf("expected forbidden, got %v", err)
		}
	}
}

func TestDocumentService_Download(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "alice")

	doc, _ := f.documents.Upload(ctx, u, uploadInput("a.txt", "hello world"))

	res, err := f.documents.Download(ctx, u, doc.ID)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	body, _ := io.ReadAll(res.Content)
	_ = res.Content.Close()
	if string(body) != "hello world" || res.Document.Filename != "a.txt" {
		t.Fatalf("unexpected download: %q %+v", body, res.Document)
	}

	if err := f.fs.Remove(doc.StoragePath); err != nil {
		t.Fatal(err)
	}
	_, err = f.documents.Download(ctx, u, doc.ID)
	if !errors.Is(err, domain.ErrNotFound) || domain.Message(err) != "file not found on server" {
		t.Fatalf("missing blob: %v", err)
	}
}

func TestDocumentService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin")
	cat, _ := f.categories.Create(ctx, admin, ports.CreateCategoryInput{Name: "Work"})

	in := uploadInput("a.txt", "x")
	in.Tags = "old,stale"
	doc, _ := f.documents.Upload(ctx, admin, in)

	updated, err := f.documents.Update(ctx, admin, doc.ID, ports.UpdateDocumentInput{
		Title:       strPtr("   "),
		Description: strPtr(" new description "),
		SetCategory: true,
		CategoryID:  &cat.ID,
		SetTags:     true,
		Tags:        []string{" fresh ", "", strings.Repeat("t", 51)},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "a" {
		t.Errorf("blank title must be ignored, got %q", updated.Title)
	}
	if updated.Description != "new description" {
		t.Errorf("description = %q", updated.Description)
	}
	if updated.Category == nil || updated.Category.ID != cat.ID {
		t.Errorf("category = %+v", updated.Category)
	}
	if strings.Join(updated.Tags, ",") != "fresh" {
		t.Errorf("tags = %v", updated.Tags)
	}

	cleared, err := f.documents.Update(ctx, admin, doc.ID, ports.UpdateDocumentInput{SetCategory: true})
	if err != nil || cleared.CategoryID != nil {
		t.Fatalf("clear category: %+v %v", cleared, err)
	}
	if strings.Join(cleared.Tags, ",") != "fresh" {
		t.Errorf("tags changed without being set: %v", cleared.Tags)
	}

	_, err = f.documents.Update(ctx, admin, doc.ID, ports.UpdateDocumentInput{SetCategory: true, CategoryID: int64Ptr(77)})
	if !errors.Is(err, domain.ErrValidation) || domain.Message(err) != "invalid category" {
		t.Fatalf("invalid category: %v", err)
	}

	if got := f.activity.actions(); got[len(got)-1] != domain.ActionUpdated {
		t.Errorf("activity = %v", got)
	}
}

func TestDocumentService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "alice")

	in := uploadInput("a.txt", "x")
	in.Tags = "one,two"
	doc, _ := f.documents.Upload(ctx, u, in)

	if err := f.documents.Delete(ctx, u, doc.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if f.blobCount(t) != 0 {
		t.Fatal("blob not removed")
	}
	if _, err := f.documents.Get(ctx, u, doc.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("get after delete: %v", err)
	}

	// a blob that vanished earlier does not block deleting the row
	doc, _ = f.documents.Upload(ctx, u, uploadInput("b.txt", "x"))
	_ = f.fs.Remove(doc.StoragePath)
	if err := f.documents.Delete(ctx, u, doc.ID); err != nil {
		t.Fatalf("Delete with missing blob: %v", err)
	}
}

func TestDocumentService_Stats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin")
	bob := f.register(t, "bob")
	_, _ = f.categories.Create(ctx, admin, ports.CreateCategoryInput{Name: "Work"})

	_, _ = f.documents.Upload(ctx, admin, uploadInput("a.txt", strings.Repeat("a", 1024)))
	_, _ = f.documents.Upload(ctx, bob, uploadInput("b.txt", strings.Repeat("b", 1536)))

	all, err := f.documents.Stats(ctx, admin)
	if err != nil {
		t.Fatal(err)
	}
	want := ports.StatsResult{TotalDocuments: 2, TotalSize: 2560, TotalSizeFormatted: "2.5 KB", TotalUsers: 2, TotalCategories: 1}
	if *all != want {
		t.Fatalf("admin stats = %+v, want %+v", *all, want)
	}

	mine, err := f.documents.Stats(ctx, bob)
	if err != nil {
		t.Fatal(err)
	}
	want = ports.StatsResult{TotalDocuments: 1, TotalSize: 1536, TotalSizeFormatted: "1.5 KB", TotalUsers: 1, TotalCategories: 1}
	if *mine != want {
		t.Fatalf("user stats = %+v, want %+v", *mine, want)
	}
}

func TestDocumentService_Activity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "alice")

	doc, _ := f.documents.Upload(ctx, u, uploadInput("a.txt", "x"))
	res, _ := f.documents.Download(ctx, u, doc.ID)
	_ = res.Content.Close()

	events, err := f.documents.Activity(ctx, u, doc.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].Action != domain.ActionDownloaded || events[1].Action != domain.ActionUploaded {
		t.Fatalf("events = %+v", events)
	}
	if events[0].ActorName != "alice" {
		t.Fatalf("actor = %q", events[0].ActorName)
	}

	// recording failures never fail the operation
	f.activity.err = errors.New("mongo down")
	if _, err := f.documents.Update(ctx, u, doc.ID, ports.UpdateDocumentInput{Title: strPtr("renamed")}); err != nil {
		t.Fatalf("Update with broken activity log: %v", err)
	}
}

func TestDocumentService_ActivityDisabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "alice")

	svc := NewDocumentService(f.store.Documents(), f.store.Categories(), f.store.Users(), f.blobs, nil, []string{".TXT"}, f.documents.log)
	doc, err := svc.Upload(ctx, u, uploadInput("a.txt", "x"))
	if err != nil {
		t.Fatal(err)
	}
	events, err := svc.Activity(ctx, u, doc.ID)
	if err != nil || events == nil || len(events) != 0 {
		t.Fatalf("events = %v, %v", events, err)
	}

	_, err = svc.Upload(ctx, u, uploadInput("a.pdf", "x"))
	if domain.Message(err) != "file type not allowed. Allowed types: txt" {
		t.Fatalf("custom allow-list: %v", err)
	}
}
