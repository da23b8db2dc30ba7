package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"golang.org/x/crypto/bcrypt"

	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/infrastructure/blob"
	"github.com/docvault/document-service/internal/infrastructure/db/memory"
)

const testSecret = "test-secret"

// fixture wires the services over the memory store and an in-memory filesystem.
type fixture struct {
	store      *memory.Store
	fs         afero.Fs
	blobs      *blob.LocalStore
	revoker    *stubRevoker
	activity   *stubActivity
	auth       *AuthService
	categories *CategoryService
	documents  *DocumentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mem := afero.NewMemMapFs()
	if err := mem.MkdirAll("/uploads", 0o755); err != nil {
		t.Fatal(err)
	}

	f := &fixture{
		store:    memory.NewStore(),
		fs:       afero.NewBasePathFs(mem, "/uploads"),
		revoker:  newStubRevoker(),
		activity: &stubActivity{},
	}
	f.blobs = blob.NewLocalStore(f.fs)

	log := zerolog.Nop()
	f.auth = NewAuthService(f.store.Users(), f.blobs, f.revoker, testSecret, 24*time.Hour, log)
	f.auth.bcryptCost = bcrypt.MinCost
	f.categories = NewCategoryService(f.store.Categories(), f.store.Documents(), log)
	f.documents = NewDocumentService(
		f.store.Documents(), f.store.Categories(), f.store.Users(),
		f.blobs, f.activity, nil, log,
	)
	return f
}

// register creates an account through the service and returns its user.
func (f *fixture) register(t *testing.T, name string) *domain.User {
	t.Helper()
	res, err := f.auth.Register(context.Background(), name, name+"@example.com", "secret123")
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return res.User
}

func (f *fixture) blobCount(t *testing.T) int {
	t.Helper()
	entries, err := afero.ReadDir(f.fs, "/")
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	return len(entries)
}

type stubRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	err     error
}

func newStubRevoker() *stubRevoker {
	return &stubRevoker{revoked: make(map[string]time.Duration)}
}

func (r *stubRevoker) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.revoked[jti] = ttl
	return nil
}

func (r *stubRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	_, ok := r.revoked[jti]
	return ok, nil
}

type stubActivity struct {
	mu     sync.Mutex
	events []*domain.DocumentEvent
	err    error
}

func (a *stubActivity) InsertEvent(_ context.Context, e *domain.DocumentEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.events = append(a.events, e)
	return nil
}

func (a *stubActivity) ListByDocument(_ context.Context, documentID int64, limit int) ([]*domain.DocumentEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*domain.DocumentEvent, 0)
	for i := len(a.events) - 1; i >= 0 && len(out) < limit; i-- {
		if a.events[i].DocumentID == documentID {
			out = append(out, a.events[i])
		}
	}
	return out, nil
}

func (a *stubActivity) actions() []domain.DocumentAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.DocumentAction, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Action)
	}
	return out
}
