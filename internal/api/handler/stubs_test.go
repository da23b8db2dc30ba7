package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/docvault/document-service/internal/api/metrics"
	"github.com/docvault/document-service/internal/api/middleware"
	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/core/ports"
)

var (
	testAdmin = &domain.User{ID: 1, Username: "admin", Email: "admin@example.com", Role: domain.RoleAdmin}
	testUser  = &domain.User{ID: 2, Username: "bob", Email: "bob@example.com", Role: domain.RoleUser}
)

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// newContext builds an echo context for req, authenticated as user when non-nil.
func newContext(t *testing.T, method, target string, body io.Reader, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(middleware.ContextUser, user)
		c.Set(middleware.ContextRole, user.Role)
		c.Set(middleware.ContextToken, "token-"+user.Username)
	}
	return c, rec
}

type stubAuthService struct {
	registerFn   func(ctx context.Context, username, email, password string) (*ports.AuthResult, error)
	loginFn      func(ctx context.Context, login, password string) (*ports.AuthResult, error)
	logoutFn     func(ctx context.Context, token string) error
	listUsersFn  func(ctx context.Context, caller *domain.User) ([]*domain.User, error)
	deleteUserFn func(ctx context.Context, caller *domain.User, id int64) error
}

func (s *stubAuthService) Register(ctx context.Context, username, email, password string) (*ports.AuthResult, error) {
	return s.registerFn(ctx, username, email, password)
}

func (s *stubAuthService) Login(ctx context.Context, login, password string) (*ports.AuthResult, error) {
	return s.loginFn(ctx, login, password)
}

func (s *stubAuthService) ResolveIdentity(context.Context, string) (*domain.User, error) {
	return nil, domain.ErrTokenMalformed
}

func (s *stubAuthService) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}

func (s *stubAuthService) Profile(_ context.Context, caller *domain.User) (*domain.User, error) {
	return caller, nil
}

func (s *stubAuthService) ListUsers(ctx context.Context, caller *domain.User) ([]*domain.User, error) {
	return s.listUsersFn(ctx, caller)
}

func (s *stubAuthService) DeleteUser(ctx context.Context, caller *domain.User, id int64) error {
	return s.deleteUserFn(ctx, caller, id)
}

type stubCategoryService struct {
	listFn      func(ctx context.Context) ([]*domain.Category, error)
	createFn    func(ctx context.Context, caller *domain.User, in ports.CreateCategoryInput) (*domain.Category, error)
	updateFn    func(ctx context.Context, caller *domain.User, id int64, in ports.UpdateCategoryInput) (*domain.Category, error)
	deleteFn    func(ctx context.Context, caller *domain.User, id int64) error
	documentsFn func(ctx context.Context, caller *domain.User, id int64) (*domain.Category, []*domain.Document, error)
}

func (s *stubCategoryService) List(ctx context.Context) ([]*domain.Category, error) {
	return s.listFn(ctx)
}

func (s *stubCategoryService) Create(ctx context.Context, caller *domain.User, in ports.CreateCategoryInput) (*domain.Category, error) {
	return s.createFn(ctx, caller, in)
}

func (s *stubCategoryService) Update(ctx context.Context, caller *domain.User, id int64, in ports.UpdateCategoryInput) (*domain.Category, error) {
	return s.updateFn(ctx, caller, id, in)
}

func (s *stubCategoryService) Delete(ctx context.Context, caller *domain.User, id int64) error {
	return s.deleteFn(ctx, caller, id)
}

func (s *stubCategoryService) Documents(ctx context.Context, caller *domain.User, id int64) (*domain.Category, []*domain.Document, error) {
	return s.documentsFn(ctx, caller, id)
}

type stubDocumentService struct {
	listFn     func(ctx context.Context, caller *domain.User, in ports.ListDocumentsInput) (*ports.ListDocumentsResult, error)
	uploadFn   func(ctx context.Context, caller *domain.User, in ports.UploadDocumentInput) (*domain.Document, error)
	getFn      func(ctx context.Context, caller *domain.User, id int64) (*domain.Document, error)
	downloadFn func(ctx context.Context, caller *domain.User, id int64) (*ports.DownloadResult, error)
	updateFn   func(ctx context.Context, caller *domain.User, id int64, in ports.UpdateDocumentInput) (*domain.Document, error)
	deleteFn   func(ctx context.Context, caller *domain.User, id int64) error
	statsFn    func(ctx context.Context, caller *domain.User) (*ports.StatsResult, error)
	activityFn func(ctx context.Context, caller *domain.User, id int64) ([]*domain.DocumentEvent, error)
}

func (s *stubDocumentService) List(ctx context.Context, caller *domain.User, in ports.ListDocumentsInput) (*ports.ListDocumentsResult, error) {
	return s.listFn(ctx, caller, in)
}

func (s *stubDocumentService) Upload(ctx context.Context, caller *domain.User, in ports.UploadDocumentInput) (*domain.Document, error) {
	return s.uploadFn(ctx, caller, in)
}

func (s *stubDocumentService) Get(ctx context.Context, caller *domain.User, id int64) (*domain.Document, error) {
	return s.getFn(ctx, caller, id)
}

func (s *stubDocumentService) Download(ctx context.Context, caller *domain.User, id int64) (*ports.DownloadResult, error) {
	return s.downloadFn(ctx, caller, id)
}

func (s *stubDocumentService) Update(ctx context.Context, caller *domain.User, id int64, in ports.UpdateDocumentInput) (*domain.Document, error) {
	return s.updateFn(ctx, caller, id, in)
}

func (s *stubDocumentService) Delete(ctx context.Context, caller *domain.User, id int64) error {
	return s.deleteFn(ctx, caller, id)
}

func (s *stubDocumentService) Stats(ctx context.Context, caller *domain.User) (*ports.StatsResult, error) {
	return s.statsFn(ctx, caller)
}

func (s *stubDocumentService) Activity(ctx context.Context, caller *domain.User, id int64) ([]*domain.DocumentEvent, error) {
	return s.activityFn(ctx, caller, id)
}
