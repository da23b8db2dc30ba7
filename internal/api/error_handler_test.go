package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/docvault/document-service/internal/core/domain"
)

func TestHTTPErrorHandler_MapsKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", domain.Errorf(domain.ErrValidation, "username is required"), http.StatusBadRequest, "username is required"},
		{"credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"malformed token", domain.ErrTokenMalformed, http.StatusUnprocessableEntity, "invalid token"},
		{"forbidden", domain.ErrAccessDenied, http.StatusForbidden, "access denied"},
		{"not found wrapped", fmt.Errorf("get: %w", domain.ErrDocumentNotFound), http.StatusNotFound, "document not found"},
		{"conflict", domain.ErrEmailTaken, http.StatusConflict, "email already exists"},
		{"category not empty", fmt.Errorf("delete category: %w", &domain.CategoryNotEmptyError{Count: 4}), http.StatusBadRequest, "cannot delete category: it contains 4 documents"},
		{"too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "file too large"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"), http.StatusMethodNotAllowed, "method not allowed"},
		{"internal", fmt.Errorf("db error: %w", errors.New("connection reset")), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			NewHTTPErrorHandler(zerolog.Nop())(tt.err, c)

			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["error"] != tt.msg {
				t.Fatalf("expected %q, got %q", tt.msg, body["error"])
			}
		})
	}
}

func TestHTTPErrorHandler_LogsInternalErrors(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/documents/1", nil), rec)

	NewHTTPErrorHandler(log)(errors.New("pq: relation does not exist"), c)

	if bytes.Contains(rec.Body.Bytes(), []byte("relation")) {
		t.Fatalf("storage detail leaked: %s", rec.Body.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("relation does not exist")) {
		t.Fatalf("internal error not logged: %s", buf.String())
	}
}

func TestHTTPErrorHandler_SkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.String(http.StatusOK, "partial")

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrDocumentNotFound, c)

	if rec.Code != http.StatusOK || rec.Body.String() != "partial" {
		t.Fatalf("committed response was rewritten: %d %q", rec.Code, rec.Body.String())
	}
}
