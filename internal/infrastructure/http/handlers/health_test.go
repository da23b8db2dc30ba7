package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestLiveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if rec.Code != http.StatusOK || body["status"] != "healthy" || body["message"] != "Document Management System API is running" {
		t.Fatalf("unexpected response %d %v", rec.Code, body)
	}
}

func TestReadiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name     string
		checkers map[string]Checker
		code     int
		status   string
	}{
		{"no dependencies", nil, http.StatusOK, "ok"},
		{"all up", map[string]Checker{"postgres": ok, "redis": ok}, http.StatusOK, "ok"},
		{"one down", map[string]Checker{"postgres": ok, "mongodb": down}, http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

			if err := NewHealthDependenciesHandler(tt.checkers).Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}

			var body readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body.Status != tt.status || len(body.Dependencies) != len(tt.checkers) {
				t.Fatalf("unexpected body: %+v", body)
			}
			if dep, ok := body.Dependencies["mongodb"]; ok && dep.Error != "connection refused" {
				t.Fatalf("mongodb dependency: %+v", dep)
			}
		})
	}
}
