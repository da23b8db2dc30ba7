package blob

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"

	"github.com/docvault/document-service/internal/core/domain"
)

func TestNormaliseEndpoint(t *testing.T) {
	tests := []struct {
		in           string
		wantEndpoint string
		wantSecure   bool
		wantErr      bool
	}{
		{"minio:9000", "minio:9000", false, false},
		{" minio:9000 ", "minio:9000", false, false},
		{"http://minio:9000", "minio:9000", false, false},
		{"https://s3.example.com", "s3.example.com", true, false},
		{"http://minio:9000/", "minio:9000", false, false},
		{"http://minio:9000/bucket", "", false, true},
		{"", "", false, true},
	}

	for _, tt := range tests {
		ep, secure, err := normaliseEndpoint(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("expected error for input %q", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tt.in, err)
		}
		if ep != tt.wantEndpoint || secure != tt.wantSecure {
			t.Fatalf("normaliseEndpoint(%q) = (%q,%v), want (%q,%v)", tt.in, ep, secure, tt.wantEndpoint, tt.wantSecure)
		}
	}
}

func TestMapObjectError(t *testing.T) {
	missing := minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
	if err := mapObjectError(missing); !errors.Is(err, domain.ErrBlobNotFound) {
		t.Fatalf("NoSuchKey mapped to %v, want ErrBlobNotFound", err)
	}

	denied := minio.ErrorResponse{Code: "AccessDenied"}
	if err := mapObjectError(denied); errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("AccessDenied must not map to not found, got %v", err)
	}
}

func TestTrackingReader_KeepsFirstError(t *testing.T) {
	r := &trackingReader{r: io.MultiReader(strings.NewReader("abc"), failingReader{err: domain.ErrFileTooLarge})}

	_, err := io.ReadAll(r)
	if !errors.Is(err, domain.ErrTooLarge) {
		t.Fatalf("ReadAll error = %v, want ErrTooLarge", err)
	}
	if r.n != 3 {
		t.Fatalf("counted %d bytes, want 3", r.n)
	}
	if !errors.Is(r.err, domain.ErrTooLarge) {
		t.Fatalf("tracked error = %v", r.err)
	}
}
