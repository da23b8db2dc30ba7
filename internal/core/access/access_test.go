package access

import (
	"errors"
	"testing"

	"github.com/docvault/document-service/internal/core/domain"
)

func TestRequireAdmin(t *testing.T) {
	if err := RequireAdmin(&domain.User{ID: 1, Role: domain.RoleAdmin}); err != nil {
		t.Fatalf("admin rejected: %v", err)
	}
	if err := RequireAdmin(&domain.User{ID: 2, Role: domain.RoleUser}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := RequireAdmin(nil); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRequireOwnerOrAdmin(t *testing.T) {
	owner := &domain.User{ID: 7, Role: domain.RoleUser}
	other := &domain.User{ID: 8, Role: domain.RoleUser}
	admin := &domain.User{ID: 1, Role: domain.RoleAdmin}

	if err := RequireOwnerOrAdmin(owner, 7); err != nil {
		t.Fatalf("owner rejected: %v", err)
	}
	if err := RequireOwnerOrAdmin(admin, 7); err != nil {
		t.Fatalf("admin rejected: %v", err)
	}
	if err := RequireOwnerOrAdmin(other, 7); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestOwnerScope(t *testing.T) {
	requested := int64(42)

	got := OwnerScope(&domain.User{ID: 5, Role: domain.RoleUser}, &requested)
	if got == nil || *got != 5 {
		t.Fatalf("non-admin must be narrowed to self, got %v", got)
	}
	if got := OwnerScope(&domain.User{ID: 5, Role: domain.RoleUser}, nil); got == nil || *got != 5 {
		t.Fatalf("non-admin must be narrowed to self without a filter")
	}

	admin := &domain.User{ID: 1, Role: domain.RoleAdmin}
	if got := OwnerScope(admin, &requested); got == nil || *got != 42 {
		t.Fatalf("admin filter must pass through, got %v", got)
	}
	if got := OwnerScope(admin, nil); got != nil {
		t.Fatalf("admin without filter must see everything, got %v", *got)
	}
}
