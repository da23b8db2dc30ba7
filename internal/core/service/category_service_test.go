package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/core/ports"
)

func TestCategoryService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin")
	bob := f.register(t, "bob")

	cat, err := f.categories.Create(ctx, admin, ports.CreateCategoryInput{Name: "  Work ", Description: " jobs ", Color: "red"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if cat.Name != "Work" || cat.Description != "jobs" {
		t.Errorf("fields not trimmed: %+v", cat)
	}
	if cat.Color != domain.DefaultCategoryColor {
		t.Errorf("malformed color should fall back to default, got %q", cat.Color)
	}
	if cat.DocumentsCount != 0 {
		t.Errorf("documents count = %d", cat.DocumentsCount)
	}

	tests := []struct {
		name   string
		caller *domain.User
		in     ports.CreateCategoryInput
		kind   error
		msg    string
	}{
		{"non admin", bob, ports.CreateCategoryInput{Name: "Mine"}, domain.ErrForbidden, "admin access required"},
		{"blank name", admin, ports.CreateCategoryInput{Name: "   "}, domain.ErrValidation, "category name is required"},
		{"long name", admin, ports.CreateCategoryInput{Name: strings.Repeat("n", 101)}, domain.ErrValidation, "category name must be at most 100 characters long"},
		{"duplicate", admin, ports.CreateCategoryInput{Name: "Work"}, domain.ErrConflict, "category name already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.categories.Create(ctx, tt.caller, tt.in)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			if got := domain.Message(err); got != tt.msg {
				t.Fatalf("message = %q, want %q", got, tt.msg)
			}
		})
	}

	list, _ := f.categories.List(ctx)
	if len(list) != 1 {
		t.Fatalf("rejected creates must not persist, have %d categories", len(list))
	}
}

func TestCategoryService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin")
	work, _ := f.categories.Create(ctx, admin, ports.CreateCategoryInput{Name: "Work", Color: "#111111"})
	_, _ = f.categories.Create(ctx, admin, ports.CreateCategoryInput{Name: "Personal"})

	updated, err := f.categories.Update(ctx, admin, work.ID, ports.UpdateCategoryInput{
		Name:        strPtr(" "),
		Description: strPtr("office"),
		Color:       strPtr("blue"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Work" || updated.Color != "#111111" || updated.Description != "office" {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	updated, err = f.categories.Update(ctx, admin, work.ID, ports.UpdateCategoryInput{Name: strPtr("Jobs"), Color: strPtr("#ABCDEF")})
	if err != nil || updated.Name != "Jobs" || updated.Color != "#ABCDEF" {
		t.Fatalf("rename: %+v %v", updated, err)
	}

	// keeping its own name is not a conflict
	if _, err := f.categories.Update(ctx, admin, work.ID, ports.UpdateCategoryInput{Name: strPtr("Jobs")}); err != nil {
		t.Fatalf("same name: %v", err)
	}

	_, err = f.categories.Update(ctx, admin, work.ID, ports.UpdateCategoryInput{Name: strPtr("Personal")})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("rename onto existing: %v", err)
	}

	if _, err := f.categories.Update(ctx, admin, 99, ports.UpdateCategoryInput{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
}

func TestCategoryService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin")
	bob := f.register(t, "bob")
	work, _ := f.categories.Create(ctx, admin, ports.CreateCategoryInput{Name: "Work"})

	for i := 0; i < 2; i++ {
		in := uploadInput("a.txt", "x")
		in.CategoryID = &work.ID
		if _, err := f.documents.Upload(ctx, bob, in); err != nil {
			t.Fatal(err)
		}
	}

	if err := f.categories.Delete(ctx, bob, work.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non admin: %v", err)
	}

	err := f.categories.Delete(ctx, admin, work.ID)
	if !errors.Is(err, domain.ErrPrecondition) {
		t.Fatalf("non-empty: %v", err)
	}
	if got := domain.Message(err); got != "cannot delete category: it contains 2 documents" {
		t.Fatalf("message = %q", got)
	}

	empty, _ := f.categories.Create(ctx, admin, ports.CreateCategoryInput{Name: "Empty"})
	if err := f.categories.Delete(ctx, admin, empty.ID); err != nil {
		t.Fatalf("empty: %v", err)
	}
	if err := f.categories.Delete(ctx, admin, empty.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("twice: %v", err)
	}
}

func TestCategoryService_Documents_NarrowsToCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin")
	alice := f.register(t, "alice")
	bob := f.register(t, "bob")
	work, _ := f.categories.Create(ctx, admin, ports.CreateCategoryInput{Name: "Work"})

	for _, u := range []*domain.User{alice, bob, bob} {
		in := uploadInput(u.Username+".txt", "x")
		in.CategoryID = &work.ID
		if _, err := f.documents.Upload(ctx, u, in); err != nil {
			t.Fatal(err)
		}
	}
	_, _ = f.documents.Upload(ctx, bob, uploadInput("loose.txt", "x"))

	cat, docs, err := f.categories.Documents(ctx, bob, work.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cat.Name != "Work" || cat.DocumentsCount != 3 {
		t.Fatalf("category = %+v", cat)
	}
	if len(docs) != 2 {
		t.Fatalf("bob sees %d documents, want 2", len(docs))
	}

	_, docs, _ = f.categories.Documents(ctx, admin, work.ID)
	if len(docs) != 3 {
		t.Fatalf("admin sees %d documents, want 3", len(docs))
	}

	if _, _, err := f.categories.Documents(ctx, bob, 404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}
}

func TestCategoryService_SeedDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.register(t, "admin")
	_, _ = f.categories.Create(ctx, admin, ports.CreateCategoryInput{Name: "Work", Color: "#000000"})

	for i := 0; i < 2; i++ {
		if err := f.categories.SeedDefaults(ctx); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}

	list, _ := f.categories.List(ctx)
	if len(list) != len(domain.DefaultCategories) {
		t.Fatalf("have %d categories, want %d", len(list), len(domain.DefaultCategories))
	}
	if list[0].Name != "Work" || list[0].Color != "#000000" {
		t.Fatalf("existing category overwritten: %+v", list[0])
	}
}
