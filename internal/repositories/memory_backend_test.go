package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vidfriends/ratingclient/internal/models"
)

func TestMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUserRepository()

	user := models.User{ID: "u1", Username: "Alice", Name: "Alice A"}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, models.User{ID: "u2", Username: "alice"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	got, err := repo.FindByUsername(ctx, "ALICE")
	if err != nil || got.ID != "u1" {
		t.Fatalf("find by username: %+v %v", got, err)
	}
	if _, err := repo.FindByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryTokenRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTokenRepository()

	first, err := repo.Issue(ctx, "u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, _ := repo.Issue(ctx, "u1")
	if first == second || len(first) != 64 {
		t.Fatalf("expected distinct 64 char tokens, got %q %q", first, second)
	}

	userID, err := repo.Resolve(ctx, first)
	if err != nil || userID != "u1" {
		t.Fatalf("resolve: %q %v", userID, err)
	}

	if err := repo.Revoke(ctx, first); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := repo.Resolve(ctx, first); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected revoked token unresolvable, got %v", err)
	}
	if err := repo.Revoke(ctx, first); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double revoke, got %v", err)
	}
}

func TestMemoryContentRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryContentRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	older := models.ContentRecord{ID: "a", CreatedAt: base}
	newer := models.ContentRecord{ID: "b", CreatedAt: base.Add(time.Hour)}
	for _, rec := range []models.ContentRecord{older, newer} {
		if err := repo.Create(ctx, rec); err != nil {
			t.Fatalf("create %s: %v", rec.ID, err)
		}
	}
	if err := repo.Create(ctx, older); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil || len(list) != 2 || list[0].ID != "b" {
		t.Fatalf("expected newest first, got %+v %v", list, err)
	}

	older.Comment = "edited"
	if err := repo.Update(ctx, older); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := repo.Get(ctx, "a")
	if got.Comment != "edited" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := repo.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, "a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Update(ctx, older); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating deleted record, got %v", err)
	}
}
