package repositories

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/nbx/internal/models"
	"github.com/desertthunder/nbx/internal/shared"
	tu "github.com/desertthunder/nbx/internal/testing"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.OpenDatabase(shared.DatabaseConfig{Path: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestCredentialRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Get Missing Key", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		value, ok, err := repo.Get(ctx, "app_password")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ok || value != "" {
			t.Errorf("expected missing key, got %q (ok=%v)", value, ok)
		}
	})

	t.Run("Set And Get", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		if err := repo.Set(ctx, "app_password", "secret"); err != nil {
			t.Fatalf("failed to set credential: %v", err)
		}

		value, ok, err := repo.Get(ctx, "app_password")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !ok || value != "secret" {
			t.Errorf("expected secret, got %q (ok=%v)", value, ok)
		}
	})

	t.Run("Set Overwrites", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))

		repo.Set(ctx, "app_password", "first")
		if err := repo.Set(ctx, "app_password", "second"); err != nil {
			t.Fatalf("failed to overwrite credential: %v", err)
		}

		value, _, _ := repo.Get(ctx, "app_password")
		if value != "second" {
			t.Errorf("expected second, got %q", value)
		}

		keys, _ := repo.Keys(ctx)
		if len(keys) != 1 {
			t.Errorf("expected a single key, got %v", keys)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		repo.Set(ctx, "app_password", "secret")
		repo.Set(ctx, "auth_token", "legacy")

		if err := repo.Delete(ctx, "app_password"); err != nil {
			t.Fatalf("failed to delete credential: %v", err)
		}
		if err := repo.Delete(ctx, "app_password"); err != nil {
			t.Errorf("expected deleting a missing key to succeed, got %v", err)
		}

		keys, err := repo.Keys(ctx)
		if err != nil {
			t.Fatalf("failed to list keys: %v", err)
		}
		if len(keys) != 1 || keys[0] != "auth_token" {
			t.Errorf("expected [auth_token], got %v", keys)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewCredentialRepository(setupTestDB(t))
		repo.Set(ctx, "a", "1")
		repo.Set(ctx, "b", "2")

		if err := repo.Clear(ctx); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		keys, _ := repo.Keys(ctx)
		if len(keys) != 0 {
			t.Errorf("expected no keys, got %v", keys)
		}
	})
}

func TestNotebookRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty Snapshot", func(t *testing.T) {
		repo := NewNotebookRepository(setupTestDB(t))

		notebooks, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if notebooks == nil || len(notebooks) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", notebooks)
		}

		if _, ok, err := repo.CachedAt(ctx); err != nil || ok {
			t.Errorf("expected no snapshot time, got ok=%v err=%v", ok, err)
		}
	})

	t.Run("ReplaceAll Preserves Order", func(t *testing.T) {
		repo := NewNotebookRepository(setupTestDB(t))
		input := []models.Notebook{
			tu.Notebook("c", 1, false),
			tu.Notebook("a", 3, true),
			tu.Notebook("b", 2, false),
		}

		if err := repo.ReplaceAll(ctx, input); err != nil {
			t.Fatalf("failed to replace snapshot: %v", err)
		}

		notebooks, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(notebooks) != 3 {
			t.Fatalf("expected 3 notebooks, got %d", len(notebooks))
		}

		for i, want := range input {
			got := notebooks[i]
			if got.ID != want.ID || got.Name != want.Name || got.Archived != want.Archived {
				t.Errorf("position %d: expected %+v, got %+v", i, want, got)
			}
			if got.SourcesCount != want.SourcesCount || got.InsightsCount != want.InsightsCount {
				t.Errorf("position %d: counters not preserved", i)
			}
			if !got.Updated.Equal(want.Updated.Time) {
				t.Errorf("position %d: expected updated %v, got %v", i, want.Updated, got.Updated)
			}
			if !got.Created.IsZero() {
				t.Errorf("position %d: expected zero created, got %v", i, got.Created)
			}
		}
	})

	t.Run("ReplaceAll Drops Previous Rows", func(t *testing.T) {
		repo := NewNotebookRepository(setupTestDB(t))
		repo.ReplaceAll(ctx, []models.Notebook{tu.Notebook("old", 1, false)})

		if err := repo.ReplaceAll(ctx, []models.Notebook{tu.Notebook("new", 2, false)}); err != nil {
			t.Fatalf("failed to replace snapshot: %v", err)
		}

		count, err := repo.Count(ctx)
		if err != nil {
			t.Fatalf("failed to count: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 notebook, got %d", count)
		}

		if _, err := repo.Get(ctx, "old"); err == nil {
			t.Error("expected old notebook to be gone")
		}
	})

	t.Run("ReplaceAll Rolls Back On Duplicate IDs", func(t *testing.T) {
		repo := NewNotebookRepository(setupTestDB(t))
		repo.ReplaceAll(ctx, []models.Notebook{tu.Notebook("keep", 1, false)})

		err := repo.ReplaceAll(ctx, []models.Notebook{tu.Notebook("dup", 1, false), tu.Notebook("dup", 2, false)})
		if err == nil {
			t.Fatal("expected constraint error")
		}

		nb, err := repo.Get(ctx, "keep")
		if err != nil {
			t.Fatalf("expected previous snapshot to survive, got %v", err)
		}
		if nb.ID != "keep" {
			t.Errorf("expected keep, got %s", nb.ID)
		}
	})

	t.Run("CachedAt", func(t *testing.T) {
		repo := NewNotebookRepository(setupTestDB(t))
		fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		repo.now = func() time.Time { return fixed }

		repo.ReplaceAll(ctx, []models.Notebook{tu.Notebook("a", 1, false)})

		at, ok, err := repo.CachedAt(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !ok || !at.Equal(fixed) {
			t.Errorf("expected %v, got %v (ok=%v)", fixed, at, ok)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewNotebookRepository(setupTestDB(t))
		repo.ReplaceAll(ctx, []models.Notebook{tu.Notebook("a", 1, false)})

		if err := repo.Clear(ctx); err != nil {
			t.Fatalf("failed to clear: %v", err)
		}

		count, _ := repo.Count(ctx)
		if count != 0 {
			t.Errorf("expected empty snapshot, got %d", count)
		}
	})
}

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("Commits On Success", func(t *testing.T) {
		db := setupTestDB(t)

		err := WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
			_, err := tx.ExecContext(ctx, `INSERT INTO credentials (key, value) VALUES ('k', 'v')`)
			return err
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		_, ok, _ := NewCredentialRepository(db).Get(ctx, "k")
		if !ok {
			t.Error("expected committed row")
		}
	})

	t.Run("Rolls Back On Error", func(t *testing.T) {
		db := setupTestDB(t)
		boom := errors.New("boom")

		err := WithTx(ctx, db, func(ctx context.Context, tx DBTX) error {
			if _, err := tx.ExecContext(ctx, `INSERT INTO credentials (key, value) VALUES ('k', 'v')`); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}

		_, ok, _ := NewCredentialRepository(db).Get(ctx, "k")
		if ok {
			t.Error("expected row to be rolled back")
		}
	})
}
