package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/nbx/internal/models"
)

// NotebookRepository persists a snapshot of the notebook collection.
//
// Rows keep the position they had in the API response so [NotebookRepository.List] returns server order.
type NotebookRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewNotebookRepository creates a new NotebookRepository with the given database connection
func NewNotebookRepository(db *sql.DB) *NotebookRepository {
	return &NotebookRepository{db: db, now: time.Now}
}

// ReplaceAll atomically swaps the stored snapshot for notebooks.
func (r *NotebookRepository) ReplaceAll(ctx context.Context, notebooks []models.Notebook) error {
	cachedAt := r.now().UTC()

	return WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM notebooks`); err != nil {
			return fmt.Errorf("failed to clear notebook snapshot: %w", err)
		}

		query := `
			INSERT INTO notebooks (id, position, name, description, sources_count, notes_count, insights_count, podcasts_count, archived, created_at, updated_at, cached_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		for i, nb := range notebooks {
			_, err := tx.ExecContext(ctx, query,
				nb.ID,
				i,
				nb.Name,
				nb.Description,
				nb.SourcesCount,
				nb.NotesCount,
				nb.InsightsCount,
				nb.PodcastsCount,
				nb.Archived,
				nullTime(nb.Created),
				nullTime(nb.Updated),
				cachedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert notebook %s: %w", nb.ID, err)
			}
		}
		return nil
	})
}

// List returns the snapshot in server order.
func (r *NotebookRepository) List(ctx context.Context) ([]models.Notebook, error) {
	query := `
		SELECT id, name, description, sources_count, notes_count, insights_count, podcasts_count, archived, created_at, updated_at
		FROM notebooks
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query notebooks: %w", err)
	}
	defer rows.Close()

	notebooks := []models.Notebook{}
	for rows.Next() {
		nb, err := scanNotebook(rows)
		if err != nil {
			return nil, err
		}
		notebooks = append(notebooks, nb)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return notebooks, nil
}

// Get returns the cached notebook with id.
func (r *NotebookRepository) Get(ctx context.Context, id string) (*models.Notebook, error) {
	query := `
		SELECT id, name, description, sources_count, notes_count, insights_count, podcasts_count, archived, created_at, updated_at
		FROM notebooks
		WHERE id = ?
	`

	nb, err := scanNotebook(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notebook not cached: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &nb, nil
}

// CachedAt reports when the snapshot was written. ok is false for an empty snapshot.
func (r *NotebookRepository) CachedAt(ctx context.Context) (at time.Time, ok bool, err error) {
	var cachedAt sql.NullTime
	err = r.db.QueryRowContext(ctx, `SELECT cached_at FROM notebooks ORDER BY position ASC LIMIT 1`).Scan(&cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read snapshot time: %w", err)
	}
	return cachedAt.Time, cachedAt.Valid, nil
}

// Count returns the number of cached notebooks.
func (r *NotebookRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notebooks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count notebooks: %w", err)
	}
	return n, nil
}

// Clear drops the snapshot.
func (r *NotebookRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notebooks`); err != nil {
		return fmt.Errorf("failed to clear notebooks: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNotebook(s scanner) (models.Notebook, error) {
	var (
		nb      models.Notebook
		created sql.NullTime
		updated sql.NullTime
	)

	err := s.Scan(
		&nb.ID,
		&nb.Name,
		&nb.Description,
		&nb.SourcesCount,
		&nb.NotesCount,
		&nb.InsightsCount,
		&nb.PodcastsCount,
		&nb.Archived,
		&created,
		&updated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nb, err
	}
	if err != nil {
		return nb, fmt.Errorf("failed to scan notebook: %w", err)
	}

	if created.Valid {
		nb.Created = models.NewTimestamp(created.Time.UTC())
	}
	if updated.Valid {
		nb.Updated = models.NewTimestamp(updated.Time.UTC())
	}
	return nb, nil
}

func nullTime(ts models.Timestamp) sql.NullTime {
	if ts.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: ts.UTC(), Valid: true}
}
