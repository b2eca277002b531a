package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// =============================================================================
// Helper Functions
// =============================================================================

// queryer is satisfied by both *DB and *Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// parseTimestamp parses a timestamp from SQLite TEXT format.
// Returns the zero time if parsing fails.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Validate checks a feast row before it is written.
func (f *Feast) Validate() error {
	if !f.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidFeast, f.Category)
	}
	if f.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidFeast)
	}
	if f.Day < 1 || f.Day > 30 {
		return fmt.Errorf("%w: day %d out of range", ErrInvalidFeast, f.Day)
	}
	if f.Category == FeastCategoryMonthly {
		if f.MonthIndex != nil {
			return fmt.Errorf("%w: monthly feast %q must not name a month", ErrInvalidFeast, f.Name)
		}
		return nil
	}
	if f.MonthIndex == nil {
		return fmt.Errorf("%w: %s feast %q needs a month", ErrInvalidFeast, f.Category, f.Name)
	}
	if *f.MonthIndex < 0 || *f.MonthIndex > 12 {
		return fmt.Errorf("%w: month index %d out of range", ErrInvalidFeast, *f.MonthIndex)
	}
	return nil
}

func storedMonth(f *Feast) int {
	if f.MonthIndex == nil {
		return EveryMonth
	}
	return *f.MonthIndex
}

// =============================================================================
// Feast Queries
// =============================================================================

// UpsertFeast inserts a feast, or refreshes position/source if the same
// (category, month, day, name) row exists. Sets f.ID.
func (db *DB) UpsertFeast(ctx context.Context, f *Feast) error {
	return upsertFeast(ctx, db, f)
}

// UpsertFeast is the transactional variant used by the importer.
func (tx *Tx) UpsertFeast(ctx context.Context, f *Feast) error {
	return upsertFeast(ctx, tx, f)
}

func upsertFeast(ctx context.Context, q queryer, f *Feast) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Position == 0 {
		f.Position = 1
	}
	if f.Source == "" {
		f.Source = SourceBuiltin
	}

	query := `
		INSERT INTO feasts (category, month_index, day, name, position, source)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(category, month_index, day, name) DO UPDATE SET
			position = excluded.position,
			source = excluded.source,
			updated_at = datetime('now')
		RETURNING id
	`

	err := q.QueryRowContext(ctx, query,
		string(f.Category),
		storedMonth(f),
		f.Day,
		f.Name,
		f.Position,
		f.Source,
	).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("upsert feast: %w", err)
	}

	return nil
}

// SeedFeasts upserts a batch of feasts in one transaction.
// Safe to run on every startup.
func (db *DB) SeedFeasts(ctx context.Context, feasts []Feast) (int, error) {
	count := 0
	err := db.WithTx(ctx, func(tx *Tx) error {
		for i := range feasts {
			if err := tx.UpsertFeast(ctx, &feasts[i]); err != nil {
				return fmt.Errorf("seed feast %q: %w", feasts[i].Name, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	db.logger.Debug("feasts seeded", slog.Int("count", count))
	return count, nil
}

// ListFeasts returns every feast ordered by category, date and position.
func (db *DB) ListFeasts(ctx context.Context) ([]Feast, error) {
	return listFeasts(ctx, db, "")
}

// ListFeasts is the transactional variant, used to check a batch before it
// is committed.
func (tx *Tx) ListFeasts(ctx context.Context) ([]Feast, error) {
	return listFeasts(ctx, tx, "")
}

// ListFeastsByCategory returns the feasts of one table.
func (db *DB) ListFeastsByCategory(ctx context.Context, category FeastCategory) ([]Feast, error) {
	if !category.IsValid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidFeast, category)
	}
	return listFeasts(ctx, db, category)
}

func listFeasts(ctx context.Context, q queryer, category FeastCategory) ([]Feast, error) {
	query := `
		SELECT id, category, month_index, day, name, position, source, created_at, updated_at
		FROM feasts
		WHERE (? = '' OR category = ?)
		ORDER BY category, month_index, day, position, id
	`

	rows, err := q.QueryContext(ctx, query, string(category), string(category))
	if err != nil {
		return nil, fmt.Errorf("query feasts: %w", err)
	}
	defer rows.Close()

	var feasts []Feast
	for rows.Next() {
		f, err := scanFeast(rows)
		if err != nil {
			return nil, err
		}
		feasts = append(feasts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feast rows: %w", err)
	}

	return feasts, nil
}

// GetFeastByID retrieves one feast.
// Returns ErrNotFound if no row has that ID.
func (db *DB) GetFeastByID(ctx context.Context, id int64) (*Feast, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, category, month_index, day, name, position, source, created_at, updated_at
		FROM feasts
		WHERE id = ?
	`, id)

	f, err := scanFeast(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// DeleteFeast removes a feast by ID.
// Returns ErrNotFound if the ID doesn't exist.
func (db *DB) DeleteFeast(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM feasts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete feast: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// GetFeastStats counts feasts per category.
func (db *DB) GetFeastStats(ctx context.Context) (*FeastStats, error) {
	rows, err := db.QueryContext(ctx, `SELECT category, COUNT(*) FROM feasts GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("query feast stats: %w", err)
	}
	defer rows.Close()

	stats := &FeastStats{ByCategory: make(map[FeastCategory]int)}
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, fmt.Errorf("scan feast stats: %w", err)
		}
		stats.ByCategory[FeastCategory(category)] = n
		stats.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feast stats: %w", err)
	}

	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFeast(s scanner) (Feast, error) {
	var f Feast
	var category, createdAt, updatedAt string
	var month int

	err := s.Scan(&f.ID, &category, &month, &f.Day, &f.Name, &f.Position, &f.Source, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return f, err
		}
		return f, fmt.Errorf("scan feast row: %w", err)
	}

	f.Category = FeastCategory(category)
	if month != EveryMonth {
		f.MonthIndex = &month
	}
	f.CreatedAt = parseTimestamp(createdAt)
	f.UpdatedAt = parseTimestamp(updatedAt)

	return f, nil
}
