package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	sqlitemigrate "github.com/louisbranch/slotted/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/slotted/internal/slotted/storage"
	"github.com/louisbranch/slotted/internal/slotted/storage/sqlite/migrations"
)

// Store provides SQLite-backed journal persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a journal SQLite store and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RecordEntries persists a batch of entries in one transaction.
func (s *Store) RecordEntries(ctx context.Context, entries []storage.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		if err := normalize(&entries[i]); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO journal_entries (
	run_id,
	tick,
	object_id,
	kind,
	role,
	name,
	variant,
	label,
	created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare journal insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx,
			entry.RunID,
			entry.Tick,
			entry.ObjectID,
			entry.Kind,
			entry.Role,
			entry.Name,
			entry.Variant,
			entry.Label,
			entry.CreatedAt.UTC().UnixMilli(),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal batch: %w", err)
	}
	return nil
}

func normalize(entry *storage.Entry) error {
	entry.RunID = strings.TrimSpace(entry.RunID)
	entry.Role = strings.TrimSpace(entry.Role)
	entry.Kind = strings.TrimSpace(entry.Kind)
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if entry.Role == "" {
		return fmt.Errorf("role is required")
	}
	if entry.Variant < storage.NoVariant {
		entry.Variant = storage.NoVariant
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return nil
}

// ListEntries lists a run's entries in journal order.
func (s *Store) ListEntries(ctx context.Context, runID string, limit int) ([]storage.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	id,
	run_id,
	tick,
	object_id,
	kind,
	role,
	name,
	variant,
	label,
	created_at
FROM journal_entries
WHERE run_id = ?
ORDER BY id ASC
LIMIT ?
`, strings.TrimSpace(runID), limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]storage.Entry, 0, limit)
	for rows.Next() {
		var entry storage.Entry
		var createdAt int64
		if err := rows.Scan(
			&entry.ID,
			&entry.RunID,
			&entry.Tick,
			&entry.ObjectID,
			&entry.Kind,
			&entry.Role,
			&entry.Name,
			&entry.Variant,
			&entry.Label,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entry.CreatedAt = time.UnixMilli(createdAt).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// CountByRole summarizes a run's entries per role, ordered by role.
func (s *Store) CountByRole(ctx context.Context, runID string) ([]storage.RoleCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT role, COUNT(*)
FROM journal_entries
WHERE run_id = ?
GROUP BY role
ORDER BY role ASC
`, strings.TrimSpace(runID))
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	defer rows.Close()

	var counts []storage.RoleCount
	for rows.Next() {
		var count storage.RoleCount
		if err := rows.Scan(&count.Role, &count.Count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts = append(counts, count)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

var _ storage.Journal = (*Store)(nil)
