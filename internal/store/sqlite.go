// ABOUTME: SQLite implementation of the ItemStore interface using modernc.org/sqlite
// ABOUTME: Emulates the fixed-partition recency index with a composite SQL index

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the ItemStore interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		// Ensure parent directory exists
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Every pooled connection to :memory: is a separate database
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the items table if it doesn't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS items (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL DEFAULT '',
			completed  INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			gsi_pk     TEXT NOT NULL
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// runMigrations applies schema migrations for existing databases.
// These are idempotent - safe to run multiple times.
func (s *SQLiteStore) runMigrations() error {
	// Migration: items created before the recency index carried no partition
	// value and would be invisible to ListAllOrderedByRecency
	var exists int
	err := s.db.QueryRow(`SELECT 1 FROM pragma_table_info('items') WHERE name = 'gsi_pk'`).Scan(&exists)
	if err != nil {
		if _, err := s.db.Exec(`ALTER TABLE items ADD COLUMN gsi_pk TEXT NOT NULL DEFAULT 'TODO'`); err != nil {
			return fmt.Errorf("adding gsi_pk column to items: %w", err)
		}
		s.logger.Info("applied migration", "column", "gsi_pk", "table", "items")
	}

	// The secondary ordered path; walked backwards by ListAllOrderedByRecency
	if _, err := s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_items_partition_updated ON items(gsi_pk, updated_at, id)`); err != nil {
		return fmt.Errorf("creating idx_items_partition_updated: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// upsert writes the full record, replacing any row with the same id.
func (s *SQLiteStore) upsert(ctx context.Context, item *Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, title, completed, created_at, updated_at, gsi_pk)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			completed = excluded.completed,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			gsi_pk = excluded.gsi_pk
	`, item.ID, item.Title, item.Completed, item.CreatedAt, item.UpdatedAt, item.IndexPartition)
	return err
}

// Insert writes a new item. A row with the same id is overwritten.
func (s *SQLiteStore) Insert(ctx context.Context, item *Item) error {
	if err := s.upsert(ctx, item); err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}
	return nil
}

// GetByID retrieves an item by ID.
// Returns ErrNotFound if the item doesn't exist.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*Item, error) {
	var item Item
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, completed, created_at, updated_at, gsi_pk
		FROM items WHERE id = ?
	`, id).Scan(&item.ID, &item.Title, &item.Completed, &item.CreatedAt, &item.UpdatedAt, &item.IndexPartition)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying item: %w", err)
	}
	return &item, nil
}

// Update overwrites the full record keyed by item.ID.
func (s *SQLiteStore) Update(ctx context.Context, item *Item) error {
	if err := s.upsert(ctx, item); err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// UpdateIfUnchanged overwrites the mutable fields only while updated_at still
// equals expectedUpdatedAt.
func (s *SQLiteStore) UpdateIfUnchanged(ctx context.Context, item *Item, expectedUpdatedAt string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE items SET title = ?, completed = ?, updated_at = ?
		WHERE id = ? AND updated_at = ?
	`, item.Title, item.Completed, item.UpdatedAt, item.ID, expectedUpdatedAt)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// Distinguish a stale stamp from a vanished row
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM items WHERE id = ?`, item.ID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking item existence: %w", err)
	}
	return ErrConflict
}

// Delete deletes an item by ID.
// Returns ErrNotFound if the item doesn't exist.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListAllOrderedByRecency scans idx_items_partition_updated backwards for the
// constant partition.
func (s *SQLiteStore) ListAllOrderedByRecency(ctx context.Context) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, completed, created_at, updated_at, gsi_pk
		FROM items
		WHERE gsi_pk = ?
		ORDER BY updated_at DESC, id DESC
	`, IndexPartition)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []*Item{}
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Completed, &item.CreatedAt, &item.UpdatedAt, &item.IndexPartition); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	return items, nil
}
