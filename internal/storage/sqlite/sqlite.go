// Package sqlite provides a SQLite-backed implementation of the
// storage.SessionStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/snaptab/snaptab/internal/storage"
)

// Ensure SQLiteStore implements storage.SessionStore
var _ storage.SessionStore = (*SQLiteStore)(nil)

// SQLiteStore implements storage.SessionStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path. It creates
// the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get retrieves a session record by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*storage.SessionRecord, error) {
	query := `
		SELECT id, access_token, refresh_token, expires_at, updated_at
		FROM sessions
		WHERE id = ?
	`

	rec := &storage.SessionRecord{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.AccessToken,
		&rec.RefreshToken,
		&rec.ExpiresAt,
		&rec.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // Session not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return rec, nil
}

// Put inserts or replaces a session record.
func (s *SQLiteStore) Put(ctx context.Context, rec *storage.SessionRecord) error {
	if rec.UpdatedAt == 0 {
		rec.UpdatedAt = time.Now().Unix()
	}

	query := `
		INSERT INTO sessions (id, access_token, refresh_token, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.AccessToken,
		rec.RefreshToken,
		rec.ExpiresAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put session: %w", err)
	}

	return nil
}

// Delete removes a session record.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// PurgeExpired deletes records whose expiry is before the given cutoff
// (unix milliseconds).
func (s *SQLiteStore) PurgeExpired(ctx context.Context, before int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", before)
	if err != nil {
		return fmt.Errorf("failed to purge sessions: %w", err)
	}
	return nil
}
