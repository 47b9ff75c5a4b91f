// Package storage provides abstractions for persistent server-side session
// storage.
package storage

import "context"

// SessionRecord is one persisted server-side session. ExpiresAt is the
// access token's expiry in unix milliseconds; records outlive it so the
// refresh token stays available for recovery.
type SessionRecord struct {
	ID           string
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
	UpdatedAt    int64
}

// SessionStore defines the interface for server-side session persistence.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL,
// etc.) without changing the session layer.
type SessionStore interface {
	// Get retrieves a session record by id. Returns nil, nil when absent.
	Get(ctx context.Context, id string) (*SessionRecord, error)

	// Put inserts or replaces a session record.
	Put(ctx context.Context, rec *SessionRecord) error

	// Delete removes a session record. Deleting a missing record is not an
	// error.
	Delete(ctx context.Context, id string) error

	// PurgeExpired deletes records whose expiry (unix milliseconds) is
	// before the given cutoff.
	PurgeExpired(ctx context.Context, before int64) error

	// Close releases any resources held by the store.
	Close() error
}
