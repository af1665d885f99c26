package tokenstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// expiryLayout is fixed-width so stored expiries compare lexically.
const expiryLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists tokens to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	now    func() time.Time
	closed bool
}

// Compile-time interface check.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite token store.
// The path should be a file path (e.g., "./auth_tokens.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS auth_tokens (
			app TEXT NOT NULL,
			username TEXT NOT NULL,
			token TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			PRIMARY KEY (app, username)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// WithClock replaces the store's time source. Used by tests.
func (s *SQLiteStore) WithClock(now func() time.Time) *SQLiteStore {
	s.now = now
	return s
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, app, username string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", ErrStoreClosed
	}

	var token, expiresAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT token, expires_at FROM auth_tokens
		WHERE app = ? AND username = ?
	`, app, username).Scan(&token, &expiresAt)

	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}

	expires, err := time.Parse(expiryLayout, expiresAt)
	if err != nil {
		return "", fmt.Errorf("parse expiry %q: %w", expiresAt, err)
	}
	if !expires.After(s.now()) {
		return "", ErrNotFound
	}
	return token, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, app, username, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	expires := s.now().Add(effectiveTTL(ttl)).UTC().Format(expiryLayout)
	_, err := s.db.ExecContext(ctx, `
		REPLACE INTO auth_tokens (app, username, token, expires_at)
		VALUES (?, ?, ?, ?)
	`, app, username, token, expires)
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, app, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM auth_tokens
		WHERE app = ? AND username = ?
	`, app, username)
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Purge deletes every expired token and reports how many were removed.
func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	now := s.now().UTC().Format(expiryLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM auth_tokens WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("purge tokens: %w", err)
	}
	return res.RowsAffected()
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
