// Package tokenstore caches authentication tokens keyed by application and
// username, each with an expiry.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultTTL is the lifetime of a token saved without an explicit TTL.
const DefaultTTL = 30 * time.Minute

// Store persists tokens with an expiry.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the token for (app, username).
	// Returns ErrNotFound if no token exists or it has expired.
	Get(ctx context.Context, app, username string) (string, error)

	// Put saves a token, replacing any existing one for (app, username).
	// A ttl <= 0 uses DefaultTTL.
	Put(ctx context.Context, app, username, token string, ttl time.Duration) error

	// Delete removes a token.
	// Returns nil if the token doesn't exist.
	Delete(ctx context.Context, app, username string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for token operations.
var (
	// ErrNotFound indicates a token doesn't exist or has expired.
	ErrNotFound = errors.New("token not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("token store closed")
)

func effectiveTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}

// Open creates a store from a URL:
//
//	memory://                    in-process map
//	sqlite://auth_tokens.db      SQLite file (sqlite://:memory: for tests)
//	redis://localhost:6379/0     Redis, optional database number
func Open(url string) (Store, error) {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return nil, fmt.Errorf("token store url %q: missing scheme", url)
	}

	switch scheme {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		if rest == "" {
			rest = "auth_tokens.db"
		}
		return NewSQLiteStore(rest)
	case "redis":
		addr, db, err := parseRedisAddr(rest)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(addr, "", db), nil
	default:
		return nil, fmt.Errorf("token store url %q: unsupported scheme %q", url, scheme)
	}
}

func parseRedisAddr(rest string) (string, int, error) {
	addr, dbPart, hasDB := strings.Cut(rest, "/")
	if addr == "" {
		addr = "localhost:6379"
	}
	if !hasDB || dbPart == "" {
		return addr, 0, nil
	}
	db, err := strconv.Atoi(dbPart)
	if err != nil {
		return "", 0, fmt.Errorf("redis database %q: %w", dbPart, err)
	}
	return addr, db, nil
}
