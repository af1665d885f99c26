package tokenstore

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryStore keeps tokens in memory. It is intended for tests and
// single-run CLI use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[[2]string]memoryEntry
	now     func() time.Time
	closed  bool
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[[2]string]memoryEntry),
		now:     time.Now,
	}
}

// WithClock replaces the store's time source. Used by tests.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

// Get implements Store.
func (m *MemoryStore) Get(_ context.Context, app, username string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", ErrStoreClosed
	}

	e, ok := m.entries[[2]string{app, username}]
	if !ok || !e.expiresAt.After(m.now()) {
		return "", ErrNotFound
	}
	return e.token, nil
}

// Put implements Store.
func (m *MemoryStore) Put(_ context.Context, app, username, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	m.entries[[2]string{app, username}] = memoryEntry{
		token:     token,
		expiresAt: m.now().Add(effectiveTTL(ttl)),
	}
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, app, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	delete(m.entries, [2]string{app, username})
	return nil
}

// Len returns the number of stored tokens, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.entries = nil
	return nil
}
