package tokenstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/uitestgen/pkg/tokenstore"
)

func TestSQLiteStore_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "auth_tokens.db")
	ctx := context.Background()

	store1, err := tokenstore.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store1.Put(ctx, "polls", "alice", "persistent", time.Hour))
	require.NoError(t, store1.Close())

	store2, err := tokenstore.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	got, err := store2.Get(ctx, "polls", "alice")
	require.NoError(t, err)
	assert.Equal(t, "persistent", got)
}

func TestSQLiteStore_Expiry(t *testing.T) {
	clock := newClock()
	store, err := tokenstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	store.WithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "polls", "alice", "tok", time.Minute))

	clock.Advance(30 * time.Second)
	_, err = store.Get(ctx, "polls", "alice")
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	_, err = store.Get(ctx, "polls", "alice")
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)
}

func TestSQLiteStore_Purge(t *testing.T) {
	clock := newClock()
	store, err := tokenstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()
	store.WithClock(clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "polls", "short", "a", time.Minute))
	require.NoError(t, store.Put(ctx, "polls", "long", "b", time.Hour))

	clock.Advance(2 * time.Minute)
	n, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.Get(ctx, "polls", "long")
	require.NoError(t, err)
	assert.Equal(t, "b", got)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := tokenstore.NewSQLiteStore("/nonexistent/path/db.sqlite")
	assert.Error(t, err)
}

func TestSQLiteStore_CloseIdempotent(t *testing.T) {
	store, err := tokenstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())

	_, err = store.Get(context.Background(), "a", "b")
	assert.ErrorIs(t, err, tokenstore.ErrStoreClosed)
}
