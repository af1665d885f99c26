package tokenstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/uitestgen/pkg/tokenstore"
)

func writeTokenFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "token.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeTokenFile(t, `{"access_token":"at","csrftoken":"csrf","sessionid":"sid","extra":1}`)

	tokens, err := tokenstore.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tokenstore.Tokens{AccessToken: "at", CSRFToken: "csrf", SessionID: "sid"}, tokens)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := tokenstore.LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read token file")

	_, err = tokenstore.LoadFile(writeTokenFile(t, "not json"))
	assert.ErrorContains(t, err, "decode tokens")
}

func TestTokens_Cookies(t *testing.T) {
	tokens := tokenstore.Tokens{AccessToken: "at", SessionID: "sid"}

	assert.Equal(t, []tokenstore.Cookie{
		{Name: "access_token", Value: "at"},
		{Name: "sessionid", Value: "sid"},
	}, tokens.Cookies())
	assert.False(t, tokens.Empty())
	assert.True(t, tokenstore.Tokens{}.Empty())
	assert.Empty(t, tokenstore.Tokens{}.Cookies())
}

func TestResolve_LoadsAndCaches(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	ctx := context.Background()
	path := writeTokenFile(t, `{"access_token":"at","csrftoken":"csrf","sessionid":"sid"}`)

	tokens, err := tokenstore.Resolve(ctx, store, "polls", "alice", path, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "sid", tokens.SessionID)

	// The file is no longer needed once cached.
	require.NoError(t, os.Remove(path))

	cached, err := tokenstore.Resolve(ctx, store, "polls", "alice", path, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, tokens, cached)
}

func TestResolve_NoFileNoCache(t *testing.T) {
	_, err := tokenstore.Resolve(context.Background(), tokenstore.NewMemoryStore(), "polls", "alice", "", 0)
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)
}

func TestResolve_StoreError(t *testing.T) {
	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.Close())

	_, err := tokenstore.Resolve(context.Background(), store, "polls", "alice", "token.json", 0)
	assert.ErrorIs(t, err, tokenstore.ErrStoreClosed)
}
