package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Tokens are the session credentials injected as browser cookies.
type Tokens struct {
	AccessToken string `json:"access_token"`
	CSRFToken   string `json:"csrftoken"`
	SessionID   string `json:"sessionid"`
}

// Cookie is a name/value pair to set in the browser before navigating.
type Cookie struct {
	Name  string
	Value string
}

// Empty reports whether no credential is set.
func (t Tokens) Empty() bool {
	return t.AccessToken == "" && t.CSRFToken == "" && t.SessionID == ""
}

// Cookies returns the non-empty credentials as cookies named after their
// JSON keys, in a fixed order.
func (t Tokens) Cookies() []Cookie {
	all := []Cookie{
		{Name: "access_token", Value: t.AccessToken},
		{Name: "csrftoken", Value: t.CSRFToken},
		{Name: "sessionid", Value: t.SessionID},
	}
	out := all[:0]
	for _, c := range all {
		if c.Value != "" {
			out = append(out, c)
		}
	}
	return out
}

// Encode serializes the tokens for storage in a Store.
func (t Tokens) Encode() (string, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encode tokens: %w", err)
	}
	return string(data), nil
}

// Decode parses tokens produced by Encode or read from a token file.
func Decode(data string) (Tokens, error) {
	var t Tokens
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return Tokens{}, fmt.Errorf("decode tokens: %w", err)
	}
	return t, nil
}

// LoadFile reads a token JSON file.
func LoadFile(path string) (Tokens, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tokens{}, fmt.Errorf("read token file: %w", err)
	}
	return Decode(string(data))
}

// Resolve returns the cached tokens for (app, username), loading them from
// the token file at path and caching them for ttl on a miss.
// An empty path with nothing cached returns ErrNotFound.
func Resolve(ctx context.Context, store Store, app, username, path string, ttl time.Duration) (Tokens, error) {
	cached, err := store.Get(ctx, app, username)
	switch {
	case err == nil:
		return Decode(cached)
	case !errors.Is(err, ErrNotFound):
		return Tokens{}, err
	case path == "":
		return Tokens{}, ErrNotFound
	}

	tokens, err := LoadFile(path)
	if err != nil {
		return Tokens{}, err
	}

	encoded, err := tokens.Encode()
	if err != nil {
		return Tokens{}, err
	}
	if err := store.Put(ctx, app, username, encoded, ttl); err != nil {
		return Tokens{}, fmt.Errorf("cache tokens: %w", err)
	}
	return tokens, nil
}
