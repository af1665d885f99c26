package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// RedisStore keeps tokens in Redis. Expiry is delegated to Redis key TTLs,
// so several processes can share one cache.
type RedisStore struct {
	client *backend.Client
	prefix string
}

// Compile-time interface check.
var _ Store = (*RedisStore)(nil)

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix for tokens.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore connects to the Redis server at address.
func NewRedisStore(address, password string, db int, opts ...RedisOption) *RedisStore {
	return NewRedisStoreFromClient(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), opts...)
}

// NewRedisStoreFromClient creates a store from an existing client.
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "uitestgen:token:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(app, username string) string {
	return s.prefix + app + ":" + username
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, app, username string) (string, error) {
	token, err := s.client.Get(ctx, s.key(app, username)).Result()
	if errors.Is(err, backend.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", s.wrap("load token", err)
	}
	return token, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, app, username, token string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(app, username), token, effectiveTTL(ttl)).Err(); err != nil {
		return s.wrap("save token", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, app, username string) error {
	if err := s.client.Del(ctx, s.key(app, username)).Err(); err != nil {
		return s.wrap("delete token", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil && !errors.Is(err, backend.ErrClosed) {
		return err
	}
	return nil
}

func (s *RedisStore) wrap(op string, err error) error {
	if errors.Is(err, backend.ErrClosed) {
		return ErrStoreClosed
	}
	return fmt.Errorf("%s: %w", op, err)
}
