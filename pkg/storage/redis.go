package storage

import (
	"context"
	stderrors "errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed store.
// It's suitable for deployments where several processes share one selection.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	owned  bool
	closed atomic.Bool
}

// RedisStoreOption configures RedisStore behavior.
type RedisStoreOption func(*RedisStore)

// WithRedisPrefix sets the key prefix.
// Default: "teamstore:".
func WithRedisPrefix(prefix string) RedisStoreOption {
	return func(r *RedisStore) {
		r.prefix = prefix
	}
}

// WithRedisTTL sets an expiration applied on every write.
// Default: 0 (no expiration).
func WithRedisTTL(ttl time.Duration) RedisStoreOption {
	return func(r *RedisStore) {
		r.ttl = ttl
	}
}

// withOwnedClient makes Close also close the client. Used by Open, which
// creates the client itself.
func withOwnedClient() RedisStoreOption {
	return func(r *RedisStore) {
		r.owned = true
	}
}

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	r := &RedisStore{
		client: client,
		prefix: "teamstore:",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisStore) key(key string) string {
	return r.prefix + key
}

// Get returns the value stored under key.
func (r *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	if r.closed.Load() {
		return "", false, ErrStoreClosed
	}

	v, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return v, true, nil
}

// Set stores value under key.
func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}
	return r.client.Set(ctx, r.key(key), value, r.ttl).Err()
}

// Delete removes key from Redis.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if r.closed.Load() {
		return ErrStoreClosed
	}
	return r.client.Del(ctx, r.key(key)).Err()
}

// Close marks the store as closed.
// The client is only closed if the store created it.
func (r *RedisStore) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	if r.owned {
		return r.client.Close()
	}
	return nil
}

// Prefix returns the current key prefix.
func (r *RedisStore) Prefix() string {
	return r.prefix
}
