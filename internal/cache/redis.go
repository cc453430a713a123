package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend is the shared cache tier for multi-worker deployments.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend wraps an existing redis client. prefix namespaces keys so
// several environments can share an instance.
func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "courtwire:cache:"
	}
	return &RedisBackend{client: client, prefix: prefix}
}

// Get fetches a serialized entry; a missing key is (nil, nil).
func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, b.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return data, err
}

// Set stores a serialized entry with the class TTL as the redis expiry.
func (b *RedisBackend) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return b.client.Set(ctx, b.prefix+key, data, ttl).Err()
}
