package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisStorage implements Storage using Redis as the backing store.
// Entries are stored under key "<prefix><key>" without TTL; the session
// store deletes them explicitly on logout.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage creates a Redis-based storage. Prefix may be empty.
func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = "mindcare:"
	}
	return &RedisStorage{client: client, prefix: prefix}
}

func (r *RedisStorage) key(k string) string {
	return r.prefix + k
}

func (r *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *RedisStorage) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *RedisStorage) Close(ctx context.Context) error {
	return r.client.Close()
}

// Client exposes the connection for other Redis-backed helpers.
func (r *RedisStorage) Client() *redis.Client { return r.client }
