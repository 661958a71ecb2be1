// Package storage holds the durable key/value backends the session store
// persists its entries to. Values are opaque bytes; callers own encoding.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mindcareplus/mindcare/client/internal/config"
	"github.com/mindcareplus/mindcare/client/internal/database"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Storage is a small durable key/value store.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Closer is implemented by backends holding network connections.
type Closer interface {
	Close(ctx context.Context) error
}

// Open builds the backend selected by cfg.Storage.Backend.
func Open(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return NewMemoryStorage(), nil
	case config.BackendFile:
		return NewFileStorage(cfg.Storage.Dir)
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return NewRedisStorage(client, cfg.Storage.Prefix), nil
	case config.BackendMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			return nil, err
		}
		col := client.Database(cfg.MongoDB.Database).Collection("client_state")
		return NewMongoStorage(client, col, cfg.Storage.Prefix), nil
	case config.BackendPostgres:
		db, err := database.ConnectPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.Timeout)
		if err != nil {
			return nil, err
		}
		s := NewPostgresStorage(db, cfg.Storage.Prefix)
		if err := s.EnsureTable(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("postgres schema: %w", err)
		}
		return s, nil
	case config.BackendMinIO:
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return NewMinIOStorage(ctx, &cfg.MinIO, cfg.Storage.Prefix)
	}
	return nil, fmt.Errorf("storage: unknown backend %q", cfg.Storage.Backend)
}
