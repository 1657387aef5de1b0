package storage

import (
	"context"
	"fmt"

	"WikiFetch/internal/config"
	"WikiFetch/internal/ports"
)

// Store is an ArticleStore that owns a connection or pool.
type Store interface {
	ports.ArticleStore
	Close() error
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLStore)(nil)
	_ Store = (*RedisStore)(nil)
)

// Open builds the backend named by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", config.BackendMemory:
		store, err := NewMemoryStore(cfg.Memory.Size)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendSQLite:
		return openSQL(ctx, DriverSQLite, cfg.SQLite.Path)
	case config.BackendPostgres:
		return openSQL(ctx, DriverPostgres, cfg.Postgres.DSN)
	case config.BackendRedis:
		client, err := NewRedisClient(cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return NewRedisStore(client, cfg.Redis.Prefix, cfg.Redis.TTL), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

func openSQL(ctx context.Context, driver, dsn string) (Store, error) {
	store, err := OpenSQLStore(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	return store, nil
}
