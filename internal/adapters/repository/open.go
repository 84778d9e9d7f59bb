package repository

import (
	"context"
	"fmt"

	"github.com/ivansugi/enketo-express-oc/internal/config"
)

// Open builds the store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		return NewSQLiteStore(ctx, cfg.SQLitePath)
	case config.StoreRedis:
		return NewRedisStore(ctx,
			WithRedisAddr(cfg.RedisAddr),
			WithRedisAuth(cfg.RedisPassword),
			WithRedisDB(cfg.RedisDB),
			WithRedisDialTimeout(cfg.RedisDialTimeout()),
		)
	case config.StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StoreDriver)
	}
}
