// Package factory opens the signal store selected by STORE_BACKEND.
package factory

import (
	"context"
	"fmt"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/store"
	"github.com/wonny/imi/internal/store/postgres"
	"github.com/wonny/imi/internal/store/rediskv"
	"github.com/wonny/imi/internal/store/sqlitekv"
	"github.com/wonny/imi/pkg/config"
	"github.com/wonny/imi/pkg/database"
	"github.com/wonny/imi/pkg/logger"
	"github.com/wonny/imi/pkg/redis"
)

// Open returns the configured contracts.Stores implementation.
// rc is the shared redis client; it is only required for the redis backend.
// ⭐ SSOT: 백엔드 선택은 여기서만
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger, rc *redis.Client) (contracts.Stores, error) {
	log = log.WithField("store", cfg.Store.Backend)

	switch cfg.Store.Backend {
	case config.StoreMemory, "":
		log.Info("Using in-memory store")
		return store.NewMemory(log), nil

	case config.StoreSQLite:
		kv, err := sqlitekv.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		log.WithField("path", cfg.Store.SQLitePath).Info("Using sqlite store")
		return store.NewRepository(kv, log), nil

	case config.StoreRedis:
		kv, err := rediskv.New(rc, cfg.Redis.Prefix)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		log.Info("Using redis store")
		return store.NewRepository(kv, log), nil

	case config.StorePostgres:
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		st := postgres.New(db)
		if err := st.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("Using postgres store")
		return st, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
