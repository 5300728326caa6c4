package factory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/imi/internal/store"
	"github.com/wonny/imi/pkg/config"
	"github.com/wonny/imi/pkg/logger"
	"github.com/wonny/imi/pkg/redis"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	disabled, err := redis.New(ctx, &config.Config{})
	require.NoError(t, err)

	t.Run("memory", func(t *testing.T) {
		st, err := Open(ctx, &config.Config{Store: config.StoreConfig{Backend: config.StoreMemory}}, logger.Nop(), disabled)
		require.NoError(t, err)
		defer st.Close()
		assert.IsType(t, &store.Repository{}, st)
	})

	t.Run("sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "imi.db")
		st, err := Open(ctx, &config.Config{Store: config.StoreConfig{Backend: config.StoreSQLite, SQLitePath: path}}, logger.Nop(), disabled)
		require.NoError(t, err)
		defer st.Close()

		list, err := st.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("redis requires enabled client", func(t *testing.T) {
		_, err := Open(ctx, &config.Config{Store: config.StoreConfig{Backend: config.StoreRedis}}, logger.Nop(), disabled)
		assert.Error(t, err)
	})

	t.Run("postgres requires url", func(t *testing.T) {
		_, err := Open(ctx, &config.Config{Store: config.StoreConfig{Backend: config.StorePostgres}}, logger.Nop(), disabled)
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Open(ctx, &config.Config{Store: config.StoreConfig{Backend: "mongo"}}, logger.Nop(), disabled)
		assert.Error(t, err)
	})
}
