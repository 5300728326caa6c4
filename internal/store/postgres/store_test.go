package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/store/storetest"
	"github.com/wonny/imi/pkg/config"
	"github.com/wonny/imi/pkg/database"
)

func TestPostgresStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := database.New(ctx, &config.Config{Database: config.DatabaseConfig{URL: url, MaxConns: 4}})
	require.NoError(t, err)
	st := New(db)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(ctx))

	storetest.Run(t, func(t *testing.T) contracts.Stores {
		_, err := db.Pool.Exec(ctx, `TRUNCATE imi.signals, imi.user_analyses, imi.watchlists, imi.clusters, imi.themes, imi.meta`)
		require.NoError(t, err)
		return nopClose{st}
	})
}

// nopClose keeps the shared pool open across subtests
type nopClose struct{ *Store }

func (nopClose) Close() error { return nil }
