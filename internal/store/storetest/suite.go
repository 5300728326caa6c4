// Package storetest holds the behavior every contracts.Stores backend must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/imi/internal/contracts"
)

// Factory returns a fresh, empty backend
type Factory func(t *testing.T) contracts.Stores

func signal(id, ticker, title string, p50 float64) contracts.Signal {
	s := contracts.NewSignal()
	s.ID = id
	s.Ticker = ticker
	s.Title = title
	s.P50 = contracts.M(p50)
	s.Confidence = contracts.M(60)
	s.CreatedDate = "2025-11-10"
	return s
}

// Run exercises every port against the backend
func Run(t *testing.T, newStores Factory) {
	t.Run("signals_upsert_assigns_id_and_appends", func(t *testing.T) {
		st := newStores(t)
		ctx := context.Background()

		created, err := st.Upsert(ctx, signal("", "AAPL", "first", 1))
		require.NoError(t, err)
		assert.Regexp(t, `^sig_[0-9a-f-]{36}$`, created.ID)

		_, err = st.Upsert(ctx, signal("", "TSLA", "second", 2))
		require.NoError(t, err)

		all, err := st.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "first", all[0].Title)
		assert.Equal(t, "second", all[1].Title)
		assert.False(t, all[0].HasRealized())
	})

	t.Run("signals_upsert_merges_by_id_in_place", func(t *testing.T) {
		st := newStores(t)
		ctx := context.Background()

		_, err := st.Upsert(ctx, signal("1", "AAPL", "old", 1.2))
		require.NoError(t, err)
		_, err = st.Upsert(ctx, signal("2", "TSLA", "other", 0.9))
		require.NoError(t, err)

		patch := contracts.NewSignal()
		patch.ID = "1"
		patch.RealizedExcessReturn = contracts.M(0.7)
		merged, err := st.Upsert(ctx, patch)
		require.NoError(t, err)
		assert.Equal(t, "old", merged.Title)
		assert.Equal(t, 1.2, merged.P50.Float())
		assert.Equal(t, 0.7, merged.RealizedExcessReturn.Float())

		all, err := st.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "1", all[0].ID)
		assert.True(t, all[0].HasRealized())
	})

	t.Run("signals_get", func(t *testing.T) {
		st := newStores(t)
		ctx := context.Background()

		_, err := st.Upsert(ctx, signal("x", "NVDA", "chips", 2))
		require.NoError(t, err)

		got, err := st.Get(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, "NVDA", got.Ticker)

		_, err = st.Get(ctx, "missing")
		assert.ErrorIs(t, err, contracts.ErrSignalNotFound)
	})

	t.Run("signals_seed_only_when_empty", func(t *testing.T) {
		st := newStores(t)
		ctx := context.Background()

		seeded, err := st.Seed(ctx, []contracts.Signal{signal("1", "AAPL", "a", 1), signal("", "TSLA", "b", 1)})
		require.NoError(t, err)
		require.Len(t, seeded, 2)
		assert.NotEmpty(t, seeded[1].ID)

		again, err := st.Seed(ctx, []contracts.Signal{signal("9", "MSFT", "c", 1)})
		require.NoError(t, err)
		assert.Len(t, again, 2)

		all, err := st.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("signals_concurrent_upserts_all_land", func(t *testing.T) {
		st := newStores(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := st.Upsert(ctx, signal(fmt.Sprintf("c%d", i), "AAPL", "t", float64(i)))
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		all, err := st.List(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 10)
	})

	t.Run("analyses_newest_first_per_user", func(t *testing.T) {
		st := newStores(t)
		ctx := context.Background()

		_, err := st.AddAnalysis(ctx, contracts.UserAnalysis{UserID: "demo", SignalID: "1", UserGuessP50: contracts.M(1), CreatedAt: "2025-11-10T00:00:00Z"})
		require.NoError(t, err)
		_, err = st.AddAnalysis(ctx, contracts.UserAnalysis{UserID: "other", SignalID: "1", UserGuessP50: contracts.Null()})
		require.NoError(t, err)
		second, err := st.AddAnalysis(ctx, contracts.UserAnalysis{UserID: "demo", SignalID: "2", UserGuessP50: contracts.Null(), CreatedAt: "2025-11-11T00:00:00Z"})
		require.NoError(t, err)
		assert.NotEmpty(t, second.ID)

		mine, err := st.ListAnalyses(ctx, "demo")
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, "2", mine[0].SignalID)
		assert.False(t, mine[0].UserGuessP50.Valid())
		assert.Equal(t, 1.0, mine[1].UserGuessP50.Float())

		none, err := st.ListAnalyses(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("watchlists_replace_by_id", func(t *testing.T) {
		st := newStores(t)
		ctx := context.Background()

		wl, err := st.SaveWatchlist(ctx, contracts.Watchlist{UserID: "demo", Name: "core", Tickers: []string{"AAPL"}})
		require.NoError(t, err)
		_, err = st.SaveWatchlist(ctx, contracts.Watchlist{UserID: "demo", Name: "chips", Tickers: []string{"NVDA"}})
		require.NoError(t, err)

		wl.Tickers = []string{"MSFT"}
		_, err = st.SaveWatchlist(ctx, wl)
		require.NoError(t, err)

		lists, err := st.ListWatchlists(ctx, "demo")
		require.NoError(t, err)
		require.Len(t, lists, 2)
		assert.Equal(t, "chips", lists[0].Name)
		assert.Equal(t, []string{"MSFT"}, lists[1].Tickers)
	})

	t.Run("clusters_set_semantics", func(t *testing.T) {
		st := newStores(t)
		ctx := context.Background()

		c, err := st.CreateCluster(ctx, contracts.Cluster{Name: "Earnings week"})
		require.NoError(t, err)
		assert.Empty(t, c.SignalIDs)

		_, err = st.AddSignalToCluster(ctx, c.ID, "s1")
		require.NoError(t, err)
		got, err := st.AddSignalToCluster(ctx, c.ID, "s1")
		require.NoError(t, err)
		assert.Equal(t, []string{"s1"}, got.SignalIDs)

		_, err = st.AddSignalToCluster(ctx, "clu_missing", "s1")
		assert.ErrorIs(t, err, contracts.ErrClusterNotFound)

		all, err := st.ListClusters(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, []string{"s1"}, all[0].SignalIDs)
	})

	t.Run("themes_absent_until_saved", func(t *testing.T) {
		st := newStores(t)
		ctx := context.Background()

		themes, err := st.ListThemes(ctx)
		require.NoError(t, err)
		assert.Nil(t, themes)

		require.NoError(t, st.SaveThemes(ctx, []contracts.Theme{{ID: "th_1", Slug: "ai-chips", Tickers: []string{"NVDA"}}}))

		themes, err = st.ListThemes(ctx)
		require.NoError(t, err)
		require.Len(t, themes, 1)
		assert.Equal(t, "ai-chips", themes[0].Slug)
	})
}
