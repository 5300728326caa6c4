package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignals_Embedded(t *testing.T) {
	list, err := Signals()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(list), 2)

	aapl := list[0]
	assert.Equal(t, "1", aapl.ID)
	assert.Equal(t, "AAPL", aapl.Ticker)
	assert.Equal(t, "2025-11-10", aapl.CreatedDate)
	assert.Equal(t, 1.2, aapl.P50.Float())
	assert.Equal(t, 72.0, aapl.Confidence.Float())
	assert.Equal(t, "Earnings, Demand, Supply Chain", aapl.Drivers)
	assert.False(t, aapl.HasRealized())

	tsla := list[1]
	assert.Equal(t, "2", tsla.ID)
	assert.Equal(t, "TSLA", tsla.Ticker)

	realized := 0
	for _, s := range list {
		if s.HasRealized() {
			realized++
		}
	}
	assert.Greater(t, realized, 0, "seed set should exercise the screener")
}

func TestThemes_Embedded(t *testing.T) {
	themes, err := Themes()
	require.NoError(t, err)
	require.Len(t, themes, 2)

	assert.Equal(t, "ai-chips", themes[0].Slug)
	assert.Equal(t, []string{"NVDA", "AMD", "TSM", "AVGO"}, themes[0].Tickers)
	assert.Equal(t, "megacap-tech", themes[1].Slug)
	assert.Regexp(t, `^th_[0-9a-f-]{36}$`, themes[0].ID)
	assert.NotEqual(t, themes[0].ID, themes[1].ID)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("aliases", func(t *testing.T) {
		path := filepath.Join(dir, "ok.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
version: 1
signals:
  - headline: Chip export rules eased
    tickers: [nvda, amd]
    median: 1.5
    low: -0.2
    high: 2.8
    calibrated_confidence: 66
    published_at: "2025-11-01T09:30:00Z"
`), 0o644))

		list, err := LoadFile(path)
		require.NoError(t, err)
		require.Len(t, list, 1)
		s := list[0]
		assert.Equal(t, "NVDA", s.Ticker)
		assert.Equal(t, "Chip export rules eased", s.Title)
		assert.Equal(t, 1.5, s.P50.Float())
		assert.Equal(t, -0.2, s.P20.Float())
		assert.Equal(t, 2.8, s.P80.Float())
		assert.Equal(t, 66.0, s.Confidence.Float())
		assert.Equal(t, "2025-11-01T09:30:00Z", s.CreatedDate)
		assert.Empty(t, s.ID)
	})

	t.Run("unknown field fails", func(t *testing.T) {
		path := filepath.Join(dir, "typo.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
signals:
  - title: x
    ticker: AAPL
    confidance: 50
`), 0o644))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("blank record fails validation", func(t *testing.T) {
		path := filepath.Join(dir, "blank.yaml")
		require.NoError(t, os.WriteFile(path, []byte("signals:\n  - p50: 1\n"), 0o644))

		_, err := LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestChecksum(t *testing.T) {
	assert.Len(t, Checksum(), 16)
	assert.Equal(t, Checksum(), Checksum())
}
