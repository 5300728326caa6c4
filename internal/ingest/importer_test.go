package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/forecast"
	"github.com/wonny/imi/internal/signals"
	"github.com/wonny/imi/pkg/httputil"
	"github.com/wonny/imi/pkg/logger"
)

const articleHTML = `<!doctype html>
<html><head>
<title>Fallback title | Example</title>
<meta property="og:title" content="NVIDIA guides above consensus">
<meta property="og:site_name" content="Reuters">
<meta name="description" content="Data-center demand keeps accelerating.">
<meta property="article:published_time" content="2025-11-10T13:00:00Z">
</head><body><p>text</p></body></html>`

type fakeForecaster struct {
	got forecast.NewsRequest
	out forecast.NewsForecast
}

func (f *fakeForecaster) ForecastNews(_ context.Context, req forecast.NewsRequest) forecast.NewsForecast {
	f.got = req
	return f.out
}

type fakeWriter struct {
	stored []contracts.Signal
}

func (w *fakeWriter) UpsertSignal(_ context.Context, raw contracts.RawSignal) (contracts.Signal, error) {
	s := signals.Normalize(raw)
	s.ID = "sig_test"
	w.stored = append(w.stored, s)
	return s, nil
}

func newImporter(f Forecaster, w SignalWriter) *Importer {
	return NewImporter(httputil.New(logger.Nop()).DisableRetry(), f, w, logger.Nop())
}

func TestParsePage(t *testing.T) {
	page, err := ParsePage(strings.NewReader(articleHTML))
	require.NoError(t, err)
	assert.Equal(t, "NVIDIA guides above consensus", page.Title)
	assert.Equal(t, "Reuters", page.SiteName)
	assert.Equal(t, "Data-center demand keeps accelerating.", page.Description)
	assert.Equal(t, "2025-11-10T13:00:00Z", page.PublishedAt)

	bare, err := ParsePage(strings.NewReader(`<html><head><title> Plain </title></head></html>`))
	require.NoError(t, err)
	assert.Equal(t, "Plain", bare.Title)
	assert.Empty(t, bare.SiteName)
}

func TestImport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	f := &fakeForecaster{out: forecast.NewsForecast{
		HorizonDays:     10,
		MedianExcessPct: contracts.M(2.1),
		P20ExcessPct:    contracts.M(0.2),
		P80ExcessPct:    contracts.M(4),
		Confidence:      contracts.M(0.7),
		ProbUp:          contracts.Null(),
		ProbDown:        contracts.Null(),
	}}
	w := &fakeWriter{}

	res, err := newImporter(f, w).Import(context.Background(), ImportRequest{URL: srv.URL + "/story", Ticker: "nvda"})
	require.NoError(t, err)

	assert.True(t, res.Fetched)
	assert.Equal(t, "NVDA", f.got.Ticker)
	assert.Equal(t, "NVIDIA guides above consensus", f.got.Title)
	assert.Equal(t, "Data-center demand keeps accelerating.", f.got.Content)

	require.Len(t, w.stored, 1)
	s := w.stored[0]
	assert.Equal(t, "NVDA", s.Ticker)
	assert.Equal(t, "Reuters", s.Source)
	assert.Equal(t, srv.URL+"/story", s.URL)
	assert.Equal(t, "2025-11-10T13:00:00Z", s.CreatedDate)
	assert.Equal(t, 2.1, s.P50.Float())
	assert.InDelta(t, 70.0, s.Confidence.Float(), 1e-9)
	assert.Equal(t, 10, s.HorizonDays)
}

func TestImport_FetchFailureUsesProvidedFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := &fakeForecaster{out: forecast.NeutralNews(forecast.NewsRequest{})}
	w := &fakeWriter{}

	res, err := newImporter(f, w).Import(context.Background(), ImportRequest{
		URL: srv.URL, Ticker: "AAPL", Title: "Given title", Content: "given body",
	})
	require.NoError(t, err)
	assert.False(t, res.Fetched)
	assert.Equal(t, "Given title", f.got.Title)
	assert.Empty(t, w.stored[0].Source, "rollup derives the label from the URL host")
	assert.Equal(t, 56.0, w.stored[0].Confidence.Float())
}

func TestImport_Validation(t *testing.T) {
	im := newImporter(&fakeForecaster{}, &fakeWriter{})

	_, err := im.Import(context.Background(), ImportRequest{URL: "ftp://x", Ticker: "AAPL"})
	assert.True(t, errors.Is(err, contracts.ErrInvalidSignal))

	_, err = im.Import(context.Background(), ImportRequest{URL: "https://example.com"})
	assert.True(t, errors.Is(err, contracts.ErrInvalidSignal))
}
