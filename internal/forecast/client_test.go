package forecast

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/pkg/config"
	"github.com/wonny/imi/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{Forecast: config.ForecastConfig{
		BaseURL: srv.URL,
		Prefix:  "/api",
		Timeout: 500 * time.Millisecond,
	}}
	return NewClient(cfg, logger.Nop(), nil, nil)
}

func offlineClient() *Client {
	cfg := &config.Config{Forecast: config.ForecastConfig{
		BaseURL: "http://127.0.0.1:1",
		Timeout: 200 * time.Millisecond,
	}}
	return NewClient(cfg, logger.Nop(), nil, nil)
}

func TestForecastNews_PercentileShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/forecast/news", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req NewsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "AAPL", req.Ticker)

		w.Write([]byte(`{"ticker":"AAPL","horizon_days":10,"median_excess_pct":1.2,"p20_excess_pct":-0.8,"p80_excess_pct":"3.4","confidence":0.72}`))
	})

	nf := c.ForecastNews(context.Background(), NewsRequest{Ticker: "AAPL", Title: "iPhone record"})
	assert.False(t, nf.Fallback)
	assert.True(t, nf.HasPercentiles())
	assert.Equal(t, 10, nf.HorizonDays)
	assert.Equal(t, 3.4, nf.P80ExcessPct.Float())
	assert.False(t, nf.ProbUp.Valid())

	sig := nf.ToSignal(NewsRequest{Ticker: "aapl", Title: "iPhone record", Content: "body"})
	assert.Equal(t, "AAPL", sig.Ticker)
	assert.Equal(t, "iPhone record", sig.Title)
	assert.Equal(t, 1.2, sig.P50.Float())
	assert.Equal(t, -0.8, sig.P20.Float())
	assert.InDelta(t, 72.0, sig.Confidence.Float(), 1e-9)
	assert.Equal(t, "body", sig.Summary)
}

func TestForecastNews_ProbabilityShape(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ticker":"TSLA","title":"t","horizon_days":5,"prob_up":0.35,"prob_down":0.65,"class_threshold":0.5,"suggested_action":"sell"}`))
	})

	nf := c.ForecastNews(context.Background(), NewsRequest{Ticker: "TSLA", Title: "t"})
	assert.False(t, nf.HasPercentiles())
	assert.Equal(t, "sell", nf.SuggestedAction)

	sig := nf.ToSignal(NewsRequest{Ticker: "TSLA", Title: "t"})
	assert.Equal(t, 0.0, sig.P50.Float())
	assert.False(t, sig.P20.Valid())
	assert.InDelta(t, 65.0, sig.Confidence.Float(), 1e-9)
}

func TestForecastNews_Fallback(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(time.Second)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			nf := c.ForecastNews(context.Background(), NewsRequest{Ticker: "NVDA", Title: "x"})

			assert.True(t, nf.Fallback)
			assert.Equal(t, 0.0, nf.MedianExcessPct.Float())
			assert.Equal(t, -0.4, nf.P20ExcessPct.Float())
			assert.Equal(t, 0.8, nf.P80ExcessPct.Float())
			assert.Equal(t, 56.0, nf.Confidence.Float())
			assert.Equal(t, 0.5, nf.ProbUp.Float())
			assert.Equal(t, 0.5, nf.ProbDown.Float())
			assert.Equal(t, "hold", nf.SuggestedAction)
			assert.Equal(t, 5, nf.HorizonDays)

			sig := nf.ToSignal(NewsRequest{Ticker: "NVDA", Title: "x"})
			assert.Equal(t, 56.0, sig.Confidence.Float())
		})
	}
}

func TestForecast_Coerce(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/forecast", r.URL.Path)
		w.Write([]byte(`{"forecast_id":"fc_1","imi":{"medianPct":"0.4","rangePct":[-1]}}`))
	})

	fc := c.Forecast(context.Background(), ForecastRequest{Text: "rates"})
	assert.False(t, fc.Fallback)
	assert.Equal(t, "fc_1", fc.ForecastID)
	assert.Equal(t, "MARKET", fc.IMI.Asset)
	assert.Nil(t, fc.IMI.Ticker)
	assert.Equal(t, 10, fc.IMI.HorizonDays)
	assert.Equal(t, 0.4, fc.IMI.MedianPct)
	assert.Equal(t, [2]float64{-1, 0}, fc.IMI.RangePct)
	assert.Equal(t, 0.56, fc.IMI.Confidence)
	assert.Equal(t, "v?", fc.IMI.ModelVersion)
	assert.NotNil(t, fc.Metrics)
}

func TestForecast_MissingIMIBlockFallsBack(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"forecast_id":"fc_2"}`))
	})

	fc := c.Forecast(context.Background(), ForecastRequest{Text: "short", HorizonDays: 3})
	assert.True(t, fc.Fallback)
	assert.Equal(t, "fc_fallback", fc.ForecastID)
	assert.Equal(t, 3, fc.IMI.HorizonDays)
	assert.Equal(t, "Paraphrased: short", fc.Summary)
}

func TestNeutralForecast(t *testing.T) {
	long := strings.Repeat("a", 130)
	fc := NeutralForecast(ForecastRequest{Text: long})
	assert.Equal(t, "Paraphrased: "+strings.Repeat("a", 120)+"…", fc.Summary)
	assert.Equal(t, [2]float64{-0.4, 0.8}, fc.IMI.RangePct)
	assert.Equal(t, "v0.fallback", fc.IMI.ModelVersion)
	assert.Equal(t, 10, fc.IMI.HorizonDays)

	empty := NeutralForecast(ForecastRequest{})
	assert.Equal(t, "Service offline; neutral placeholder.", empty.Summary)
}

func TestAnalyzeAndReceipt_Fallback(t *testing.T) {
	c := offlineClient()
	ctx := context.Background()

	text := strings.Repeat("é", 200)
	a := c.Analyze(ctx, text)
	assert.True(t, a.Fallback)
	assert.Equal(t, strings.Repeat("é", 180)+"…", a.Summary)
	assert.Empty(t, c.Analyze(ctx, "").Summary)

	r := c.Receipt(ctx, "fc_9")
	assert.Equal(t, "fc_9", r.ForecastID)
	assert.Equal(t, 0.72, r.Coverage12m)
	assert.Equal(t, "v0.fallback", r.ModelVersion)
	assert.Equal(t, 0, r.Analogs)
}

func TestReceipt_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/receipts/fc_7", r.URL.Path)
		w.Write([]byte(`{"coverage12m":0.81,"model_version":"imi-1.0.0","analogs":124}`))
	})

	r := c.Receipt(context.Background(), "fc_7")
	assert.False(t, r.Fallback)
	assert.Equal(t, "fc_7", r.ForecastID)
	assert.Equal(t, 124, r.Analogs)
}

func TestConfidencePct(t *testing.T) {
	tests := []struct {
		name string
		nf   NewsForecast
		want contracts.Metric
	}{
		{"percent passes through", NewsForecast{Confidence: contracts.M(61), ProbUp: contracts.Null(), ProbDown: contracts.Null()}, contracts.M(61)},
		{"fraction scaled", NewsForecast{Confidence: contracts.M(0.61), ProbUp: contracts.Null(), ProbDown: contracts.Null()}, contracts.M(61)},
		{"probabilities", NewsForecast{Confidence: contracts.Null(), ProbUp: contracts.M(0.7), ProbDown: contracts.M(0.3)}, contracts.M(70)},
		{"nothing", NewsForecast{Confidence: contracts.Null(), ProbUp: contracts.Null(), ProbDown: contracts.Null()}, contracts.Null()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.nf.ConfidencePct()
			if !tt.want.Valid() {
				assert.False(t, got.Valid())
				return
			}
			assert.InDelta(t, tt.want.Float(), got.Float(), 1e-9)
		})
	}
}
