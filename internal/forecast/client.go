package forecast

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/imi/pkg/config"
	"github.com/wonny/imi/pkg/httputil"
	"github.com/wonny/imi/pkg/logger"
	"github.com/wonny/imi/pkg/redis"
)

// Client talks to the remote forecast service.
// Every call is bounded by FORECAST_TIMEOUT and degrades to a neutral fallback; none returns an error.
// ⭐ SSOT: 예측 서비스 호출은 이 클라이언트에서만
type Client struct {
	cfg     *config.Config
	http    *httputil.Client
	cache   *redis.Cache
	logger  *logger.Logger
	timeout time.Duration
}

// NewClient creates a forecast client. cache and limiter may be nil.
func NewClient(cfg *config.Config, log *logger.Logger, cache *redis.Cache, limiter *redis.RateLimiter) *Client {
	log = log.WithField("component", "forecast")

	hc := httputil.NewWithTimeout(log, cfg.Forecast.Timeout).
		DisableRetry().
		WithLocalLimit(rate.Limit(redis.ForecastRateLimit.Limit), redis.ForecastRateLimit.Limit)
	if limiter != nil {
		hc = hc.WithRateLimiter(limiter, redis.ForecastRateLimit)
	}

	return &Client{
		cfg:     cfg,
		http:    hc,
		cache:   cache,
		logger:  log,
		timeout: cfg.Forecast.Timeout,
	}
}

func (c *Client) call(ctx context.Context, method, path string, body, dest interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.http.DoJSON(ctx, method, c.cfg.ForecastURL(path), body, dest)
}

// ForecastNews asks the news classifier for a forecast
func (c *Client) ForecastNews(ctx context.Context, req NewsRequest) NewsForecast {
	key := redis.ForecastKey("news", req.Ticker, req.Title, req.Content)

	var cached NewsForecast
	if found, err := c.cache.Get(ctx, key, &cached); err != nil {
		c.logger.WithError(err).Warn("Forecast cache read failed")
	} else if found {
		return cached
	}

	var wire newsWire
	if err := c.call(ctx, http.MethodPost, "forecast/news", req, &wire); err != nil {
		c.logger.WithError(err).WithField("ticker", req.Ticker).Warn("News forecast fallback (service unreachable)")
		return NeutralNews(req)
	}

	nf := wire.forecast(req)
	if err := c.cache.Set(ctx, key, nf, redis.TTLMedium); err != nil {
		c.logger.WithError(err).Warn("Forecast cache write failed")
	}
	return nf
}

// Forecast runs the legacy free-text forecast
func (c *Client) Forecast(ctx context.Context, req ForecastRequest) Forecast {
	if req.HorizonDays == 0 {
		req.HorizonDays = DefaultHorizon
	}
	if req.Tickers == nil {
		req.Tickers = []string{}
	}

	var wire forecastWire
	if err := c.call(ctx, http.MethodPost, "forecast", req, &wire); err != nil {
		c.logger.WithError(err).Warn("Forecast fallback (service unreachable)")
		return NeutralForecast(req)
	}

	fc, ok := wire.coerce()
	if !ok {
		c.logger.Warn("Forecast fallback (response missing imi block)")
		return NeutralForecast(req)
	}
	return fc
}

// Analyze summarizes text
func (c *Client) Analyze(ctx context.Context, text string) Analysis {
	var out Analysis
	if err := c.call(ctx, http.MethodPost, "analyze", map[string]string{"text": text}, &out); err != nil {
		c.logger.WithError(err).Warn("Analyze fallback (service unreachable)")
		return NeutralAnalysis(text)
	}
	if out.Keywords == nil {
		out.Keywords = []string{}
	}
	if out.Sectors == nil {
		out.Sectors = []string{}
	}
	return out
}

// Receipt fetches the provenance record of a forecast
func (c *Client) Receipt(ctx context.Context, id string) Receipt {
	key := redis.ReceiptKey(id)

	var cached Receipt
	if found, _ := c.cache.Get(ctx, key, &cached); found {
		return cached
	}

	var out Receipt
	if err := c.call(ctx, http.MethodGet, "receipts/"+url.PathEscape(id), nil, &out); err != nil {
		c.logger.WithError(err).WithField("forecast_id", id).Warn("Receipt fallback (service unreachable)")
		return NeutralReceipt(id)
	}
	if out.ForecastID == "" {
		out.ForecastID = id
	}

	if err := c.cache.Set(ctx, key, out, redis.TTLLong); err != nil {
		c.logger.WithError(err).Warn("Receipt cache write failed")
	}
	return out
}
