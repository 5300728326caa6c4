package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/imi/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(context.Background(), &config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")

	allowed, remaining, err := limiter.Allow(context.Background(), ForecastRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, ForecastRateLimit.Limit, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), EmailJSRateLimit))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "value", TTLShort))

	var result string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "dashboard:default", DashboardSnapshotKey("default"))
	assert.Equal(t, "receipt:fc_1", ReceiptKey("fc_1"))
	assert.Equal(t, "alerts:demo", AlertsKey("demo"))

	a := ForecastKey("news", "Apple beats", "10")
	b := ForecastKey("news", "Apple beats", "10")
	c := ForecastKey("news", "Apple beats1", "0")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c, "part boundaries must be part of the digest")
	assert.Contains(t, a, "forecast:news:")
}

func integrationClient(t *testing.T) *Client {
	t.Helper()
	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}
	client, err := New(context.Background(), &config.Config{
		Redis: config.RedisConfig{Enabled: true, Host: host, Port: port},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCache_RoundTrip(t *testing.T) {
	client := integrationClient(t)
	cache := NewCache(client, "imi-test")
	ctx := context.Background()

	type payload struct {
		Shown int `json:"shown"`
	}
	require.NoError(t, cache.Set(ctx, "rt", payload{Shown: 2}, time.Minute))

	var got payload
	found, err := cache.Get(ctx, "rt", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, got.Shown)

	require.NoError(t, cache.Delete(ctx, "rt"))
	found, err = cache.Get(ctx, "rt", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRateLimiter_Window(t *testing.T) {
	client := integrationClient(t)
	limiter := NewRateLimiter(client, "imi-test")
	cfg := RateLimitConfig{Key: "window-" + time.Now().Format("150405.000"), Limit: 2, Window: time.Second}
	ctx := context.Background()

	ok1, _, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	ok2, _, _ := limiter.Allow(ctx, cfg)
	ok3, _, _ := limiter.Allow(ctx, cfg)

	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.False(t, ok3)
}
