package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wonny/imi/internal/contact"
	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/forecast"
	"github.com/wonny/imi/internal/imi"
	"github.com/wonny/imi/internal/ingest"
	"github.com/wonny/imi/internal/realtime"
	"github.com/wonny/imi/internal/scheduler"
	"github.com/wonny/imi/internal/scheduler/jobs"
	"github.com/wonny/imi/internal/store/factory"
	"github.com/wonny/imi/pkg/config"
	"github.com/wonny/imi/pkg/httputil"
	"github.com/wonny/imi/pkg/logger"
	"github.com/wonny/imi/pkg/redis"
)

// app holds every wired dependency a command may need
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	redis    *redis.Client
	cache    *redis.Cache
	limiter  *redis.RateLimiter
	stores   contracts.Stores
	hub      *realtime.Hub
	svc      *imi.Service
	forecast *forecast.Client
	relay    *contact.Relay
	importer *ingest.Importer
}

// newApp loads config and wires the service. withHub attaches the websocket hub as publisher.
func newApp(ctx context.Context, withHub bool) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger (CLI commands keep stdout for results)
	var out io.Writer = os.Stderr
	if withHub {
		out = os.Stdout
	}
	log := logger.NewWithWriter(cfg, out)

	// 3. Redis (no-op client when disabled)
	rc, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 4. Store backend
	stores, err := factory.Open(ctx, cfg, log, rc)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		redis:   rc,
		cache:   redis.NewCache(rc, cfg.Redis.Prefix),
		limiter: redis.NewRateLimiter(rc, cfg.Redis.Prefix),
		stores:  stores,
	}

	// 5. Service
	opts := []imi.Option{
		imi.WithCache(a.cache),
		imi.WithDefaultUser(cfg.DefaultUserID),
	}
	if withHub {
		a.hub = realtime.NewHub(log, cfg.CORSOrigin)
		opts = append(opts, imi.WithPublisher(a.hub))
	}
	a.svc = imi.NewService(stores, log, opts...)

	// 6. External collaborators
	a.forecast = forecast.NewClient(cfg, log, a.cache, a.limiter)
	a.relay = contact.NewRelay(cfg.EmailJS, log, a.limiter)
	a.importer = ingest.NewImporter(
		httputil.NewWithTimeout(log, 10*time.Second).
			WithHeader("User-Agent", "imi-ingest/1.0").
			WithRateLimiter(a.limiter, redis.IngestRateLimit),
		a.forecast, a.svc, log,
	)

	return a, nil
}

// newScheduler registers the IMI jobs
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	for _, job := range []scheduler.Job{
		jobs.NewDashboardSnapshotJob(a.svc, a.log),
		jobs.NewWatchlistAlertsJob(a.svc, a.cfg.DefaultUserID, a.log),
	} {
		if err := sched.AddJob(job); err != nil {
			return nil, fmt.Errorf("add job %s: %w", job.Name(), err)
		}
	}
	return sched, nil
}

func (a *app) Close() {
	if a.hub != nil {
		a.hub.Close()
	}
	if err := a.stores.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close store")
	}
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
}
