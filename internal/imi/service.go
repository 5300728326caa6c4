// Package imi orchestrates the signal stores, the aggregation and screener engines,
// and realtime notifications.
package imi

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/imi/internal/aggregation"
	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/realtime"
	"github.com/wonny/imi/internal/seed"
	"github.com/wonny/imi/pkg/logger"
	"github.com/wonny/imi/pkg/redis"
)

// AlertMinConfidence is the confidence floor for watchlist alerts
const AlertMinConfidence = 60.0

// AlertLimit caps the number of alerts returned per user
const AlertLimit = 10

// Service is the IMI application layer
// ⭐ SSOT: 저장소 + 엔진 조합은 Service에서만
type Service struct {
	stores      contracts.Stores
	events      realtime.Publisher
	cache       *redis.Cache
	logger      *logger.Logger
	defaultUser string

	now        func() time.Time
	seedFeed   func() ([]contracts.Signal, error)
	seedThemes func() ([]contracts.Theme, error)
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides time.Now (tests, reproducible CLI output)
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPublisher sets the realtime publisher
func WithPublisher(p realtime.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithCache sets the redis cache used for dashboard snapshots and alerts
func WithCache(c *redis.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithDefaultUser sets the user id used when a request omits one
func WithDefaultUser(id string) Option {
	return func(s *Service) { s.defaultUser = id }
}

// WithSeed overrides the initial feed written to an empty store
func WithSeed(fn func() ([]contracts.Signal, error)) Option {
	return func(s *Service) { s.seedFeed = fn }
}

// NewService creates a new IMI service
func NewService(stores contracts.Stores, log *logger.Logger, opts ...Option) *Service {
	s := &Service{
		stores:      stores,
		events:      realtime.NopPublisher{},
		logger:      log.WithField("component", "imi"),
		defaultUser: "demo",
		now:         time.Now,
		seedFeed:    seed.Signals,
		seedThemes:  seed.Themes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock in UTC
func (s *Service) Now() time.Time {
	return s.now().UTC()
}

func (s *Service) user(id string) string {
	if id == "" {
		return s.defaultUser
	}
	return id
}

func (s *Service) timestamp() string {
	return s.Now().Format(time.RFC3339Nano)
}

// Feed returns every signal, seeding the embedded feed into an empty store first
func (s *Service) Feed(ctx context.Context) ([]contracts.Signal, error) {
	list, err := s.stores.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	if len(list) > 0 {
		return list, nil
	}

	initial, err := s.seedFeed()
	if err != nil {
		return nil, fmt.Errorf("load seed feed: %w", err)
	}
	return s.SeedSignals(ctx, initial)
}

// Dashboard aggregates the feed for q at the service clock
func (s *Service) Dashboard(ctx context.Context, q contracts.DashboardQuery) (contracts.Dashboard, error) {
	feed, err := s.Feed(ctx)
	if err != nil {
		return contracts.Dashboard{}, err
	}
	return aggregation.Aggregate(feed, q, s.Now()), nil
}

// SnapshotDashboard computes the default dashboard and caches it for SnapshotCached
func (s *Service) SnapshotDashboard(ctx context.Context) (contracts.Dashboard, error) {
	d, err := s.Dashboard(ctx, contracts.DefaultDashboardQuery())
	if err != nil {
		return contracts.Dashboard{}, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, redis.DashboardSnapshotKey("default"), d, redis.TTLMedium); err != nil {
			s.logger.WithError(err).Warn("Failed to cache dashboard snapshot")
		}
	}
	return d, nil
}

// CachedDashboard returns the last snapshot; without a cache it computes one
func (s *Service) CachedDashboard(ctx context.Context) (contracts.Dashboard, error) {
	if s.cache.Enabled() {
		var d contracts.Dashboard
		found, err := s.cache.Get(ctx, redis.DashboardSnapshotKey("default"), &d)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to read dashboard snapshot")
		}
		if found {
			return d, nil
		}
	}
	return s.SnapshotDashboard(ctx)
}
