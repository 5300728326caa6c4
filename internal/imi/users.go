package imi

import (
	"context"
	"fmt"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/realtime"
	"github.com/wonny/imi/internal/screener"
	"github.com/wonny/imi/internal/signals"
	"github.com/wonny/imi/pkg/redis"
)

// WatchlistInput is what a client submits to save a watchlist
type WatchlistInput struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
}

// ClusterInput is what a client submits to create a cluster
type ClusterInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SignalIDs   []string `json:"signal_ids"`
}

// AddUserAnalysis logs an analysis; an embedded signal without an id is stored first
func (s *Service) AddUserAnalysis(ctx context.Context, userID string, in contracts.AnalysisInput) (contracts.UserAnalysis, error) {
	signalID := in.SignalID
	if in.Signal != nil {
		sig := signals.Normalize(*in.Signal)
		if sig.ID == "" {
			stored, err := s.UpsertSignal(ctx, *in.Signal)
			if err != nil {
				return contracts.UserAnalysis{}, fmt.Errorf("store analysed signal: %w", err)
			}
			sig = stored
		}
		signalID = sig.ID
	}

	guess := contracts.Null()
	if in.UserGuessP50 != nil {
		guess = *in.UserGuessP50
	}
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}

	entry := contracts.UserAnalysis{
		ID:           contracts.NewID(contracts.PrefixAnalysis),
		UserID:       s.user(userID),
		SignalID:     signalID,
		UserGuessP50: guess,
		Notes:        in.Notes,
		Tags:         tags,
		CreatedAt:    s.timestamp(),
	}

	out, err := s.stores.AddAnalysis(ctx, entry)
	if err != nil {
		return contracts.UserAnalysis{}, fmt.Errorf("add analysis: %w", err)
	}
	return out, nil
}

// ListUserAnalyses returns a user's analyses, newest first
func (s *Service) ListUserAnalyses(ctx context.Context, userID string) ([]contracts.UserAnalysis, error) {
	return s.stores.ListAnalyses(ctx, s.user(userID))
}

// UserStats computes calibration for a user
func (s *Service) UserStats(ctx context.Context, userID string) (contracts.CalibrationStats, error) {
	analyses, err := s.stores.ListAnalyses(ctx, s.user(userID))
	if err != nil {
		return contracts.CalibrationStats{}, fmt.Errorf("list analyses: %w", err)
	}
	all, err := s.stores.List(ctx)
	if err != nil {
		return contracts.CalibrationStats{}, fmt.Errorf("list signals: %w", err)
	}
	return screener.Calibration(analyses, all), nil
}

// ListWatchlists returns a user's watchlists in save order
func (s *Service) ListWatchlists(ctx context.Context, userID string) ([]contracts.Watchlist, error) {
	return s.stores.ListWatchlists(ctx, s.user(userID))
}

// SaveWatchlist replaces the watchlist with the same id, or creates a new one
func (s *Service) SaveWatchlist(ctx context.Context, userID string, in WatchlistInput) (contracts.Watchlist, error) {
	tickers := in.Tickers
	if tickers == nil {
		tickers = []string{}
	}
	id := in.ID
	if id == "" {
		id = contracts.NewID(contracts.PrefixWatchlist)
	}

	out, err := s.stores.SaveWatchlist(ctx, contracts.Watchlist{
		ID:        id,
		UserID:    s.user(userID),
		Name:      in.Name,
		Tickers:   tickers,
		CreatedAt: s.timestamp(),
	})
	if err != nil {
		return contracts.Watchlist{}, fmt.Errorf("save watchlist: %w", err)
	}
	return out, nil
}

// WatchlistAlerts screens the user's watchlist tickers at AlertMinConfidence
// and returns the first AlertLimit matches
func (s *Service) WatchlistAlerts(ctx context.Context, userID string) ([]contracts.Signal, error) {
	lists, err := s.stores.ListWatchlists(ctx, s.user(userID))
	if err != nil {
		return nil, fmt.Errorf("list watchlists: %w", err)
	}

	var tickers []string
	seen := make(map[string]struct{})
	for _, w := range lists {
		for _, t := range w.Tickers {
			t = signals.NormalizeTicker(t)
			if t == "" {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tickers = append(tickers, t)
		}
	}
	if len(tickers) == 0 {
		return []contracts.Signal{}, nil
	}

	minConf := AlertMinConfidence
	res, err := s.RunScreener(ctx, contracts.ScreenerCriteria{
		Tickers:       tickers,
		Direction:     contracts.DirectionAll,
		MinConfidence: &minConf,
	})
	if err != nil {
		return nil, err
	}

	alerts := res.Signals
	if len(alerts) > AlertLimit {
		alerts = alerts[:AlertLimit]
	}
	return alerts, nil
}

// PublishAlerts computes alerts, caches them and pushes them to subscribers
func (s *Service) PublishAlerts(ctx context.Context, userID string) ([]contracts.Signal, error) {
	userID = s.user(userID)
	alerts, err := s.WatchlistAlerts(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, redis.AlertsKey(userID), alerts, redis.TTLMedium); err != nil {
			s.logger.WithError(err).Warn("Failed to cache alerts")
		}
	}

	s.events.Publish(realtime.SignalEvent{
		Type:    realtime.EventAlertsUpdated,
		Signals: alerts,
		UserID:  userID,
		At:      s.Now(),
	})
	return alerts, nil
}

// ListClusters returns clusters in creation order
func (s *Service) ListClusters(ctx context.Context) ([]contracts.Cluster, error) {
	return s.stores.ListClusters(ctx)
}

// CreateCluster creates a named signal bundle
func (s *Service) CreateCluster(ctx context.Context, in ClusterInput) (contracts.Cluster, error) {
	ids := make([]string, 0, len(in.SignalIDs))
	for _, id := range in.SignalIDs {
		if !contains(ids, id) {
			ids = append(ids, id)
		}
	}

	out, err := s.stores.CreateCluster(ctx, contracts.Cluster{
		ID:          contracts.NewID(contracts.PrefixCluster),
		Name:        in.Name,
		Description: in.Description,
		SignalIDs:   ids,
		CreatedAt:   s.timestamp(),
	})
	if err != nil {
		return contracts.Cluster{}, fmt.Errorf("create cluster: %w", err)
	}
	return out, nil
}

// AddSignalToCluster adds signalID to the cluster's set
func (s *Service) AddSignalToCluster(ctx context.Context, clusterID, signalID string) (contracts.Cluster, error) {
	return s.stores.AddSignalToCluster(ctx, clusterID, signalID)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
