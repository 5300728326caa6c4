package imi

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/realtime"
	"github.com/wonny/imi/internal/screener"
	"github.com/wonny/imi/internal/signals"
)

// UpsertSignal normalizes raw and stores it.
// New records need a title or ticker and get created_date = now when undated.
func (s *Service) UpsertSignal(ctx context.Context, raw contracts.RawSignal) (contracts.Signal, error) {
	sig := signals.Normalize(raw)

	isNew := sig.ID == ""
	if !isNew {
		if _, err := s.stores.Get(ctx, sig.ID); err != nil {
			if !errors.Is(err, contracts.ErrSignalNotFound) {
				return contracts.Signal{}, err
			}
			isNew = true
		}
	}

	if isNew {
		if err := signals.Validate(sig); err != nil {
			return contracts.Signal{}, err
		}
		if sig.CreatedDate == "" {
			sig.CreatedDate = s.timestamp()
		}
	}

	stored, err := s.stores.Upsert(ctx, sig)
	if err != nil {
		return contracts.Signal{}, fmt.Errorf("upsert signal: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"id":     stored.ID,
		"ticker": stored.Ticker,
		"new":    isNew,
	}).Info("Signal upserted")

	s.events.Publish(realtime.SignalEvent{Type: realtime.EventSignalUpserted, Signal: &stored, At: s.Now()})
	return stored, nil
}

// GetSignal returns contracts.ErrSignalNotFound for unknown ids
func (s *Service) GetSignal(ctx context.Context, id string) (contracts.Signal, error) {
	return s.stores.Get(ctx, id)
}

// ListSignals returns the feed without seeding
func (s *Service) ListSignals(ctx context.Context) ([]contracts.Signal, error) {
	return s.stores.List(ctx)
}

// SeedSignals writes initial only when the store is empty
func (s *Service) SeedSignals(ctx context.Context, initial []contracts.Signal) ([]contracts.Signal, error) {
	before, err := s.stores.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}

	out, err := s.stores.Seed(ctx, initial)
	if err != nil {
		return nil, fmt.Errorf("seed signals: %w", err)
	}

	if len(before) == 0 && len(out) > 0 {
		s.logger.WithField("count", len(out)).Info("Seeded signal feed")
		s.events.Publish(realtime.SignalEvent{Type: realtime.EventSignalSeeded, Signals: out, At: s.Now()})
	}
	return out, nil
}

// RunScreener runs the screener over the feed
func (s *Service) RunScreener(ctx context.Context, c contracts.ScreenerCriteria) (contracts.ScreenerResult, error) {
	feed, err := s.Feed(ctx)
	if err != nil {
		return contracts.ScreenerResult{}, err
	}
	return screener.Run(feed, c), nil
}
