package imi

import (
	"context"
	"fmt"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/signals"
)

// ListThemes returns the taxonomy, writing the defaults on first read
func (s *Service) ListThemes(ctx context.Context) ([]contracts.Theme, error) {
	themes, err := s.stores.ListThemes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	if themes != nil {
		return themes, nil
	}

	themes, err = s.seedThemes()
	if err != nil {
		return nil, fmt.Errorf("load default themes: %w", err)
	}
	if err := s.stores.SaveThemes(ctx, themes); err != nil {
		return nil, fmt.Errorf("save themes: %w", err)
	}
	s.logger.WithField("count", len(themes)).Info("Seeded theme taxonomy")
	return themes, nil
}

// ThemeBySlug returns contracts.ErrThemeNotFound for unknown slugs
func (s *Service) ThemeBySlug(ctx context.Context, slug string) (contracts.Theme, error) {
	themes, err := s.ListThemes(ctx)
	if err != nil {
		return contracts.Theme{}, err
	}
	for _, t := range themes {
		if t.Slug == slug {
			return t, nil
		}
	}
	return contracts.Theme{}, fmt.Errorf("%w: %s", contracts.ErrThemeNotFound, slug)
}

// SignalsForTheme returns feed signals whose ticker belongs to the theme
func (s *Service) SignalsForTheme(ctx context.Context, slug string) ([]contracts.Signal, error) {
	theme, err := s.ThemeBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	all, err := s.stores.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}

	set := signals.TickerSet(theme.Tickers)
	out := make([]contracts.Signal, 0)
	for _, sig := range all {
		if _, ok := set[signals.NormalizeTicker(sig.Ticker)]; ok {
			out = append(out, sig)
		}
	}
	return out, nil
}
