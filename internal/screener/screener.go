package screener

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/signals"
)

// Run filters signals that have a realized outcome and computes realized-return stats.
// ⭐ SSOT: 스크리너/백테스트 통계는 여기서만
//
// Predicates (AND): ticker set, confidence threshold, direction, [start, end) date range,
// non-null realized_excess_return. Stats use the population variance.
func Run(in []contracts.Signal, c contracts.ScreenerCriteria) contracts.ScreenerResult {
	tickers := signals.TickerSet(c.Tickers)

	var minConf float64
	minConfActive := false
	if c.MinConfidence != nil {
		minConf, minConfActive = signals.AsFiniteOrExclude(contracts.M(*c.MinConfidence))
	}

	matches := make([]contracts.Signal, 0)
	for _, s := range in {
		if tickers != nil {
			if _, ok := tickers[signals.NormalizeTicker(s.Ticker)]; !ok {
				continue
			}
		}

		if minConfActive {
			conf, ok := signals.AsFiniteOrExclude(s.Confidence)
			if !ok || conf < minConf {
				continue
			}
		}

		switch c.Direction {
		case contracts.DirectionUp:
			if !(s.P50.Float() > 0) {
				continue
			}
		case contracts.DirectionDown:
			if !(s.P50.Float() < 0) {
				continue
			}
		}

		if c.StartDate != nil || c.EndDate != nil {
			d, ok := signals.DateOf(s)
			if !ok {
				continue
			}
			if c.StartDate != nil && d.Before(*c.StartDate) {
				continue
			}
			if c.EndDate != nil && !d.Before(*c.EndDate) {
				continue
			}
		}

		if !s.HasRealized() {
			continue
		}

		matches = append(matches, s)
	}

	n := 0
	var sum, sumSq float64
	for _, s := range matches {
		r, ok := signals.AsFiniteOrExclude(s.RealizedExcessReturn)
		if !ok {
			continue
		}
		n++
		sum += r
		sumSq += r * r
	}

	result := contracts.ScreenerResult{Count: n, Signals: matches}
	if n == 0 {
		return result
	}

	avg := sum / float64(n)
	variance := sumSq/float64(n) - avg*avg
	result.AvgExcess = &avg
	if !math.IsNaN(variance) && !math.IsInf(variance, 0) && variance >= 0 {
		std := math.Sqrt(variance)
		result.StdExcess = &std
	}
	return result
}

// Request is the loosely-typed screener input accepted over HTTP and the CLI
type Request struct {
	Tickers       []string `json:"tickers"`
	Direction     string   `json:"direction"`
	MinConfidence *float64 `json:"min_confidence"`
	StartDate     string   `json:"start_date"`
	EndDate       string   `json:"end_date"`
}

// Criteria validates the request. Direction "", "all" and "none" mean no constraint.
func (r Request) Criteria() (contracts.ScreenerCriteria, error) {
	c := contracts.ScreenerCriteria{
		Tickers:       r.Tickers,
		MinConfidence: r.MinConfidence,
	}

	switch d := contracts.Direction(strings.ToLower(strings.TrimSpace(r.Direction))); d {
	case "", contracts.DirectionAll, "none":
	case contracts.DirectionUp, contracts.DirectionDown:
		c.Direction = d
	default:
		return c, fmt.Errorf("%w: direction %q", contracts.ErrInvalidQuery, r.Direction)
	}

	if strings.TrimSpace(r.StartDate) != "" {
		t, ok := signals.ParseDate(r.StartDate)
		if !ok {
			return c, fmt.Errorf("%w: start_date %q", contracts.ErrInvalidQuery, r.StartDate)
		}
		c.StartDate = &t
	}
	if strings.TrimSpace(r.EndDate) != "" {
		t, ok := signals.ParseDate(r.EndDate)
		if !ok {
			return c, fmt.Errorf("%w: end_date %q", contracts.ErrInvalidQuery, r.EndDate)
		}
		c.EndDate = &t
	}

	return c, nil
}
