package aggregation

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/signals"
)

const (
	// TopN bounds the trending and top-source rollups
	TopN = 3

	// UnknownTicker groups signals without a ticker in the trending rollup
	UnknownTicker = "UNK"
)

// Aggregate builds the dashboard view.
// Pure: the input slice is never mutated, there is no I/O and no error path.
// ⭐ SSOT: 대시보드 집계 로직은 여기서만
func Aggregate(in []contracts.Signal, q contracts.DashboardQuery, now time.Time) contracts.Dashboard {
	filtered := Filter(in, q.Filters)
	windowed := InWindow(filtered, q.Window, now)
	sorted := Sort(windowed, q.Sort)

	return contracts.Dashboard{
		Signals:       sorted,
		Header:        Header(len(in), sorted, q.Window),
		Trending:      Trending(windowed),
		TopSources:    TopSources(windowed),
		TickerOptions: TickerOptions(in),
	}
}

// Filter applies the AND-combined filter bar predicates
func Filter(in []contracts.Signal, f contracts.DashboardFilters) []contracts.Signal {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	tickers := signals.TickerSet(f.Tickers)

	var minConf float64
	minConfActive := false
	if f.MinConfidence != nil {
		minConf, minConfActive = signals.AsFiniteOrExclude(contracts.M(*f.MinConfidence))
	}

	out := make([]contracts.Signal, 0, len(in))
	for _, s := range in {
		if q != "" {
			hit := strings.Contains(strings.ToLower(s.Title), q) ||
				strings.Contains(strings.ToLower(s.Ticker), q)
			if !hit {
				continue
			}
		}

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

		if f.Direction != "" && f.Direction != contracts.DirectionAll {
			if signals.DirectionOf(s.P50) != f.Direction {
				continue
			}
		}

		out = append(out, s)
	}
	return out
}

// InWindow keeps signals dated at or after now - window.
// Missing or unparsable dates are excluded unless the window is "all".
func InWindow(in []contracts.Signal, w contracts.DateWindow, now time.Time) []contracts.Signal {
	out := make([]contracts.Signal, 0, len(in))

	d, bounded := w.Duration()
	if !bounded {
		return append(out, in...)
	}
	cutoff := now.Add(-d)

	for _, s := range in {
		date, ok := signals.DateOf(s)
		if !ok || date.Before(cutoff) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Sort returns a stably sorted copy, descending by the mode's key
func Sort(in []contracts.Signal, mode contracts.SortMode) []contracts.Signal {
	out := make([]contracts.Signal, len(in))
	copy(out, in)

	var key func(contracts.Signal) float64
	switch mode {
	case contracts.SortConfidence:
		key = func(s contracts.Signal) float64 { return signals.AsFiniteOrZero(s.Confidence) }
	case contracts.SortNewest:
		key = func(s contracts.Signal) float64 {
			d, ok := signals.DateOf(s)
			if !ok {
				// 날짜 없음은 1970년 이전 날짜보다도 뒤로
				return math.Inf(-1)
			}
			return float64(d.UnixMilli())
		}
	default:
		key = signals.Impact
	}

	keys := make([]float64, len(out))
	for i, s := range out {
		keys[i] = key(s)
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return keys[idx[a]] > keys[idx[b]]
	})

	sorted := make([]contracts.Signal, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	return sorted
}

// Header computes total/shown and the first-max strongest and highest-confidence rows
func Header(total int, sorted []contracts.Signal, w contracts.DateWindow) contracts.HeaderStats {
	stats := contracts.HeaderStats{
		Total:       total,
		Shown:       len(sorted),
		WindowLabel: w.Label(),
	}

	var bestScore, bestConf float64
	for i := range sorted {
		s := sorted[i]
		score := signals.Impact(s)
		conf := signals.AsFiniteOrZero(s.Confidence)

		if stats.Strongest == nil || score > bestScore {
			row := s
			stats.Strongest = &row
			bestScore = score
		}
		if stats.HighestConf == nil || conf > bestConf {
			row := s
			stats.HighestConf = &row
			bestConf = conf
		}
	}
	return stats
}

// Trending groups by ticker ("UNK" when missing) and keeps the top 3
// by count desc, then mean |p50| desc.
func Trending(windowed []contracts.Signal) []contracts.TickerTrend {
	type agg struct {
		count  int
		sumAbs float64
	}
	order := make([]string, 0)
	groups := make(map[string]*agg)

	for _, s := range windowed {
		t := signals.NormalizeTicker(s.Ticker)
		if t == "" {
			t = UnknownTicker
		}
		g, ok := groups[t]
		if !ok {
			g = &agg{}
			groups[t] = g
			order = append(order, t)
		}
		g.count++
		g.sumAbs += abs(signals.AsFiniteOrZero(s.P50))
	}

	out := make([]contracts.TickerTrend, 0, len(order))
	for _, t := range order {
		g := groups[t]
		out = append(out, contracts.TickerTrend{
			Ticker:       t,
			Count:        g.count,
			AvgAbsImpact: g.sumAbs / float64(g.count),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].AvgAbsImpact > out[j].AvgAbsImpact
	})

	return limit(out)
}

// TopSources groups by source label and keeps the top 3 by mean impact score.
// Rows without a derivable label are skipped.
func TopSources(windowed []contracts.Signal) []contracts.SourceRank {
	type agg struct {
		count int
		sum   float64
	}
	order := make([]string, 0)
	groups := make(map[string]*agg)

	for _, s := range windowed {
		label, ok := signals.SourceLabel(s)
		if !ok {
			continue
		}
		g, exists := groups[label]
		if !exists {
			g = &agg{}
			groups[label] = g
			order = append(order, label)
		}
		g.count++
		g.sum += signals.Impact(s)
	}

	out := make([]contracts.SourceRank, 0, len(order))
	for _, label := range order {
		g := groups[label]
		out = append(out, contracts.SourceRank{
			Source:         label,
			Count:          g.count,
			AvgImpactScore: g.sum / float64(g.count),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AvgImpactScore > out[j].AvgImpactScore
	})

	if len(out) > TopN {
		out = out[:TopN]
	}
	return out
}

// TickerOptions lists the unique uppercased tickers of the unfiltered feed, sorted
func TickerOptions(in []contracts.Signal) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, s := range in {
		t := signals.NormalizeTicker(s.Ticker)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func limit(in []contracts.TickerTrend) []contracts.TickerTrend {
	if len(in) > TopN {
		return in[:TopN]
	}
	return in
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
