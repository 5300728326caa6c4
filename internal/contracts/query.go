package contracts

import "time"

// Direction is the derived sign of a signal's median forecast
type Direction string

const (
	DirectionAll  Direction = "all"
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// DateWindow bounds the dashboard relative to "now"
type DateWindow string

const (
	Window24h DateWindow = "24h"
	Window7d  DateWindow = "7d"
	Window30d DateWindow = "30d"
	WindowAll DateWindow = "all"
)

// Duration returns the window length; ok is false for "all"
func (w DateWindow) Duration() (time.Duration, bool) {
	const day = 24 * time.Hour
	switch w {
	case Window24h:
		return day, true
	case Window7d:
		return 7 * day, true
	case Window30d:
		return 30 * day, true
	default:
		return 0, false
	}
}

// Label is the human-readable header text
func (w DateWindow) Label() string {
	switch w {
	case Window24h:
		return "Last 24h"
	case Window7d:
		return "Last 7 days"
	case Window30d:
		return "Last 30 days"
	default:
		return "All time"
	}
}

// SortMode orders the dashboard rows
type SortMode string

const (
	SortImpact     SortMode = "impact"
	SortConfidence SortMode = "confidence"
	SortNewest     SortMode = "newest"
)

// DashboardFilters are AND-combined predicates
type DashboardFilters struct {
	Search        string    `json:"search"`
	Tickers       []string  `json:"tickers"`        // empty = no constraint
	MinConfidence *float64  `json:"min_confidence"` // nil = no constraint
	Direction     Direction `json:"direction"`
}

// DashboardQuery is the full dashboard request
type DashboardQuery struct {
	Filters DashboardFilters `json:"filters"`
	Window  DateWindow       `json:"window"`
	Sort    SortMode         `json:"sort"`
}

// DefaultDashboardQuery mirrors the dashboard's initial state
func DefaultDashboardQuery() DashboardQuery {
	return DashboardQuery{
		Filters: DashboardFilters{Direction: DirectionAll},
		Window:  Window7d,
		Sort:    SortImpact,
	}
}

// ScreenerCriteria selects signals with a realized outcome.
// Direction is "" (no constraint), "up" or "down".
// StartDate is inclusive, EndDate exclusive.
type ScreenerCriteria struct {
	Tickers       []string   `json:"tickers"`
	Direction     Direction  `json:"direction,omitempty"`
	MinConfidence *float64   `json:"min_confidence,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
}
