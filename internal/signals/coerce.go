package signals

import (
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/imi/internal/contracts"
)

// AsFiniteOrZero is the "fail open to zero" coercion used for scores and sort keys
func AsFiniteOrZero(m contracts.Metric) float64 {
	if !m.Finite() {
		return 0
	}
	return m.Float()
}

// AsFiniteOrExclude is the coercion used by hard filters: ok is false for null/NaN/±Inf
func AsFiniteOrExclude(m contracts.Metric) (float64, bool) {
	if !m.Finite() {
		return 0, false
	}
	return m.Float(), true
}

// Impact = |p50| * confidence/100, each non-finite operand contributing 0
func Impact(s contracts.Signal) float64 {
	return math.Abs(AsFiniteOrZero(s.P50)) * (AsFiniteOrZero(s.Confidence) / 100)
}

// DirectionOf labels a median forecast; null/NaN is flat
func DirectionOf(p50 contracts.Metric) contracts.Direction {
	v := p50.Float()
	switch {
	case v > 0:
		return contracts.DirectionUp
	case v < 0:
		return contracts.DirectionDown
	default:
		return contracts.DirectionFlat
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate accepts ISO-ish dates; values without a zone are UTC
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateOf parses a signal's authoritative date
func DateOf(s contracts.Signal) (time.Time, bool) {
	return ParseDate(s.CreatedDate)
}

// SourceLabel returns the explicit source (trimmed) or the URL hostname.
// An explicit but blank source yields nothing; it does not fall back to the URL.
func SourceLabel(s contracts.Signal) (string, bool) {
	if s.Source != "" {
		label := strings.TrimSpace(s.Source)
		return label, label != ""
	}
	if s.URL == "" {
		return "", false
	}
	u, err := url.Parse(s.URL)
	if err != nil || u.Scheme == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	return host, host != ""
}
