package contracts

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Metric is a numeric field that may be absent.
// NaN means null; JSON encodes any non-finite value as null.
// ⭐ SSOT: 숫자 필드의 null/NaN 표현은 여기서만 정의
type Metric float64

// Null returns the absent metric
func Null() Metric {
	return Metric(math.NaN())
}

// M wraps a float64
func M(v float64) Metric {
	return Metric(v)
}

// Valid reports whether the metric is present (not null)
func (m Metric) Valid() bool {
	return !math.IsNaN(float64(m))
}

// Finite reports whether the metric is a usable number
func (m Metric) Finite() bool {
	f := float64(m)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Float returns the raw value (may be NaN or ±Inf)
func (m Metric) Float() float64 {
	return float64(m)
}

// Ptr returns nil for non-finite metrics
func (m Metric) Ptr() *float64 {
	if !m.Finite() {
		return nil
	}
	v := float64(m)
	return &v
}

// FromPtr converts an optional float into a Metric
func FromPtr(p *float64) Metric {
	if p == nil {
		return Null()
	}
	return Metric(*p)
}

// MarshalJSON implements json.Marshaler
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.Finite() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(m), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null.
// Anything else decodes to null rather than failing the whole record.
func (m *Metric) UnmarshalJSON(data []byte) error {
	*m = ParseMetric(string(bytes.TrimSpace(data)))
	return nil
}

// ParseMetric parses a loosely-typed numeric value
func ParseMetric(s string) Metric {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return Null()
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal([]byte(s), &str); err != nil {
			return Null()
		}
		s = strings.TrimSpace(str)
		if s == "" {
			return Null()
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null()
	}
	return Metric(v)
}
