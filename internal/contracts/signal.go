package contracts

import (
	"encoding/json"
	"strings"
)

// Signal is the canonical forecast record consumed by every engine.
// ⭐ SSOT: 정규화된 시그널 형태는 여기서만 정의
type Signal struct {
	ID      string `json:"id"`
	Ticker  string `json:"ticker"`
	Title   string `json:"title"`
	URL     string `json:"url,omitempty"`
	Source  string `json:"source,omitempty"`
	Summary string `json:"summary,omitempty"`
	Drivers string `json:"drivers,omitempty"`

	// Percentile forecasts of excess return, in percent.
	// p20 <= p50 <= p80 is expected but not enforced.
	P20 Metric `json:"p20"`
	P50 Metric `json:"p50"`
	P80 Metric `json:"p80"`

	Confidence  Metric `json:"confidence"` // 0-100
	HorizonDays int    `json:"horizon_days,omitempty"`

	// CreatedDate is the authoritative date string (created_date > date > published_at)
	CreatedDate string `json:"created_date,omitempty"`

	RealizedExcessReturn Metric `json:"realized_excess_return"`
	RealizedAt           string `json:"realized_at,omitempty"`
}

// NewSignal returns a Signal with every metric null
func NewSignal() Signal {
	return Signal{
		P20:                  Null(),
		P50:                  Null(),
		P80:                  Null(),
		Confidence:           Null(),
		RealizedExcessReturn: Null(),
	}
}

// UnmarshalJSON keeps absent metric fields null instead of zero
func (s *Signal) UnmarshalJSON(data []byte) error {
	type plain Signal
	out := plain(NewSignal())
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*s = Signal(out)
	return nil
}

// HasRealized reports whether the outcome has been recorded
func (s Signal) HasRealized() bool {
	return s.RealizedExcessReturn.Valid()
}

// RawSignal is the forgiving input shape accepted at the store boundary.
// Alias fields are resolved once by signals.Normalize.
type RawSignal struct {
	ID       string      `json:"id,omitempty"`
	Ticker   string      `json:"ticker,omitempty"`
	Tickers  FlexStrings `json:"tickers,omitempty"`
	Title    string      `json:"title,omitempty"`
	Headline string      `json:"headline,omitempty"`
	URL      string      `json:"url,omitempty"`
	Source   string      `json:"source,omitempty"`
	Summary  string      `json:"summary,omitempty"`
	Drivers  FlexStrings `json:"drivers,omitempty"`

	P20    *Metric `json:"p20,omitempty"`
	P50    *Metric `json:"p50,omitempty"`
	P80    *Metric `json:"p80,omitempty"`
	Low    *Metric `json:"low,omitempty"`
	Median *Metric `json:"median,omitempty"`
	High   *Metric `json:"high,omitempty"`

	Confidence           *Metric `json:"confidence,omitempty"`
	CalibratedConfidence *Metric `json:"calibrated_confidence,omitempty"`

	HorizonDays *Metric `json:"horizon_days,omitempty"`

	CreatedDate string `json:"created_date,omitempty"`
	Date        string `json:"date,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`

	RealizedExcessReturn *Metric `json:"realized_excess_return,omitempty"`
	RealizedAt           string  `json:"realized_at,omitempty"`
}

// FlexStrings decodes either a string or a list of strings
type FlexStrings []string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*f = nil
		return nil
	case strings.HasPrefix(trimmed, "["):
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*f = list
		return nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexStrings{s}
		return nil
	default:
		// numbers/bools: keep their literal text
		*f = FlexStrings{trimmed}
		return nil
	}
}

// First returns the first non-blank entry
func (f FlexStrings) First() string {
	for _, s := range f {
		if t := strings.TrimSpace(s); t != "" {
			return t
		}
	}
	return ""
}

// Join joins non-blank entries with ", "
func (f FlexStrings) Join() string {
	parts := make([]string, 0, len(f))
	for _, s := range f {
		if t := strings.TrimSpace(s); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, ", ")
}
