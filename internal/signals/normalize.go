package signals

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/imi/internal/contracts"
)

// Normalize resolves every alias of the forgiving input shape into the canonical Signal.
// ⭐ SSOT: 별칭(alias) 해석은 여기서만 수행
func Normalize(raw contracts.RawSignal) contracts.Signal {
	s := contracts.NewSignal()

	s.ID = strings.TrimSpace(raw.ID)
	s.Ticker = NormalizeTicker(firstNonEmpty(raw.Ticker, raw.Tickers.First()))
	s.Title = firstNonEmpty(raw.Title, raw.Headline)
	s.URL = strings.TrimSpace(raw.URL)
	s.Source = raw.Source
	s.Summary = raw.Summary
	s.Drivers = raw.Drivers.Join()

	// "??" 의미: null이 아닌 첫 값이 이긴다 (파싱 실패 값도 포함)
	s.P20 = firstPresent(raw.P20, raw.Low)
	s.P50 = firstPresent(raw.P50, raw.Median)
	s.P80 = firstPresent(raw.P80, raw.High)
	s.Confidence = firstPresent(raw.Confidence, raw.CalibratedConfidence)

	if raw.HorizonDays != nil && raw.HorizonDays.Finite() {
		s.HorizonDays = int(math.Round(raw.HorizonDays.Float()))
	}

	s.CreatedDate = firstNonEmpty(raw.CreatedDate, raw.Date, raw.PublishedAt)

	if raw.RealizedExcessReturn != nil {
		s.RealizedExcessReturn = *raw.RealizedExcessReturn
	}
	s.RealizedAt = strings.TrimSpace(raw.RealizedAt)

	return s
}

// NormalizeAll normalizes a batch, keeping order
func NormalizeAll(raws []contracts.RawSignal) []contracts.Signal {
	out := make([]contracts.Signal, 0, len(raws))
	for _, r := range raws {
		out = append(out, Normalize(r))
	}
	return out
}

// NormalizeTicker trims and uppercases a symbol
func NormalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// TickerSet builds an uppercased membership set; nil when empty
func TickerSet(tickers []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tickers))
	for _, t := range tickers {
		if n := NormalizeTicker(t); n != "" {
			set[n] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// Validate rejects records with nothing to display
func Validate(s contracts.Signal) error {
	if strings.TrimSpace(s.Title) == "" && s.Ticker == "" {
		return fmt.Errorf("%w: title or ticker is required", contracts.ErrInvalidSignal)
	}
	return nil
}

// Merge applies an upsert of incoming onto existing.
// Non-empty strings and present metrics in incoming win; everything else is kept.
func Merge(existing, incoming contracts.Signal) contracts.Signal {
	out := existing

	mergeString(&out.Ticker, incoming.Ticker)
	mergeString(&out.Title, incoming.Title)
	mergeString(&out.URL, incoming.URL)
	mergeString(&out.Source, incoming.Source)
	mergeString(&out.Summary, incoming.Summary)
	mergeString(&out.Drivers, incoming.Drivers)
	mergeString(&out.CreatedDate, incoming.CreatedDate)
	mergeString(&out.RealizedAt, incoming.RealizedAt)

	mergeMetric(&out.P20, incoming.P20)
	mergeMetric(&out.P50, incoming.P50)
	mergeMetric(&out.P80, incoming.P80)
	mergeMetric(&out.Confidence, incoming.Confidence)
	mergeMetric(&out.RealizedExcessReturn, incoming.RealizedExcessReturn)

	if incoming.HorizonDays != 0 {
		out.HorizonDays = incoming.HorizonDays
	}

	return out
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func mergeMetric(dst *contracts.Metric, v contracts.Metric) {
	if v.Valid() {
		*dst = v
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			return t
		}
	}
	return ""
}

func firstPresent(values ...*contracts.Metric) contracts.Metric {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return contracts.Null()
}

// ToRaw converts a canonical Signal back into the input shape; null metrics become absent
func ToRaw(s contracts.Signal) contracts.RawSignal {
	raw := contracts.RawSignal{
		ID:                   s.ID,
		Ticker:               s.Ticker,
		Title:                s.Title,
		URL:                  s.URL,
		Source:               s.Source,
		Summary:              s.Summary,
		P20:                  present(s.P20),
		P50:                  present(s.P50),
		P80:                  present(s.P80),
		Confidence:           present(s.Confidence),
		CreatedDate:          s.CreatedDate,
		RealizedExcessReturn: present(s.RealizedExcessReturn),
		RealizedAt:           s.RealizedAt,
	}
	if s.Drivers != "" {
		raw.Drivers = contracts.FlexStrings{s.Drivers}
	}
	if s.HorizonDays != 0 {
		raw.HorizonDays = present(contracts.M(float64(s.HorizonDays)))
	}
	return raw
}

func present(m contracts.Metric) *contracts.Metric {
	if !m.Valid() {
		return nil
	}
	return &m
}
