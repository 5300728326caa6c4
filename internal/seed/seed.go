// Package seed holds the embedded initial feed and theme taxonomy.
package seed

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/signals"
)

//go:embed signals.yaml
var signalsYAML []byte

//go:embed themes.yaml
var themesYAML []byte

// SignalFile is the on-disk seed format
type SignalFile struct {
	Version int          `yaml:"version"`
	Signals []SignalSeed `yaml:"signals"`
}

// SignalSeed mirrors the forgiving signal shape in YAML
type SignalSeed struct {
	ID          string   `yaml:"id"`
	Ticker      string   `yaml:"ticker"`
	Tickers     []string `yaml:"tickers"`
	Title       string   `yaml:"title"`
	Headline    string   `yaml:"headline"`
	URL         string   `yaml:"url"`
	Source      string   `yaml:"source"`
	Summary     string   `yaml:"summary"`
	Drivers     []string `yaml:"drivers"`
	CreatedDate string   `yaml:"created_date"`
	Date        string   `yaml:"date"`
	PublishedAt string   `yaml:"published_at"`

	P20        *float64 `yaml:"p20"`
	P50        *float64 `yaml:"p50"`
	P80        *float64 `yaml:"p80"`
	Low        *float64 `yaml:"low"`
	Median     *float64 `yaml:"median"`
	High       *float64 `yaml:"high"`
	Confidence *float64 `yaml:"confidence"`

	CalibratedConfidence *float64 `yaml:"calibrated_confidence"`
	HorizonDays          *float64 `yaml:"horizon_days"`
	RealizedExcessReturn *float64 `yaml:"realized_excess_return"`
	RealizedAt           string   `yaml:"realized_at"`
}

// ThemeFile is the on-disk theme taxonomy format
type ThemeFile struct {
	Version int         `yaml:"version"`
	Themes  []ThemeSeed `yaml:"themes"`
}

// ThemeSeed is one theme without an id; ids are assigned when seeded
type ThemeSeed struct {
	Slug        string   `yaml:"slug"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tickers     []string `yaml:"tickers"`
}

// Signals returns the embedded seed feed, normalized
func Signals() ([]contracts.Signal, error) {
	return parseSignals(signalsYAML)
}

// LoadFile reads an operator-supplied seed file
// SSOT 핵심: KnownFields(true)로 오타/미사용 필드 즉시 실패
func LoadFile(path string) ([]contracts.Signal, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return parseSignals(data)
}

// Themes returns the default theme taxonomy with fresh ids
func Themes() ([]contracts.Theme, error) {
	var file ThemeFile
	if err := decodeStrict(themesYAML, &file); err != nil {
		return nil, fmt.Errorf("decode themes: %w", err)
	}

	out := make([]contracts.Theme, 0, len(file.Themes))
	for _, t := range file.Themes {
		out = append(out, contracts.Theme{
			ID:          contracts.NewID(contracts.PrefixTheme),
			Slug:        t.Slug,
			Name:        t.Name,
			Description: t.Description,
			Tickers:     t.Tickers,
		})
	}
	return out, nil
}

// Checksum identifies the embedded seed set in logs
func Checksum() string {
	sum := sha256.Sum256(signalsYAML)
	return hex.EncodeToString(sum[:8])
}

func parseSignals(data []byte) ([]contracts.Signal, error) {
	var file SignalFile
	if err := decodeStrict(data, &file); err != nil {
		return nil, fmt.Errorf("decode seed signals: %w", err)
	}

	out := make([]contracts.Signal, 0, len(file.Signals))
	for i, s := range file.Signals {
		sig := signals.Normalize(s.Raw())
		if err := signals.Validate(sig); err != nil {
			return nil, fmt.Errorf("seed signal %d: %w", i, err)
		}
		out = append(out, sig)
	}
	return out, nil
}

func decodeStrict(data []byte, dest interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 알 수 없는 필드 발견 시 에러 반환
	return dec.Decode(dest)
}

// Raw converts the YAML record into the forgiving input shape
func (s SignalSeed) Raw() contracts.RawSignal {
	return contracts.RawSignal{
		ID:                   s.ID,
		Ticker:               s.Ticker,
		Tickers:              contracts.FlexStrings(s.Tickers),
		Title:                s.Title,
		Headline:             s.Headline,
		URL:                  s.URL,
		Source:               s.Source,
		Summary:              s.Summary,
		Drivers:              contracts.FlexStrings(s.Drivers),
		P20:                  metricPtr(s.P20),
		P50:                  metricPtr(s.P50),
		P80:                  metricPtr(s.P80),
		Low:                  metricPtr(s.Low),
		Median:               metricPtr(s.Median),
		High:                 metricPtr(s.High),
		Confidence:           metricPtr(s.Confidence),
		CalibratedConfidence: metricPtr(s.CalibratedConfidence),
		HorizonDays:          metricPtr(s.HorizonDays),
		CreatedDate:          s.CreatedDate,
		Date:                 s.Date,
		PublishedAt:          s.PublishedAt,
		RealizedExcessReturn: metricPtr(s.RealizedExcessReturn),
		RealizedAt:           s.RealizedAt,
	}
}

func metricPtr(p *float64) *contracts.Metric {
	if p == nil {
		return nil
	}
	m := contracts.Metric(*p)
	return &m
}
