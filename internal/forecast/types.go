package forecast

import (
	"math"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/signals"
)

// Neutral placeholder values returned when the forecast service is unavailable
const (
	FallbackMedian     = 0.0
	FallbackLow        = -0.4
	FallbackHigh       = 0.8
	FallbackConfidence = 56.0 // percent
	FallbackProb       = 0.5
	FallbackAction     = "hold"
	FallbackHorizon    = 5

	FallbackForecastID   = "fc_fallback"
	FallbackModelVersion = "v0.fallback"
	FallbackCoverage12m  = 0.72

	DefaultAsset        = "MARKET"
	DefaultHorizon      = 10
	DefaultConfidence   = 0.56 // fraction, legacy /forecast shape
	UnknownModelVersion = "v?"
)

// NewsRequest is the IMI Lab input
type NewsRequest struct {
	Ticker  string `json:"ticker"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NewsForecast carries either the probability shape or the percentile shape.
// Absent fields are null metrics.
type NewsForecast struct {
	Ticker      string `json:"ticker,omitempty"`
	Title       string `json:"title,omitempty"`
	HorizonDays int    `json:"horizon_days"`

	// Probability shape
	ProbUp          contracts.Metric `json:"prob_up"`
	ProbDown        contracts.Metric `json:"prob_down"`
	ClassThreshold  contracts.Metric `json:"class_threshold"`
	SuggestedAction string           `json:"suggested_action,omitempty"`

	// Percentile shape
	MedianExcessPct contracts.Metric `json:"median_excess_pct"`
	P20ExcessPct    contracts.Metric `json:"p20_excess_pct"`
	P80ExcessPct    contracts.Metric `json:"p80_excess_pct"`
	Confidence      contracts.Metric `json:"confidence"`

	Fallback bool `json:"fallback,omitempty"`
}

// newsWire decodes the service response with absent metrics kept null
type newsWire struct {
	Ticker          string            `json:"ticker"`
	Title           string            `json:"title"`
	HorizonDays     *contracts.Metric `json:"horizon_days"`
	ProbUp          *contracts.Metric `json:"prob_up"`
	ProbDown        *contracts.Metric `json:"prob_down"`
	ClassThreshold  *contracts.Metric `json:"class_threshold"`
	SuggestedAction string            `json:"suggested_action"`
	MedianExcessPct *contracts.Metric `json:"median_excess_pct"`
	P20ExcessPct    *contracts.Metric `json:"p20_excess_pct"`
	P80ExcessPct    *contracts.Metric `json:"p80_excess_pct"`
	Confidence      *contracts.Metric `json:"confidence"`
}

func (w newsWire) forecast(req NewsRequest) NewsForecast {
	nf := NewsForecast{
		Ticker:          firstNonEmpty(w.Ticker, req.Ticker),
		Title:           firstNonEmpty(w.Title, req.Title),
		HorizonDays:     FallbackHorizon,
		ProbUp:          deref(w.ProbUp),
		ProbDown:        deref(w.ProbDown),
		ClassThreshold:  deref(w.ClassThreshold),
		SuggestedAction: w.SuggestedAction,
		MedianExcessPct: deref(w.MedianExcessPct),
		P20ExcessPct:    deref(w.P20ExcessPct),
		P80ExcessPct:    deref(w.P80ExcessPct),
		Confidence:      deref(w.Confidence),
	}
	if w.HorizonDays != nil && w.HorizonDays.Finite() {
		nf.HorizonDays = int(math.Round(w.HorizonDays.Float()))
	}
	return nf
}

// NeutralNews is the documented fallback for a failed news forecast
func NeutralNews(req NewsRequest) NewsForecast {
	return NewsForecast{
		Ticker:          req.Ticker,
		Title:           req.Title,
		HorizonDays:     FallbackHorizon,
		ProbUp:          contracts.M(FallbackProb),
		ProbDown:        contracts.M(FallbackProb),
		ClassThreshold:  contracts.Null(),
		SuggestedAction: FallbackAction,
		MedianExcessPct: contracts.M(FallbackMedian),
		P20ExcessPct:    contracts.M(FallbackLow),
		P80ExcessPct:    contracts.M(FallbackHigh),
		Confidence:      contracts.M(FallbackConfidence),
		Fallback:        true,
	}
}

// HasPercentiles reports whether the percentile shape is present
func (nf NewsForecast) HasPercentiles() bool {
	return nf.MedianExcessPct.Valid()
}

// ConfidencePct returns confidence in percent.
// Fractions (<= 1) are scaled by 100; the probability shape uses max(prob_up, prob_down).
func (nf NewsForecast) ConfidencePct() contracts.Metric {
	if nf.Confidence.Finite() {
		c := nf.Confidence.Float()
		if c <= 1 {
			c *= 100
		}
		return contracts.M(c)
	}

	up, upOK := signals.AsFiniteOrExclude(nf.ProbUp)
	down, downOK := signals.AsFiniteOrExclude(nf.ProbDown)
	switch {
	case upOK && downOK:
		return contracts.M(math.Max(up, down) * 100)
	case upOK:
		return contracts.M(up * 100)
	case downOK:
		return contracts.M(down * 100)
	}
	return contracts.Null()
}

// ToSignal builds the Signal an IMI Lab run stores
func (nf NewsForecast) ToSignal(req NewsRequest) contracts.Signal {
	s := contracts.NewSignal()
	s.Ticker = signals.NormalizeTicker(firstNonEmpty(nf.Ticker, req.Ticker))
	s.Title = firstNonEmpty(req.Title, nf.Title)
	s.Summary = req.Content
	s.HorizonDays = nf.HorizonDays
	s.Confidence = nf.ConfidencePct()

	if nf.HasPercentiles() {
		s.P50 = nf.MedianExcessPct
		s.P20 = nf.P20ExcessPct
		s.P80 = nf.P80ExcessPct
	} else {
		s.P50 = contracts.M(0)
	}
	return s
}

// ForecastRequest is the legacy free-text forecast input
type ForecastRequest struct {
	Text        string   `json:"text"`
	Tickers     []string `json:"tickers"`
	HorizonDays int      `json:"horizon_days"`
	Source      string   `json:"source,omitempty"`
}

// Impact is the headline block of a legacy forecast
type Impact struct {
	Asset        string     `json:"asset"`
	Ticker       *string    `json:"ticker"`
	HorizonDays  int        `json:"horizonDays"`
	MedianPct    float64    `json:"medianPct"`
	RangePct     [2]float64 `json:"rangePct"`
	Confidence   float64    `json:"confidence"`
	ModelVersion string     `json:"modelVersion"`
}

// Forecast is the coerced legacy forecast response
type Forecast struct {
	ForecastID  string        `json:"forecast_id"`
	IMI         Impact        `json:"imi"`
	Metrics     []interface{} `json:"metrics"`
	Summary     string        `json:"summary"`
	Sectors     []string      `json:"sectors"`
	Assumptions []string      `json:"assumptions"`
	Risks       []string      `json:"risks"`
	Drivers     []string      `json:"drivers"`
	Fallback    bool          `json:"fallback,omitempty"`
}

type forecastWire struct {
	ForecastID  string        `json:"forecast_id"`
	IMI         *impactWire   `json:"imi"`
	Metrics     []interface{} `json:"metrics"`
	Summary     string        `json:"summary"`
	Sectors     []string      `json:"sectors"`
	Assumptions []string      `json:"assumptions"`
	Risks       []string      `json:"risks"`
	Drivers     []string      `json:"drivers"`
}

type impactWire struct {
	Asset        *string             `json:"asset"`
	Ticker       *string             `json:"ticker"`
	HorizonDays  *contracts.Metric   `json:"horizonDays"`
	MedianPct    *contracts.Metric   `json:"medianPct"`
	RangePct     []*contracts.Metric `json:"rangePct"`
	Confidence   *contracts.Metric   `json:"confidence"`
	ModelVersion *string             `json:"modelVersion"`
}

// coerce fills defaults; ok is false when the imi block is missing
func (w forecastWire) coerce() (Forecast, bool) {
	if w.IMI == nil {
		return Forecast{}, false
	}

	fc := Forecast{
		ForecastID:  w.ForecastID,
		Summary:     w.Summary,
		Sectors:     orEmpty(w.Sectors),
		Assumptions: orEmpty(w.Assumptions),
		Risks:       orEmpty(w.Risks),
		Drivers:     orEmpty(w.Drivers),
		Metrics:     w.Metrics,
		IMI: Impact{
			Asset:        DefaultAsset,
			Ticker:       w.IMI.Ticker,
			HorizonDays:  DefaultHorizon,
			Confidence:   DefaultConfidence,
			ModelVersion: UnknownModelVersion,
		},
	}
	if fc.Metrics == nil {
		fc.Metrics = []interface{}{}
	}
	if w.IMI.Asset != nil {
		fc.IMI.Asset = *w.IMI.Asset
	}
	if w.IMI.HorizonDays != nil && w.IMI.HorizonDays.Finite() {
		fc.IMI.HorizonDays = int(math.Round(w.IMI.HorizonDays.Float()))
	}
	fc.IMI.MedianPct = metricOr(w.IMI.MedianPct, 0)
	for i := 0; i < 2 && i < len(w.IMI.RangePct); i++ {
		fc.IMI.RangePct[i] = metricOr(w.IMI.RangePct[i], 0)
	}
	fc.IMI.Confidence = metricOr(w.IMI.Confidence, DefaultConfidence)
	if w.IMI.ModelVersion != nil {
		fc.IMI.ModelVersion = *w.IMI.ModelVersion
	}
	return fc, true
}

// NeutralForecast is the fallback for a failed legacy forecast
func NeutralForecast(req ForecastRequest) Forecast {
	summary := "Service offline; neutral placeholder."
	if req.Text != "" {
		summary = "Paraphrased: " + truncate(req.Text, 120)
	}
	horizon := req.HorizonDays
	if horizon == 0 {
		horizon = DefaultHorizon
	}

	return Forecast{
		ForecastID: FallbackForecastID,
		IMI: Impact{
			Asset:        DefaultAsset,
			HorizonDays:  horizon,
			MedianPct:    FallbackMedian,
			RangePct:     [2]float64{FallbackLow, FallbackHigh},
			Confidence:   DefaultConfidence,
			ModelVersion: FallbackModelVersion,
		},
		Metrics:     []interface{}{},
		Summary:     summary,
		Sectors:     []string{},
		Assumptions: []string{"No exogenous shock within horizon"},
		Risks:       []string{"Policy surprise", "Liquidity shock"},
		Drivers:     []string{},
		Fallback:    true,
	}
}

// Analysis is the /analyze response
type Analysis struct {
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords"`
	Sectors  []string `json:"sectors"`
	Fallback bool     `json:"fallback,omitempty"`
}

// NeutralAnalysis echoes the first 180 characters of text
func NeutralAnalysis(text string) Analysis {
	return Analysis{
		Summary:  truncate(text, 180),
		Keywords: []string{},
		Sectors:  []string{},
		Fallback: true,
	}
}

// Receipt is the provenance record of a forecast
type Receipt struct {
	ForecastID   string  `json:"forecast_id"`
	Coverage12m  float64 `json:"coverage12m"`
	ModelVersion string  `json:"model_version"`
	Analogs      int     `json:"analogs"`
	Fallback     bool    `json:"fallback,omitempty"`
}

// NeutralReceipt is the fallback receipt
func NeutralReceipt(id string) Receipt {
	return Receipt{
		ForecastID:   id,
		Coverage12m:  FallbackCoverage12m,
		ModelVersion: FallbackModelVersion,
		Analogs:      0,
		Fallback:     true,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func deref(m *contracts.Metric) contracts.Metric {
	if m == nil {
		return contracts.Null()
	}
	return *m
}

func metricOr(m *contracts.Metric, def float64) float64 {
	if m == nil || !m.Finite() {
		return def
	}
	return m.Float()
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
