package aggregation

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/signals"
)

var now = time.Date(2025, 11, 12, 0, 0, 0, 0, time.UTC)

func sig(id, ticker string, p50, conf float64, date string) contracts.Signal {
	s := contracts.NewSignal()
	s.ID = id
	s.Ticker = ticker
	s.Title = ticker + " headline " + id
	s.P50 = contracts.M(p50)
	s.Confidence = contracts.M(conf)
	s.CreatedDate = date
	return s
}

func ids(in []contracts.Signal) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, s.ID)
	}
	return out
}

func floatPtr(v float64) *float64 { return &v }

func TestAggregate_AAPLBeforeTSLA(t *testing.T) {
	in := []contracts.Signal{
		sig("2", "TSLA", 0.9, 61, "2025-11-08"),
		sig("1", "AAPL", 1.2, 72, "2025-11-10"),
	}

	d := Aggregate(in, contracts.DefaultDashboardQuery(), now)

	assert.Equal(t, []string{"1", "2"}, ids(d.Signals))
	assert.Equal(t, 2, d.Header.Total)
	assert.Equal(t, 2, d.Header.Shown)
	assert.Equal(t, "Last 7 days", d.Header.WindowLabel)
	require.NotNil(t, d.Header.Strongest)
	assert.Equal(t, "1", d.Header.Strongest.ID)
	require.NotNil(t, d.Header.HighestConf)
	assert.Equal(t, "1", d.Header.HighestConf.ID)
	assert.InDelta(t, 0.864, signals.Impact(d.Signals[0]), 1e-9)
	assert.InDelta(t, 0.549, signals.Impact(d.Signals[1]), 1e-9)
	assert.Equal(t, []string{"AAPL", "TSLA"}, d.TickerOptions)
}

func TestAggregate_EmptyInput(t *testing.T) {
	d := Aggregate(nil, contracts.DefaultDashboardQuery(), now)

	assert.Equal(t, 0, d.Header.Total)
	assert.Equal(t, 0, d.Header.Shown)
	assert.Nil(t, d.Header.Strongest)
	assert.Nil(t, d.Header.HighestConf)
	assert.NotNil(t, d.Signals)
	assert.Empty(t, d.Signals)
	assert.Empty(t, d.Trending)
	assert.Empty(t, d.TopSources)
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	in := []contracts.Signal{
		sig("a", "AAPL", 0.1, 10, "2025-11-11"),
		sig("b", "MSFT", 3.0, 90, "2025-11-11"),
	}
	before := ids(in)

	_ = Aggregate(in, contracts.DefaultDashboardQuery(), now)

	assert.Equal(t, before, ids(in))
}

func TestFilter_Search(t *testing.T) {
	in := []contracts.Signal{
		sig("1", "AAPL", 1, 50, ""),
		sig("2", "TSLA", 1, 50, ""),
	}
	in[1].Title = "Energy storage in Texas"

	assert.Equal(t, []string{"2"}, ids(Filter(in, contracts.DashboardFilters{Search: "  TEXAS "})))
	assert.Equal(t, []string{"1"}, ids(Filter(in, contracts.DashboardFilters{Search: "aap"})))
	assert.Len(t, Filter(in, contracts.DashboardFilters{Search: "   "}), 2)
}

func TestFilter_Tickers(t *testing.T) {
	in := []contracts.Signal{
		sig("1", "AAPL", 1, 50, ""),
		sig("2", "TSLA", 1, 50, ""),
		sig("3", "", 1, 50, ""),
	}

	got := Filter(in, contracts.DashboardFilters{Tickers: []string{"tsla"}})
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestFilter_MinConfidenceExcludesNonFinite(t *testing.T) {
	nan := sig("nan", "AAPL", 1, 0, "2025-11-11")
	nan.Confidence = contracts.Null()
	in := []contracts.Signal{
		nan,
		sig("low", "AAPL", 1, 49.9, "2025-11-11"),
		sig("edge", "AAPL", 1, 50, "2025-11-11"),
	}

	got := Filter(in, contracts.DashboardFilters{MinConfidence: floatPtr(50)})
	assert.Equal(t, []string{"edge"}, ids(got))

	// no threshold: everything passes
	assert.Len(t, Filter(in, contracts.DashboardFilters{}), 3)

	// non-finite threshold is inactive
	assert.Len(t, Filter(in, contracts.DashboardFilters{MinConfidence: floatPtr(math.NaN())}), 3)
}

func TestFilter_ZeroThresholdStillExcludesMissingConfidence(t *testing.T) {
	missing := sig("missing", "AAPL", 1, 0, "2025-11-11")
	missing.Confidence = contracts.Null()
	in := []contracts.Signal{missing, sig("zero", "AAPL", 1, 0, "2025-11-11")}

	assert.Equal(t, []string{"zero"}, ids(Filter(in, contracts.DashboardFilters{MinConfidence: floatPtr(0)})))

	q, err := ParseQuery(url.Values{"min_conf": {"0"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"zero"}, ids(Filter(in, q.Filters)))
}

func TestFilter_Direction(t *testing.T) {
	flat := sig("null", "X", 0, 50, "")
	flat.P50 = contracts.Null()
	in := []contracts.Signal{
		sig("up", "X", 0.5, 50, ""),
		sig("down", "X", -0.5, 50, ""),
		sig("zero", "X", 0, 50, ""),
		flat,
	}

	tests := []struct {
		dir  contracts.Direction
		want []string
	}{
		{contracts.DirectionAll, []string{"up", "down", "zero", "null"}},
		{"", []string{"up", "down", "zero", "null"}},
		{contracts.DirectionUp, []string{"up"}},
		{contracts.DirectionDown, []string{"down"}},
		{contracts.DirectionFlat, []string{"zero", "null"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.dir), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(in, contracts.DashboardFilters{Direction: tt.dir})))
		})
	}
}

func TestInWindow(t *testing.T) {
	in := []contracts.Signal{
		sig("fresh", "A", 1, 50, "2025-11-11T12:00:00Z"),
		sig("cutoff", "A", 1, 50, "2025-11-05T00:00:00Z"),
		sig("old", "A", 1, 50, "2025-10-20"),
		sig("missing", "A", 1, 50, ""),
		sig("garbage", "A", 1, 50, "last tuesday"),
	}

	assert.Equal(t, []string{"fresh"}, ids(InWindow(in, contracts.Window24h, now)))
	assert.Equal(t, []string{"fresh", "cutoff"}, ids(InWindow(in, contracts.Window7d, now)))
	assert.Equal(t, []string{"fresh", "cutoff", "old"}, ids(InWindow(in, contracts.Window30d, now)))
	assert.Len(t, InWindow(in, contracts.WindowAll, now), 5)
}

func TestSort_Newest(t *testing.T) {
	in := []contracts.Signal{
		sig("missing", "A", 1, 50, ""),
		sig("mid", "A", 1, 50, "2025-11-08"),
		sig("new", "A", 1, 50, "2025-11-10"),
		sig("old", "A", 1, 50, "2025-11-01"),
	}

	got := Sort(in, contracts.SortNewest)
	assert.Equal(t, []string{"new", "mid", "old", "missing"}, ids(got))
}

func TestSort_NewestUndatedAfterPre1970(t *testing.T) {
	in := []contracts.Signal{
		sig("missing", "A", 1, 50, ""),
		sig("garbage", "A", 1, 50, "someday"),
		sig("sixties", "A", 1, 50, "1965-03-01"),
		sig("epoch", "A", 1, 50, "1970-01-01"),
		sig("recent", "A", 1, 50, "2025-11-10"),
	}

	got := Sort(in, contracts.SortNewest)
	assert.Equal(t, []string{"recent", "epoch", "sixties", "missing", "garbage"}, ids(got))
}

func TestSort_NewestOrderingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	in := make([]contracts.Signal, 0, 50)
	for i := 0; i < 50; i++ {
		d := now.Add(-time.Duration(rng.Intn(60*24)) * time.Hour)
		in = append(in, sig(fmt.Sprint(i), "A", 1, 50, d.Format(time.RFC3339)))
	}

	got := Sort(in, contracts.SortNewest)
	for i := 0; i+1 < len(got); i++ {
		a, _ := signals.DateOf(got[i])
		b, _ := signals.DateOf(got[i+1])
		assert.False(t, a.Before(b), "row %d (%s) before row %d (%s)", i, a, i+1, b)
	}
}

func TestSort_ConfidenceTreatsMissingAsZero(t *testing.T) {
	missing := sig("missing", "A", 1, 0, "")
	missing.Confidence = contracts.Null()
	in := []contracts.Signal{
		missing,
		sig("neg", "A", 1, -5, ""),
		sig("high", "A", 1, 80, ""),
	}

	assert.Equal(t, []string{"high", "missing", "neg"}, ids(Sort(in, contracts.SortConfidence)))
}

func TestSort_StableOnTies(t *testing.T) {
	in := []contracts.Signal{
		sig("first", "A", 1, 50, ""),
		sig("second", "B", -1, 50, ""),
		sig("third", "C", 1, 50, ""),
	}

	assert.Equal(t, []string{"first", "second", "third"}, ids(Sort(in, contracts.SortImpact)))
}

func TestHeader_FirstMaxWinsTies(t *testing.T) {
	sorted := []contracts.Signal{
		sig("a", "A", 1, 50, ""),
		sig("b", "B", -1, 50, ""),
	}

	h := Header(5, sorted, contracts.WindowAll)
	assert.Equal(t, 5, h.Total)
	assert.Equal(t, 2, h.Shown)
	assert.Equal(t, "All time", h.WindowLabel)
	assert.Equal(t, "a", h.Strongest.ID)
	assert.Equal(t, "a", h.HighestConf.ID)
}

func TestHeader_NullConfidenceFirstRowCanBeOvertaken(t *testing.T) {
	first := sig("null", "A", 1, 0, "")
	first.Confidence = contracts.Null()
	sorted := []contracts.Signal{first, sig("real", "B", 1, 10, "")}

	h := Header(2, sorted, contracts.WindowAll)
	assert.Equal(t, "real", h.HighestConf.ID)
}

func TestTrending(t *testing.T) {
	noTicker := sig("5", "", 4, 50, "")
	nanP50 := sig("6", "MSFT", 0, 50, "")
	nanP50.P50 = contracts.Null()

	in := []contracts.Signal{
		sig("1", "aapl", 1, 50, ""),
		sig("2", "AAPL", -3, 50, ""),
		sig("3", "TSLA", 5, 50, ""),
		sig("4", "TSLA", 1, 50, ""),
		noTicker,
		nanP50,
		sig("7", "MSFT", 0.5, 50, ""),
	}

	got := Trending(in)
	require.Len(t, got, 3)
	assert.Equal(t, contracts.TickerTrend{Ticker: "TSLA", Count: 2, AvgAbsImpact: 3}, got[0])
	assert.Equal(t, contracts.TickerTrend{Ticker: "AAPL", Count: 2, AvgAbsImpact: 2}, got[1])
	assert.Equal(t, contracts.TickerTrend{Ticker: "MSFT", Count: 2, AvgAbsImpact: 0.25}, got[2])
}

func TestTrending_UnknownTicker(t *testing.T) {
	got := Trending([]contracts.Signal{sig("1", "  ", 2, 50, "")})
	require.Len(t, got, 1)
	assert.Equal(t, UnknownTicker, got[0].Ticker)
}

func TestTopSources(t *testing.T) {
	mk := func(id, source, u string, p50, conf float64) contracts.Signal {
		s := sig(id, "A", p50, conf, "")
		s.Source = source
		s.URL = u
		return s
	}
	in := []contracts.Signal{
		mk("1", " Reuters ", "", 1, 50),                    // 0.5
		mk("2", "Reuters", "", 3, 50),                      // 1.5
		mk("3", "", "https://www.bloomberg.com/a", 2, 100), // 2
		mk("4", "", "::bad::", 9, 100),                     // dropped
		mk("5", "", "", 9, 100),                            // dropped
		mk("6", "Blog", "", 0.1, 10),                       // 0.01
		mk("7", "   ", "https://www.ft.com/b", 9, 100),     // blank explicit source, dropped
		mk("8", "Wire", "", 0.2, 10),                       // 0.02
	}

	got := TopSources(in)
	require.Len(t, got, 3)
	assert.Equal(t, "www.bloomberg.com", got[0].Source)
	assert.InDelta(t, 2, got[0].AvgImpactScore, 1e-9)
	assert.Equal(t, "Reuters", got[1].Source)
	assert.Equal(t, 2, got[1].Count)
	assert.InDelta(t, 1, got[1].AvgImpactScore, 1e-9)
	assert.Equal(t, "Wire", got[2].Source)
}

func TestAggregate_RollupsUseWindowedSetBeforeSort(t *testing.T) {
	in := []contracts.Signal{
		sig("old", "OLD", 9, 99, "2025-01-01"),
		sig("1", "AAPL", 1.2, 72, "2025-11-10"),
	}

	d := Aggregate(in, contracts.DefaultDashboardQuery(), now)
	require.Len(t, d.Trending, 1)
	assert.Equal(t, "AAPL", d.Trending[0].Ticker)
	assert.Equal(t, []string{"AAPL", "OLD"}, d.TickerOptions)
}

func TestAggregate_OutOfOrderPercentiles(t *testing.T) {
	s := sig("weird", "AAPL", 1, 50, "2025-11-11")
	s.P20 = contracts.M(5)
	s.P80 = contracts.M(-5)

	d := Aggregate([]contracts.Signal{s}, contracts.DefaultDashboardQuery(), now)
	assert.Equal(t, 1, d.Header.Shown)
}

func randomSignals(rng *rand.Rand, n int) []contracts.Signal {
	tickers := []string{"AAPL", "TSLA", "", "nvda", "MSFT"}
	dates := []string{"", "garbage", "2025-11-11", "2025-11-01", "2025-10-20T10:00:00Z", "2024-01-01"}
	metric := func() contracts.Metric {
		switch rng.Intn(6) {
		case 0:
			return contracts.Null()
		case 1:
			return contracts.M(math.Inf(1 - 2*rng.Intn(2)))
		default:
			return contracts.M(rng.NormFloat64() * 3)
		}
	}

	out := make([]contracts.Signal, 0, n)
	for i := 0; i < n; i++ {
		s := contracts.NewSignal()
		s.ID = fmt.Sprint(i)
		s.Ticker = tickers[rng.Intn(len(tickers))]
		s.Title = "headline"
		s.P50 = metric()
		s.Confidence = metric()
		s.CreatedDate = dates[rng.Intn(len(dates))]
		if rng.Intn(2) == 0 {
			s.URL = "https://news.example.com/" + s.ID
		}
		out = append(out, s)
	}
	return out
}

func TestAggregate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	windows := []contracts.DateWindow{contracts.Window24h, contracts.Window7d, contracts.Window30d, contracts.WindowAll}
	sorts := []contracts.SortMode{contracts.SortImpact, contracts.SortConfidence, contracts.SortNewest}

	for i := 0; i < 200; i++ {
		in := randomSignals(rng, rng.Intn(30))
		q := contracts.DashboardQuery{
			Window: windows[rng.Intn(len(windows))],
			Sort:   sorts[rng.Intn(len(sorts))],
		}
		if rng.Intn(2) == 0 {
			q.Filters.MinConfidence = floatPtr(rng.Float64() * 3)
		}

		first := Aggregate(in, q, now)
		second := Aggregate(in, q, now)

		assert.LessOrEqual(t, first.Header.Shown, first.Header.Total)
		assert.LessOrEqual(t, len(first.Trending), TopN)
		assert.LessOrEqual(t, len(first.TopSources), TopN)

		// NaN metrics defeat reflect.DeepEqual; compare the wire form instead
		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(second)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), "aggregate must be deterministic")

		for _, s := range in {
			if signals.AsFiniteOrZero(s.Confidence) >= 0 {
				assert.GreaterOrEqual(t, signals.Impact(s), 0.0)
			}
		}
	}
}

func TestParseQuery(t *testing.T) {
	q, err := ParseQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, contracts.DefaultDashboardQuery(), q)

	q, err = ParseQuery(url.Values{
		"window":    {"30D"},
		"sort":      {"newest"},
		"direction": {"down"},
		"search":    {"apple"},
		"tickers":   {"aapl,tsla", "NVDA"},
		"min_conf":  {"60"},
	})
	require.NoError(t, err)
	assert.Equal(t, contracts.Window30d, q.Window)
	assert.Equal(t, contracts.SortNewest, q.Sort)
	assert.Equal(t, contracts.DirectionDown, q.Filters.Direction)
	assert.Equal(t, "apple", q.Filters.Search)
	assert.Equal(t, []string{"aapl", "tsla", "NVDA"}, q.Filters.Tickers)
	require.NotNil(t, q.Filters.MinConfidence)
	assert.Equal(t, 60.0, *q.Filters.MinConfidence)
}

func TestParseQuery_Invalid(t *testing.T) {
	tests := []url.Values{
		{"window": {"1y"}},
		{"sort": {"random"}},
		{"direction": {"sideways"}},
		{"min_conf": {"high"}},
		{"min_conf": {"NaN"}},
	}
	for _, v := range tests {
		t.Run(v.Encode(), func(t *testing.T) {
			_, err := ParseQuery(v)
			assert.ErrorIs(t, err, contracts.ErrInvalidQuery)
		})
	}
}
