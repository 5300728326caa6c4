package aggregation

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/wonny/imi/internal/contracts"
)

// ParseQuery builds a DashboardQuery from request/CLI parameters.
// Unknown enum values fail with ErrInvalidQuery; absent values take the dashboard defaults.
func ParseQuery(v url.Values) (contracts.DashboardQuery, error) {
	q := contracts.DefaultDashboardQuery()

	if w := strings.ToLower(strings.TrimSpace(v.Get("window"))); w != "" {
		switch contracts.DateWindow(w) {
		case contracts.Window24h, contracts.Window7d, contracts.Window30d, contracts.WindowAll:
			q.Window = contracts.DateWindow(w)
		default:
			return q, fmt.Errorf("%w: window %q", contracts.ErrInvalidQuery, w)
		}
	}

	if s := strings.ToLower(strings.TrimSpace(v.Get("sort"))); s != "" {
		switch contracts.SortMode(s) {
		case contracts.SortImpact, contracts.SortConfidence, contracts.SortNewest:
			q.Sort = contracts.SortMode(s)
		default:
			return q, fmt.Errorf("%w: sort %q", contracts.ErrInvalidQuery, s)
		}
	}

	if d := strings.ToLower(strings.TrimSpace(v.Get("direction"))); d != "" {
		switch contracts.Direction(d) {
		case contracts.DirectionAll, contracts.DirectionUp, contracts.DirectionDown, contracts.DirectionFlat:
			q.Filters.Direction = contracts.Direction(d)
		default:
			return q, fmt.Errorf("%w: direction %q", contracts.ErrInvalidQuery, d)
		}
	}

	q.Filters.Search = v.Get("search")
	q.Filters.Tickers = SplitList(v["tickers"])

	if raw := strings.TrimSpace(v.Get("min_conf")); raw != "" {
		mc, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(mc) || math.IsInf(mc, 0) {
			return q, fmt.Errorf("%w: min_conf %q", contracts.ErrInvalidQuery, raw)
		}
		q.Filters.MinConfidence = &mc
	}

	return q, nil
}

// SplitList accepts repeated and comma-separated values ("AAPL,tsla")
func SplitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
