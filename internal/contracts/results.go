package contracts

// Dashboard is the rendered dashboard view
type Dashboard struct {
	Signals       []Signal      `json:"signals"`
	Header        HeaderStats   `json:"header"`
	Trending      []TickerTrend `json:"trending"`
	TopSources    []SourceRank  `json:"top_sources"`
	TickerOptions []string      `json:"ticker_options"`
}

// HeaderStats summarizes the dashboard
type HeaderStats struct {
	Total       int     `json:"total"`
	Shown       int     `json:"shown"`
	WindowLabel string  `json:"window_label"`
	Strongest   *Signal `json:"strongest"`
	HighestConf *Signal `json:"highest_conf"`
}

// TickerTrend is one row of the trending-tickers rollup
type TickerTrend struct {
	Ticker       string  `json:"ticker"`
	Count        int     `json:"count"`
	AvgAbsImpact float64 `json:"avg_abs_impact"`
}

// SourceRank is one row of the top-sources rollup
type SourceRank struct {
	Source         string  `json:"source"`
	Count          int     `json:"count"`
	AvgImpactScore float64 `json:"avg_impact_score"`
}

// ScreenerResult holds realized-return statistics.
// Count is the number of finite realized returns; Signals are all matches.
type ScreenerResult struct {
	Count     int      `json:"count"`
	AvgExcess *float64 `json:"avg_excess"`
	StdExcess *float64 `json:"std_excess"`
	Signals   []Signal `json:"signals"`
}

// CalibrationStats compares model and user guesses against realized returns
type CalibrationStats struct {
	Count    int      `json:"count"`
	ModelMAE *float64 `json:"model_mae"`
	UserMAE  *float64 `json:"user_mae"`
}
