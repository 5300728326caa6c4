package commands

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/wonny/imi/internal/aggregation"
)

// dashboardCmd represents the dashboard command
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "대시보드 집계 출력",
	Long: `API의 /api/imi/dashboard 와 같은 집계를 터미널에 출력합니다.

Example:
  go run ./cmd/imi dashboard --window 30d --sort confidence --min-conf 60
  go run ./cmd/imi dashboard --tickers NVDA,AMD --direction up`,
	RunE: runDashboard,
}

var dashboardFlags struct {
	window, sort, search, tickers, minConf, direction string
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	f := dashboardCmd.Flags()
	f.StringVar(&dashboardFlags.window, "window", "", "24h | 7d | 30d | all")
	f.StringVar(&dashboardFlags.sort, "sort", "", "impact | confidence | newest")
	f.StringVar(&dashboardFlags.search, "search", "", "title/summary/ticker search")
	f.StringVar(&dashboardFlags.tickers, "tickers", "", "comma separated tickers")
	f.StringVar(&dashboardFlags.minConf, "min-conf", "", "minimum confidence (0-100)")
	f.StringVar(&dashboardFlags.direction, "direction", "", "all | up | down | flat")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// 플래그를 쿼리스트링으로 변환해 API와 같은 파서를 사용
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("window", dashboardFlags.window)
	set("sort", dashboardFlags.sort)
	set("search", dashboardFlags.search)
	set("tickers", dashboardFlags.tickers)
	set("min_conf", dashboardFlags.minConf)
	set("direction", dashboardFlags.direction)

	q, err := aggregation.ParseQuery(v)
	if err != nil {
		return err
	}

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	d, err := a.svc.Dashboard(ctx, q)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(d)
	}

	PrintHeader(fmt.Sprintf("Dashboard · %s · sort=%s", d.Header.WindowLabel, q.Sort))
	fmt.Printf("  Showing %d of %d signals\n", d.Header.Shown, d.Header.Total)
	if s := d.Header.Strongest; s != nil {
		fmt.Printf("  Strongest : %s (p50 %s)\n", s.Ticker, fmtMetric(s.P50, 2))
	}
	if s := d.Header.HighestConf; s != nil {
		fmt.Printf("  Top conf  : %s (%s)\n", s.Ticker, fmtMetric(s.Confidence, 0))
	}
	fmt.Println()
	printSignals(d.Signals)

	if len(d.Trending) > 0 {
		fmt.Println("\nTrending:")
		for _, t := range d.Trending {
			fmt.Printf("  %-6s %2d  avg|impact| %.2f\n", t.Ticker, t.Count, t.AvgAbsImpact)
		}
	}
	if len(d.TopSources) > 0 {
		fmt.Println("\nTop sources:")
		for _, s := range d.TopSources {
			fmt.Printf("  %-24s %2d  avg impact %.2f\n", s.Source, s.Count, s.AvgImpactScore)
		}
	}
	return nil
}
