package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/imi/internal/forecast"
)

// forecastCmd represents the forecast command
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "뉴스 예측 요청",
	Long: `예측 서비스에 뉴스 예측을 요청합니다.
서비스가 응답하지 않으면 중립 fallback 결과를 출력합니다.

Example:
  go run ./cmd/imi forecast --ticker AAPL --title "Apple beats estimates"`,
	RunE: runForecast,
}

var forecastFlags struct {
	ticker, title, content string
}

func init() {
	rootCmd.AddCommand(forecastCmd)

	f := forecastCmd.Flags()
	f.StringVar(&forecastFlags.ticker, "ticker", "", "ticker")
	f.StringVar(&forecastFlags.title, "title", "", "headline")
	f.StringVar(&forecastFlags.content, "content", "", "article body")
}

func runForecast(cmd *cobra.Command, args []string) error {
	if forecastFlags.ticker == "" && forecastFlags.title == "" {
		return errors.New("--ticker or --title is required")
	}

	ctx := context.Background()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	req := forecast.NewsRequest{
		Ticker:  forecastFlags.ticker,
		Title:   forecastFlags.title,
		Content: forecastFlags.content,
	}
	nf := a.forecast.ForecastNews(ctx, req)
	if jsonOutput {
		return printJSON(nf)
	}

	sig := nf.ToSignal(req)
	PrintHeader("Forecast · " + sig.Ticker)
	if nf.Fallback {
		fmt.Println("  ⚠️  forecast service unavailable, showing neutral fallback")
	}
	fmt.Printf("  p20 / p50 / p80 : %s / %s / %s\n", fmtMetric(sig.P20, 2), fmtMetric(sig.P50, 2), fmtMetric(sig.P80, 2))
	fmt.Printf("  Confidence      : %s\n", fmtMetric(sig.Confidence, 0))
	if sig.HorizonDays > 0 {
		fmt.Printf("  Horizon         : %dd\n", sig.HorizonDays)
	}
	return nil
}
