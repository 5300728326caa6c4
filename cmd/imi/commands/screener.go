package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/imi/internal/screener"
)

// screenerCmd represents the screener command
var screenerCmd = &cobra.Command{
	Use:   "screener",
	Short: "실현 수익률 스크리너/백테스트",
	Long: `실현 초과수익률이 있는 시그널을 조건으로 걸러 평균/표준편차를 계산합니다.

Example:
  go run ./cmd/imi screener --tickers NVDA,AMD --direction up --min-conf 60
  go run ./cmd/imi screener --from 2025-10-01 --to 2025-10-31`,
	RunE: runScreener,
}

var screenerFlags struct {
	tickers, direction, minConf, from, to string
}

func init() {
	rootCmd.AddCommand(screenerCmd)

	f := screenerCmd.Flags()
	f.StringVar(&screenerFlags.tickers, "tickers", "", "comma separated tickers")
	f.StringVar(&screenerFlags.direction, "direction", "", "all | up | down")
	f.StringVar(&screenerFlags.minConf, "min-conf", "", "minimum confidence")
	f.StringVar(&screenerFlags.from, "from", "", "start date (YYYY-MM-DD)")
	f.StringVar(&screenerFlags.to, "to", "", "end date (YYYY-MM-DD)")
}

func runScreener(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	req := screener.Request{
		Tickers:   splitFlag(screenerFlags.tickers),
		Direction: screenerFlags.direction,
		StartDate: screenerFlags.from,
		EndDate:   screenerFlags.to,
	}
	if screenerFlags.minConf != "" {
		mc, err := strconv.ParseFloat(screenerFlags.minConf, 64)
		if err != nil {
			return fmt.Errorf("invalid --min-conf: %w", err)
		}
		req.MinConfidence = &mc
	}

	criteria, err := req.Criteria()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.RunScreener(ctx, criteria)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(res)
	}

	PrintHeader("Screener")
	fmt.Printf("  Matches    : %d\n", res.Count)
	fmt.Printf("  Avg excess : %s\n", fmtFloatPtr(res.AvgExcess))
	fmt.Printf("  Std excess : %s\n\n", fmtFloatPtr(res.StdExcess))
	printSignals(res.Signals)
	return nil
}
