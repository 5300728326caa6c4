package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "사용자 캘리브레이션 통계",
	Long: `사용자의 예측(p50 추정)과 모델 p50을 실현 수익률과 비교합니다 (MAE).

Example:
  go run ./cmd/imi stats --user demo`,
	RunE: runStats,
}

var statsUser string

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsUser, "user", "", "user id (기본값: DEFAULT_USER_ID)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	user := statsUser
	if user == "" {
		user = a.cfg.DefaultUserID
	}

	stats, err := a.svc.UserStats(ctx, user)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(stats)
	}

	PrintHeader("Calibration · " + user)
	fmt.Printf("  Scored analyses : %d\n", stats.Count)
	fmt.Printf("  Model MAE       : %s\n", fmtFloatPtr(stats.ModelMAE))
	fmt.Printf("  User MAE        : %s\n", fmtFloatPtr(stats.UserMAE))
	return nil
}
