package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imi",
	Short: "IMI - Investor Market Intelligence backend",
	Long: `IMI Unified CLI

뉴스 기반 시그널 피드, 대시보드 집계, 스크리너/백테스트, 예측 서비스 프록시.

Usage:
  go run ./cmd/imi [command]

Examples:
  go run ./cmd/imi api
  go run ./cmd/imi seed
  go run ./cmd/imi dashboard --window 7d --sort impact
  go run ./cmd/imi screener --tickers NVDA,AMD --direction up
  go run ./cmd/imi scheduler list`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}
