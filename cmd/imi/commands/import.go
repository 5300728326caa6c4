package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/ingest"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "기사 URL을 시그널로 가져오기",
	Long: `기사를 가져와 제목/출처를 추출하고, 예측을 요청한 뒤 시그널로 저장합니다.

Example:
  go run ./cmd/imi import --url https://example.com/news/1 --ticker NVDA`,
	RunE: runImport,
}

var importFlags ingest.ImportRequest

func init() {
	rootCmd.AddCommand(importCmd)

	f := importCmd.Flags()
	f.StringVar(&importFlags.URL, "url", "", "article URL (http/https)")
	f.StringVar(&importFlags.Ticker, "ticker", "", "ticker")
	f.StringVar(&importFlags.Title, "title", "", "override title")
	f.StringVar(&importFlags.Content, "content", "", "override content")
	_ = importCmd.MarkFlagRequired("url")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.importer.Import(ctx, importFlags)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(res)
	}

	PrintHeader("Import · " + res.Signal.Ticker)
	if !res.Fetched {
		fmt.Println("  ⚠️  article fetch failed, used provided title/content")
	}
	if res.Forecast.Fallback {
		fmt.Println("  ⚠️  forecast service unavailable, neutral fallback stored")
	}
	printSignals([]contracts.Signal{res.Signal})
	return nil
}
