package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/imi/internal/contracts"
	"github.com/wonny/imi/internal/seed"
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "빈 저장소에 초기 시그널 적재",
	Long: `저장소가 비어 있을 때만 초기 시그널을 적재합니다.
이미 데이터가 있으면 아무것도 바꾸지 않습니다.

Example:
  go run ./cmd/imi seed
  go run ./cmd/imi seed --file ./signals.yaml`,
	RunE: runSeed,
}

var seedFile string

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML 시드 파일 (기본값: 내장 피드)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	var initial []contracts.Signal
	if seedFile != "" {
		initial, err = seed.LoadFile(seedFile)
	} else {
		initial, err = seed.Signals()
	}
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}

	out, err := a.svc.SeedSignals(ctx, initial)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(out)
	}
	PrintHeader(fmt.Sprintf("Seed (%s, checksum %s)", a.cfg.Store.Backend, seed.Checksum()))
	printSignals(out)
	fmt.Printf("\n✅ %d signals in store\n", len(out))
	return nil
}
