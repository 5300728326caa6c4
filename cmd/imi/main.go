package main

import (
	"os"

	"github.com/wonny/imi/cmd/imi/commands"
)

// main is the entry point for the IMI CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/imi [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
