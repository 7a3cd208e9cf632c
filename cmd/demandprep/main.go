package main

import (
	"os"

	"github.com/wonny/demandprep/cmd/demandprep/commands"
)

// main is the entry point for the demandprep CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/demandprep [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
