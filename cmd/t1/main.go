package main

import (
	"os"

	"github.com/wonny/aegis-t1/backend/cmd/t1/commands"
)

// main is the entry point for the T+1 screening CLI
// ⭐ 统一 CLI 入口: go run ./cmd/t1 [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
