package config_test

import (
	"fmt"

	"github.com/wonny/aegis-t1/backend/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Environment: %s\n", cfg.Env)
	fmt.Printf("Batch size: %d, concurrency: %d\n", cfg.Fetch.BatchSize, cfg.Fetch.Concurrency)
}
