// Command app serves the rent valuation API and, when enabled, evaluates
// listings consumed from Kafka.
package main

import (
	"flag"
	"fmt"
	"os"

	"RentWise/internal/di"
	"RentWise/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "rentwise: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize (backend=%s artifacts=%s): %w", cfg.Backend.Type, cfg.Artifacts.Dir, err)
	}
	defer cleanup()

	return app.Run()
}
