package main

import (
	"fmt"
	"os"
	"time"

	"github.com/artpar/storagemeter/app"
	"github.com/artpar/storagemeter/config"
	"github.com/artpar/storagemeter/domain/plan"
	"github.com/rs/zerolog"
)

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)

// loadConfig reads the config file, or falls back to the built-in
// catalog when no file exists at the default path.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		if cfgFile != rootCmd.PersistentFlags().Lookup("config").DefValue {
			return nil, fmt.Errorf("config file not found: %s", cfgFile)
		}
		return config.Default(), nil
	}
	return config.Load(cfgFile)
}

func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// buildEngine registers the configured units on a fresh engine.
func buildEngine(cfg *config.Config, logger zerolog.Logger) (*app.Engine, []plan.Plan, error) {
	catalog, err := cfg.PlanCatalog()
	if err != nil {
		return nil, nil, err
	}

	eng := app.NewEngine(logger)
	eng.UsePreviousMonthCalc(cfg.Replay.PreviousMonthCalc)

	for _, u := range cfg.Units {
		p, ok := plan.FindPlan(catalog, u.Plan)
		if !ok {
			return nil, nil, fmt.Errorf("unit %q references unknown plan %q", u.ID, u.Plan)
		}
		if err := eng.RegisterUnit(u.ID, p); err != nil {
			return nil, nil, fmt.Errorf("register unit %q: %w", u.ID, err)
		}
	}

	return eng, catalog, nil
}
