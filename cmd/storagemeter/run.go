package main

import (
	"fmt"
	"io"
	"os"

	"github.com/artpar/storagemeter/adapters/clock"
	"github.com/artpar/storagemeter/adapters/idgen"
	"github.com/artpar/storagemeter/adapters/memory"
	"github.com/artpar/storagemeter/adapters/sqlite"
	"github.com/artpar/storagemeter/app"
	"github.com/artpar/storagemeter/config"
	"github.com/artpar/storagemeter/ports"
	"github.com/spf13/cobra"
)

var (
	runInput         string
	runOnError       string
	runPreviousMonth bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay an operation stream and print fee reports",
	Long: `Replay a time-ordered operation stream against the configured
storage units. Mutating operations are acknowledged silently; every CALC
line prints one fee report to stdout.

Stream format (one operation per line, whitespace separated):
  <timestamp> UPLOAD <unit> <file> <size_mb>
  <timestamp> UPDATE <unit> <file> <size_mb>
  <timestamp> DELETE <unit> <file>
  <timestamp> CALC   <unit>

Examples:
  storagemeter run < operations.txt
  storagemeter run --input operations.txt --on-error skip
  storagemeter run --previous-month < operations.txt`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runInput, "input", "i", "", "operation stream file (default: stdin)")
	runCmd.Flags().StringVar(&runOnError, "on-error", "", "failed line policy: abort or skip (default: config)")
	runCmd.Flags().BoolVar(&runPreviousMonth, "previous-month", false, "CALC bills the month before its timestamp")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	if runPreviousMonth {
		cfg.Replay.PreviousMonthCalc = true
	}
	if runOnError != "" {
		if runOnError != "abort" && runOnError != "skip" {
			return fmt.Errorf("--on-error must be abort or skip, got %q", runOnError)
		}
		cfg.Replay.OnError = runOnError
	}

	eng, _, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	var in io.Reader = os.Stdin
	if runInput != "" {
		f, err := os.Open(runInput)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	opts := app.ReplayOptions{
		OnError: app.ErrorPolicy(cfg.Replay.OnError),
		RunID:   idgen.UUID{}.New(),
	}

	store, closeStore, err := openReportStore(cfg)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}
	if store != nil {
		opts.Reports = store
		opts.IDs = idgen.UUID{}
		opts.Clock = clock.Real{}
	}

	_, err = app.Replay(cmd.Context(), eng, in, os.Stdout, opts, logger)
	return err
}

// openReportStore builds the report export backend, if one is configured.
func openReportStore(cfg *config.Config) (ports.ReportStore, func(), error) {
	switch cfg.Export.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Export.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open export database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate export database: %w", err)
		}
		return sqlite.NewReportStore(db), func() { db.Close() }, nil
	case "memory":
		return memory.NewReportStore(), nil, nil
	default:
		return nil, nil, nil
	}
}
