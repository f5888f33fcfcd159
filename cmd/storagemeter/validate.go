package main

import (
	"fmt"
	"os"

	"github.com/artpar/storagemeter/adapters/sqlite"
	"github.com/artpar/storagemeter/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the storagemeter configuration file.

Checks:
  - YAML syntax is valid
  - Plan pricing parses and is non-negative
  - Every unit references a known plan
  - Export database is writable (optional)

Examples:
  storagemeter validate
  storagemeter validate --config /etc/storagemeter/config.yaml`,
	RunE: runValidate,
}

var validateCheckExport bool

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckExport, "check-export", false, "check if the export database is writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Validating %s...\n\n", cfgFile)

	// Check file exists
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Printf("  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Printf("  %s Config file exists\n", checkMark)

	// Load and validate config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Printf("  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Printf("  %s Config syntax valid\n", checkMark)

	// Show config summary
	fmt.Printf("  %s Server: %s:%d\n", checkMark, cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("  %s Plans configured: %d\n", checkMark, len(cfg.Plans))
	fmt.Printf("  %s Units configured: %d\n", checkMark, len(cfg.Units))
	fmt.Printf("  %s Replay on error: %s\n", checkMark, cfg.Replay.OnError)
	fmt.Printf("  %s Export: %s\n", checkMark, cfg.Export.Driver)

	// Optional: check export database
	if validateCheckExport {
		if cfg.Export.Driver != "sqlite" {
			fmt.Printf("  %s Export database writable (driver is %s, nothing to check)\n", checkMark, cfg.Export.Driver)
		} else if err := checkExportWritable(cfg.Export.DSN); err != nil {
			fmt.Printf("  %s Export database writable\n", crossMark)
			fmt.Printf("      Error: %v\n", err)
		} else {
			fmt.Printf("  %s Export database writable\n", checkMark)
		}
	}

	fmt.Println()
	fmt.Println("Configuration is valid.")
	fmt.Println()
	fmt.Println("Hot-reloadable fields:", config.ReloadableFields())
	fmt.Println("Restart-required fields:", config.NonReloadableFields())
	return nil
}

func checkExportWritable(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate()
}
