package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "storagemeter",
	Short: "Cloud storage billing simulator with plan-based fee metering",
	Long: `Storagemeter replays time-ordered storage operation streams and
computes monthly fees per storage unit.

Each unit is billed under a pricing plan: a storage rate applied to the
month's peak usage, an update rate applied to the month's update volume,
and an optional free cap that waives a fee when its metered volume stays
under the cap.

Quick start:
  storagemeter run < operations.txt    # Replay a stream from stdin
  storagemeter plans                   # Show the pricing catalog

Server mode:
  storagemeter serve                   # Start the HTTP API
  storagemeter validate                # Validate configuration`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "storagemeter.yaml", "config file path")
}
