package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "demandcast",
	Short: "demandcast - demand forecast pipeline for auto parts",
	Long: `demandcast Unified CLI

Category-batched demand forecasting for the auto-parts catalog:
data collection, market-context analysis, per-SKU forecasts,
capacity checks, and alerting.

Usage:
  go run ./cmd/demandcast [command]

Examples:
  go run ./cmd/demandcast api
  go run ./cmd/demandcast run --codes PLUG-001,PAD-204
  go run ./cmd/demandcast scheduler start
  go run ./cmd/demandcast ingest`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
