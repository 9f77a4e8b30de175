package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "confluence",
	Short: "Confluence - multi-source trading signal fusion",
	Long: `Confluence Unified CLI

Fuses insider cluster buys, congressional trade disclosures,
institutional overlap and short-interest data into tiered
conviction signals.

Usage:
  go run ./cmd/confluence [command]

Examples:
  go run ./cmd/confluence api
  go run ./cmd/confluence run --dry-run
  go run ./cmd/confluence scheduler
  go run ./cmd/confluence actors list`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy yaml file (default is built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
