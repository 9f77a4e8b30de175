package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/internal/pipeline"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one confluence pass",
	Long: `Collects insider clusters and actor disclosures, enriches them
with short-interest data and fuses everything into tiered signals.

Example:
  go run ./cmd/confluence run
  go run ./cmd/confluence run --dry-run --lookback 14`,
	RunE: runOnce,
}

var (
	runDryRun   bool
	runLookback int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "skip persistence and broadcast")
	runCmd.Flags().IntVar(&runLookback, "lookback", 30, "disclosure window in days")
}

func runOnce(cmd *cobra.Command, args []string) error {
	app, err := buildStack()
	if err != nil {
		return err
	}
	defer app.close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	result, err := app.orchestrator.Run(ctx, pipeline.RunConfig{
		LookbackDays: runLookback,
		DryRun:       runDryRun,
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	printRunSummary(result)
	return nil
}

func printRunSummary(result *pipeline.RunResult) {
	r := result.Result

	fmt.Printf("\n=== Confluence Run %s ===\n", r.GeneratedAt.Format("2006-01-02 15:04"))
	if r.Degraded {
		fmt.Printf("DEGRADED: %s\n", r.DegradedReason)
	}
	fmt.Printf("Clusters analyzed: %d | Trades recorded: %d | Dropped tickers: %d | Took %s\n\n",
		r.ClustersAnalyzed, result.TradesRecorded, result.TickersDropped, result.Duration.Round(time.Millisecond))

	for tier := contracts.Tier0; tier <= contracts.Tier4; tier++ {
		signals := r.Bucket(tier)
		if len(signals) == 0 {
			continue
		}
		fmt.Printf("%s (%d)\n", strings.ToUpper(tier.String()), len(signals))
		for _, signal := range signals {
			fmt.Printf("  %-6s score=%5.2f sources=%d%s\n",
				signal.Ticker, signal.CombinedScore, signal.SignalCount, signalNotes(signal))
		}
	}
}

func signalNotes(signal *contracts.Signal) string {
	var notes []string
	if signal.Actor != nil && signal.Actor.Bipartisan {
		notes = append(notes, "bipartisan")
	}
	if signal.Squeeze != nil && signal.Squeeze.HighPotential {
		notes = append(notes, fmt.Sprintf("squeeze=%.0f", signal.Squeeze.Score))
	}
	if signal.Squeeze != nil && signal.Squeeze.ConvictionNote != "" {
		notes = append(notes, signal.Squeeze.ConvictionNote)
	}
	if len(notes) == 0 {
		return ""
	}
	return " [" + strings.Join(notes, ", ") + "]"
}
