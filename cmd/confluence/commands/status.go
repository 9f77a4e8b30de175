package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and the latest run",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	app, err := buildStack()
	if err != nil {
		return err
	}
	defer app.close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Println("=== Confluence Status ===")

	health, err := app.db.HealthCheck(ctx)
	if err != nil {
		fmt.Printf("Database:  UNHEALTHY (%v)\n", err)
	} else {
		fmt.Printf("Database:  healthy (%d/%d conns, %s)\n",
			health.Stats.AcquiredConns, health.Stats.MaxConns, health.ResponseTime)
	}

	if app.rdb.Enabled() {
		fmt.Println("Redis:     enabled")
	} else {
		fmt.Println("Redis:     disabled (local fallbacks active)")
	}

	result, err := app.signalRepo.LatestRun(ctx)
	if err != nil {
		return fmt.Errorf("load latest run: %w", err)
	}
	if result == nil {
		fmt.Println("Last run:  none recorded")
		return nil
	}

	fmt.Printf("Last run:  %s", result.GeneratedAt.Format("2006-01-02 15:04"))
	if result.Degraded {
		fmt.Printf(" (DEGRADED: %s)", result.DegradedReason)
	}
	fmt.Printf("\nSignals:   tier0=%d tier1=%d tier2=%d tier3=%d tier4=%d\n",
		len(result.Tier0), len(result.Tier1), len(result.Tier2), len(result.Tier3), len(result.Tier4))

	return nil
}
