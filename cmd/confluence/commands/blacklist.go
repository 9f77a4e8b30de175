package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// blacklistCmd groups the ticker blacklist subcommands
var blacklistCmd = &cobra.Command{
	Use:   "blacklist",
	Short: "Inspect and manage the ticker blacklist",
}

var blacklistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List blacklisted tickers",
	RunE:  runBlacklistList,
}

var blacklistRemoveCmd = &cobra.Command{
	Use:   "remove <ticker>",
	Short: "Unblock a ticker",
	Args:  cobra.ExactArgs(1),
	RunE:  runBlacklistRemove,
}

func init() {
	rootCmd.AddCommand(blacklistCmd)
	blacklistCmd.AddCommand(blacklistListCmd)
	blacklistCmd.AddCommand(blacklistRemoveCmd)
}

func runBlacklistList(cmd *cobra.Command, args []string) error {
	app, err := buildStack()
	if err != nil {
		return err
	}
	defer app.close()

	entries, err := app.blacklistRepo.List(context.Background())
	if err != nil {
		return fmt.Errorf("list blacklist: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("Blacklist is empty")
		return nil
	}

	fmt.Printf("%-8s %-10s %6s  %-19s %s\n", "TICKER", "TYPE", "FAILS", "LAST FAILURE", "REASON")
	for _, entry := range entries {
		fmt.Printf("%-8s %-10s %6d  %-19s %s\n",
			entry.Ticker, entry.FailureType, entry.FailureCount,
			entry.LastFailure.Format("2006-01-02 15:04:05"), entry.Reason)
	}
	fmt.Printf("\n%d tickers blacklisted\n", len(entries))
	return nil
}

func runBlacklistRemove(cmd *cobra.Command, args []string) error {
	app, err := buildStack()
	if err != nil {
		return err
	}
	defer app.close()

	ticker := app.guard.Normalize(args[0])
	if err := app.guard.RecordSuccess(context.Background(), ticker); err != nil {
		return fmt.Errorf("unblock ticker: %w", err)
	}

	fmt.Printf("%s unblocked\n", ticker)
	return nil
}
