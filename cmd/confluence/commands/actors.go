package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mreyes/confluence/internal/contracts"
)

// actorsCmd groups the actor registry subcommands
var actorsCmd = &cobra.Command{
	Use:   "actors",
	Short: "Manage the tracked-legislator registry",
}

var actorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked actors with current trust weights",
	RunE:  runActorsList,
}

var actorsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Track a new actor",
	Args:  cobra.ExactArgs(1),
	RunE:  runActorsAdd,
}

var actorsStatusCmd = &cobra.Command{
	Use:   "set-status <name> <active|retiring|retired>",
	Short: "Override an actor's lifecycle status",
	Args:  cobra.ExactArgs(2),
	RunE:  runActorsStatus,
}

var (
	actorParty      string
	actorChamber    string
	actorState      string
	actorBaseWeight float64
	actorTermEnded  string
)

func init() {
	rootCmd.AddCommand(actorsCmd)
	actorsCmd.AddCommand(actorsListCmd)
	actorsCmd.AddCommand(actorsAddCmd)
	actorsCmd.AddCommand(actorsStatusCmd)

	actorsAddCmd.Flags().StringVar(&actorParty, "party", "", "party code (D|R|I)")
	actorsAddCmd.Flags().StringVar(&actorChamber, "chamber", "", "House or Senate")
	actorsAddCmd.Flags().StringVar(&actorState, "state", "", "state code")
	actorsAddCmd.Flags().Float64Var(&actorBaseWeight, "weight", 1.0, "base trust weight")
	actorsStatusCmd.Flags().StringVar(&actorTermEnded, "term-ended", "", "term end date (YYYY-MM-DD)")
}

func runActorsList(cmd *cobra.Command, args []string) error {
	app, err := buildStack()
	if err != nil {
		return err
	}
	defer app.close()

	ctx := context.Background()
	actors, err := app.actorRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list actors: %w", err)
	}

	now := time.Now()
	fmt.Printf("%-24s %-5s %-8s %-10s %8s %8s %7s\n",
		"NAME", "PARTY", "CHAMBER", "STATUS", "BASE", "CURRENT", "TRADES")
	for _, actor := range actors {
		fmt.Printf("%-24s %-5s %-8s %-10s %8.2f %8.2f %7d\n",
			actor.Name, actor.Party, actor.Chamber, actor.Status,
			actor.BaseWeight, app.trust.Weight(ctx, actor.Name, now), actor.TotalTradesTracked)
	}
	fmt.Printf("\n%d actors tracked\n", len(actors))
	return nil
}

func runActorsAdd(cmd *cobra.Command, args []string) error {
	app, err := buildStack()
	if err != nil {
		return err
	}
	defer app.close()

	actor := &contracts.Actor{
		Name:       args[0],
		Party:      actorParty,
		Chamber:    actorChamber,
		State:      actorState,
		BaseWeight: actorBaseWeight,
		Status:     contracts.StatusActive,
	}
	if err := app.trust.AddActor(context.Background(), actor); err != nil {
		return fmt.Errorf("add actor: %w", err)
	}

	fmt.Printf("Tracking %s (base weight %.2f)\n", actor.Name, actor.BaseWeight)
	return nil
}

func runActorsStatus(cmd *cobra.Command, args []string) error {
	app, err := buildStack()
	if err != nil {
		return err
	}
	defer app.close()

	name := args[0]
	status := contracts.ActorStatus(args[1])
	switch status {
	case contracts.StatusActive, contracts.StatusRetiring, contracts.StatusRetired:
	default:
		return fmt.Errorf("unknown status %q", args[1])
	}

	var termEnded *time.Time
	if actorTermEnded != "" {
		t, err := time.Parse("2006-01-02", actorTermEnded)
		if err != nil {
			return fmt.Errorf("invalid --term-ended date: %w", err)
		}
		termEnded = &t
	}

	if err := app.trust.UpdateStatus(context.Background(), name, status, termEnded, nil); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	fmt.Printf("%s is now %s\n", name, status)
	return nil
}
