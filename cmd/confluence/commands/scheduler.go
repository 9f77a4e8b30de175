package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mreyes/confluence/internal/scheduler"
	"github.com/mreyes/confluence/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Start the job scheduler",
	Long: `Starts the recurring jobs:

  confluence_run     - nightly fusion pass (weekdays 22:00)
  actor_reconcile    - retire actors whose term ended (daily 03:00)
  blacklist_cleanup  - expire temporary blacklist entries (daily 03:30)

Example:
  go run ./cmd/confluence scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	app, err := buildStack()
	if err != nil {
		return err
	}
	defer app.close()

	sched := scheduler.New(app.log)

	jobList := []scheduler.Job{
		jobs.NewConfluenceRunJob(app.orchestrator, app.log),
		jobs.NewActorReconcileJob(app.trust, app.log),
		jobs.NewBlacklistCleanupJob(app.guard, app.log),
	}
	for _, job := range jobList {
		if err := sched.AddJob(job); err != nil {
			return fmt.Errorf("add job: %w", err)
		}
	}

	sched.Start()
	fmt.Printf("Scheduler running with %d jobs. Press Ctrl+C to stop\n", len(jobList))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
