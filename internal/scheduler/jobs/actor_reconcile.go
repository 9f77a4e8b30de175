package jobs

import (
	"context"
	"time"

	"github.com/mreyes/confluence/internal/trustweight"
	"github.com/mreyes/confluence/pkg/logger"
)

// ActorReconcileJob flips retiring actors whose term has ended over to
// retired so their trust weight starts decaying.
type ActorReconcileJob struct {
	trust  *trustweight.Engine
	logger *logger.Logger
}

// NewActorReconcileJob creates a new reconciliation job.
func NewActorReconcileJob(trust *trustweight.Engine, log *logger.Logger) *ActorReconcileJob {
	return &ActorReconcileJob{
		trust:  trust,
		logger: log,
	}
}

// Name returns the job name.
func (j *ActorReconcileJob) Name() string {
	return "actor_reconcile"
}

// Schedule returns the cron schedule (daily at 3 AM).
func (j *ActorReconcileJob) Schedule() string {
	return "0 0 3 * * *"
}

// Run executes the status reconciliation.
func (j *ActorReconcileJob) Run(ctx context.Context) error {
	updated, err := j.trust.ReconcileStatuses(ctx, time.Now())
	if err != nil {
		return err
	}

	if updated > 0 {
		j.logger.WithField("updated", updated).Info("Actor statuses reconciled")
	}
	return nil
}
