package jobs

import (
	"context"
	"time"

	"github.com/mreyes/confluence/internal/contracts"
	"github.com/mreyes/confluence/pkg/logger"
)

// BlacklistCleanupJob removes expired temporary blacklist entries so
// transient offenders get retried.
type BlacklistCleanupJob struct {
	guard  contracts.Guard
	logger *logger.Logger
}

// NewBlacklistCleanupJob creates a new cleanup job.
func NewBlacklistCleanupJob(guard contracts.Guard, log *logger.Logger) *BlacklistCleanupJob {
	return &BlacklistCleanupJob{
		guard:  guard,
		logger: log,
	}
}

// Name returns the job name.
func (j *BlacklistCleanupJob) Name() string {
	return "blacklist_cleanup"
}

// Schedule returns the cron schedule (daily at 3:30 AM).
func (j *BlacklistCleanupJob) Schedule() string {
	return "0 30 3 * * *"
}

// Run executes the cleanup.
func (j *BlacklistCleanupJob) Run(ctx context.Context) error {
	removed, err := j.guard.CleanupExpired(ctx, time.Now())
	if err != nil {
		return err
	}

	if removed > 0 {
		j.logger.WithField("removed", removed).Info("Expired blacklist entries removed")
	}
	return nil
}
