package jobs

import (
	"context"

	"github.com/mreyes/confluence/internal/pipeline"
	"github.com/mreyes/confluence/pkg/logger"
)

// ConfluenceRunJob executes the nightly full fusion pass after the
// day's disclosures have landed.
type ConfluenceRunJob struct {
	orchestrator *pipeline.Orchestrator
	logger       *logger.Logger
}

// NewConfluenceRunJob creates a new nightly run job.
func NewConfluenceRunJob(orch *pipeline.Orchestrator, log *logger.Logger) *ConfluenceRunJob {
	return &ConfluenceRunJob{
		orchestrator: orch,
		logger:       log,
	}
}

// Name returns the job name.
func (j *ConfluenceRunJob) Name() string {
	return "confluence_run"
}

// Schedule returns the cron schedule (10 PM ET weekdays, expressed in
// server-local time).
func (j *ConfluenceRunJob) Schedule() string {
	return "0 0 22 * * 1-5"
}

// Run executes one full pass.
func (j *ConfluenceRunJob) Run(ctx context.Context) error {
	result, err := j.orchestrator.Run(ctx, pipeline.RunConfig{})
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"trades_recorded": result.TradesRecorded,
		"degraded":        result.Result.Degraded,
		"signals":         len(result.Result.All()),
	}).Info("Nightly confluence run completed")
	return nil
}
