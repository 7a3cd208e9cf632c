package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/pipeline"
	"github.com/wonny/demandprep/pkg/logger"
)

// Runner is the orchestrator entry point the job uses
type Runner interface {
	LoadPath(ctx context.Context, path string, req pipeline.Request) (*pipeline.Result, error)
}

// ReprocessJob re-runs the historical pipeline over the raw data directory
type ReprocessJob struct {
	runner   Runner
	rawDir   string
	mode     contracts.Mode
	schedule string
	logger   *logger.Logger
}

// NewReprocessJob creates a new reprocess job
func NewReprocessJob(runner Runner, rawDir string, mode contracts.Mode, schedule string, log *logger.Logger) *ReprocessJob {
	return &ReprocessJob{
		runner:   runner,
		rawDir:   rawDir,
		mode:     mode,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ReprocessJob) Name() string {
	return "reprocess_" + string(j.mode)
}

// Schedule returns the cron schedule
func (j *ReprocessJob) Schedule() string {
	return j.schedule
}

// Run executes one pipeline run over the raw directory
func (j *ReprocessJob) Run(ctx context.Context) error {
	j.logger.WithFields(map[string]interface{}{
		"dir":  j.rawDir,
		"mode": j.mode,
	}).Debug("Starting scheduled reprocess")

	res, err := j.runner.LoadPath(ctx, j.rawDir, pipeline.Request{Mode: j.mode})
	if err != nil {
		return fmt.Errorf("reprocess %s: %w", j.rawDir, err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id": res.Summary.RunID,
		"rows":   res.Summary.Rows,
		"merged": res.Summary.Merged,
	}).Info("Scheduled reprocess completed")

	return nil
}
