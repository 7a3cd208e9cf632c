package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/pipeline"
	"github.com/wonny/demandprep/pkg/logger"
)

type recordingRunner struct {
	path string
	req  pipeline.Request
	err  error
}

func (r *recordingRunner) LoadPath(_ context.Context, path string, req pipeline.Request) (*pipeline.Result, error) {
	r.path, r.req = path, req
	if r.err != nil {
		return nil, r.err
	}
	return &pipeline.Result{Summary: contracts.RunSummary{RunID: "r1", Rows: 10}}, nil
}

func TestReprocessJob(t *testing.T) {
	runner := &recordingRunner{}
	job := NewReprocessJob(runner, "/data/raw", contracts.ModeWeekly, "0 0 3 * * *", logger.Nop())

	assert.Equal(t, "reprocess_weekly", job.Name())
	assert.Equal(t, "0 0 3 * * *", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, "/data/raw", runner.path)
	assert.Equal(t, contracts.ModeWeekly, runner.req.Mode)
	assert.False(t, runner.req.SkipPersist)
}

func TestReprocessJobWrapsErrors(t *testing.T) {
	runner := &recordingRunner{err: contracts.ErrRunInProgress}
	job := NewReprocessJob(runner, "/data/raw", contracts.ModeDaily, "@daily", logger.Nop())

	err := job.Run(context.Background())
	assert.True(t, errors.Is(err, contracts.ErrRunInProgress))
	assert.Contains(t, err.Error(), "/data/raw")
}
