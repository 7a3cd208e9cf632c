package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/pkg/logger"
)

type countingJob struct {
	name     string
	schedule string
	calls    atomic.Int32
	failures int32 // first n calls fail
	err      error
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	if n := j.calls.Add(1); n <= j.failures {
		return j.err
	}
	return ctx.Err()
}

func newTestScheduler(retries int) *Scheduler {
	return New(logger.Nop(), WithRetry(retries, time.Millisecond))
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler(0)

	require.NoError(t, s.AddJob(&countingJob{name: "b", schedule: "@daily"}))
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "0 0 3 * * *"}))

	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@daily"}), "duplicate")
	assert.Error(t, s.AddJob(&countingJob{name: "c", schedule: "not a schedule"}))
	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetAllJobs())
}

func TestRunJobRetriesTransientErrors(t *testing.T) {
	s := newTestScheduler(3)
	job := &countingJob{name: "flaky", schedule: "@daily", failures: 2, err: errors.New("connection reset")}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunJob("flaky")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Attempts)

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	assert.Len(t, history.Results, 1)
	assert.Equal(t, 1.0, history.SuccessRate())
}

func TestRunJobGivesUp(t *testing.T) {
	s := newTestScheduler(2)
	job := &countingJob{name: "down", schedule: "@daily", failures: 10, err: errors.New("db down")}
	require.NoError(t, s.AddJob(job))

	res, err := s.RunJob("down")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "db down", res.Error)

	stats := s.GetJobStats()["down"]
	assert.Equal(t, 1, stats.FailureCount)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJobDoesNotRetryBadInput(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"schema", fmt.Errorf("S1 failed: %w", &contracts.SchemaError{Stage: "S1_CLEAN", Missing: []string{"week"}})},
		{"validation", &contracts.ValidationError{Field: "mode", Message: "bad"}},
		{"empty", contracts.ErrEmptyDataset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestScheduler(3)
			job := &countingJob{name: tt.name, schedule: "@daily", failures: 10, err: tt.err}
			require.NoError(t, s.AddJob(job))

			res, err := s.RunJob(tt.name)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, 1, res.Attempts)
		})
	}
}

func TestRunUnknownJob(t *testing.T) {
	_, err := newTestScheduler(0).RunJob("missing")
	assert.Error(t, err)
}

func TestStopCancelsRetries(t *testing.T) {
	s := New(logger.Nop(), WithRetry(5, time.Hour))
	job := &countingJob{name: "slow", schedule: "@daily", failures: 10, err: errors.New("timeout")}
	require.NoError(t, s.AddJob(job))
	s.Start()

	done := make(chan JobResult, 1)
	go func() {
		res, _ := s.RunJob("slow")
		done <- res
	}()

	require.Eventually(t, func() bool { return job.calls.Load() >= 1 }, time.Second, time.Millisecond)
	s.Stop()

	select {
	case res := <-done:
		assert.False(t, res.Success)
		assert.Equal(t, 1, res.Attempts)
	case <-time.After(5 * time.Second):
		t.Fatal("job did not observe Stop")
	}
}

func TestJobHistoryKeepsLatest(t *testing.T) {
	var h JobHistory
	for i := 0; i < maxHistory+5; i++ {
		h.AddResult(JobResult{Attempts: i, Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	latest := h.Latest(2)
	assert.Equal(t, []int{maxHistory + 3, maxHistory + 4}, []int{latest[0].Attempts, latest[1].Attempts})
	assert.Len(t, h.Latest(1000), maxHistory)
	assert.InDelta(t, 0.5, h.SuccessRate(), 0.01)
}
