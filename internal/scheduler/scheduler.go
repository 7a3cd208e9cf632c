package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/pkg/logger"
)

// Scheduler manages scheduled jobs
// ⭐ SSOT: 스케줄 관리는 이 스케줄러에서만
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	jobs    map[string]Job
	entries map[string]cron.EntryID
	history map[string]*JobHistory
	mu      sync.RWMutex

	// ctx is cancelled by Stop so retries and running jobs unwind
	ctx    context.Context
	cancel context.CancelFunc

	maxRetries int
	retryDelay time.Duration
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithRetry sets how often a failed job is retried and the pause between attempts
func WithRetry(maxRetries int, delay time.Duration) Option {
	return func(s *Scheduler) {
		s.maxRetries = maxRetries
		s.retryDelay = delay
	}
}

// New creates a new scheduler
func New(log *logger.Logger, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	zl := log.WithField("component", "cron").Zerolog()
	cronLog := cron.PrintfLogger(&zl)
	s := &Scheduler{
		// overlapping runs of the same job are skipped, not queued
		cron: cron.New(cron.WithSeconds(), cron.WithLogger(cronLog), cron.WithChain(
			cron.SkipIfStillRunning(cronLog),
		)),
		logger:     log,
		jobs:       make(map[string]Job),
		entries:    make(map[string]cron.EntryID),
		history:    make(map[string]*JobHistory),
		ctx:        ctx,
		cancel:     cancel,
		maxRetries: 3,
		retryDelay: 1 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobName := job.Name()

	if _, exists := s.jobs[jobName]; exists {
		return fmt.Errorf("job %s already exists", jobName)
	}

	id, err := s.cron.AddFunc(job.Schedule(), func() {
		s.runJob(job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", jobName, err)
	}

	s.jobs[jobName] = job
	s.entries[jobName] = id
	s.history[jobName] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      jobName,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// RemoveJob removes a job from the scheduler
func (s *Scheduler) RemoveJob(jobName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.entries[jobName]
	if !exists {
		return fmt.Errorf("job %s not found", jobName)
	}

	s.cron.Remove(id)
	delete(s.jobs, jobName)
	delete(s.entries, jobName)
	s.logger.WithField("job", jobName).Info("Job removed from scheduler")

	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.cron.Start()
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}

// RunJob runs a specific job immediately and waits for its result
func (s *Scheduler) RunJob(jobName string) (JobResult, error) {
	s.mu.RLock()
	job, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return JobResult{}, fmt.Errorf("job %s not found", jobName)
	}

	return s.runJob(job), nil
}

// runJob executes a job with retry logic
func (s *Scheduler) runJob(job Job) JobResult {
	jobName := job.Name()
	startTime := time.Now()

	s.logger.WithField("job", jobName).Info("Job started")

	var lastErr error
	attempts := 0

retry:
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.retryDelay):
			case <-s.ctx.Done():
				break retry
			}
		}

		attempts++
		lastErr = job.Run(s.ctx)
		if lastErr == nil || permanent(lastErr) || s.ctx.Err() != nil {
			break
		}

		s.logger.WithFields(map[string]interface{}{
			"job":     jobName,
			"attempt": attempt + 1,
			"error":   lastErr.Error(),
		}).Warn("Job execution failed, retrying")
	}

	endTime := time.Now()
	result := JobResult{
		JobName:   jobName,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  endTime.Sub(startTime),
		Attempts:  attempts,
		Success:   lastErr == nil,
	}
	if lastErr != nil {
		result.Error = lastErr.Error()
	}

	s.mu.Lock()
	if history, exists := s.history[jobName]; exists {
		history.AddResult(result)
	}
	s.mu.Unlock()

	if result.Success {
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": result.Duration,
		}).Info("Job completed successfully")
	} else {
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": result.Duration,
			"attempts": attempts,
			"error":    result.Error,
		}).Error("Job failed")
	}

	return result
}

// permanent errors come from the input itself; retrying cannot fix them
func permanent(err error) bool {
	var ve *contracts.ValidationError
	return contracts.IsSchemaError(err) ||
		errors.As(err, &ve) ||
		errors.Is(err, contracts.ErrEmptyDataset)
}

// GetJobHistory returns the history for a specific job
func (s *Scheduler) GetJobHistory(jobName string) (*JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.history[jobName]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobName)
	}

	return history, nil
}

// GetAllJobs returns all registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.jobs))
	for jobName := range s.jobs {
		jobs = append(jobs, jobName)
	}
	sort.Strings(jobs)

	return jobs
}

// GetJobStats returns statistics for all jobs
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats)

	for jobName, job := range s.jobs {
		history := s.history[jobName]
		st := JobStats{
			JobName:     jobName,
			Schedule:    job.Schedule(),
			TotalRuns:   len(history.Results),
			SuccessRate: history.SuccessRate(),
		}
		for i := range history.Results {
			res := &history.Results[i]
			if res.Success {
				st.SuccessCount++
				st.LastSuccess = &res.StartTime
			} else {
				st.FailureCount++
				st.LastFailure = &res.StartTime
			}
			st.LastRun = &res.StartTime
		}
		stats[jobName] = st
	}

	return stats
}

// JobStats represents statistics for a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
}
