package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
	"github.com/wonny/demandprep/internal/history"
	"github.com/wonny/demandprep/internal/metrics"
	"github.com/wonny/demandprep/internal/pipelineconfig"
	"github.com/wonny/demandprep/internal/s1_clean"
	"github.com/wonny/demandprep/internal/s2_features"
	"github.com/wonny/demandprep/internal/s3_timeseries"
	"github.com/wonny/demandprep/pkg/logger"
)

// Dependencies are the collaborators an orchestrator is built from
type Dependencies struct {
	Config   *pipelineconfig.Config
	Mappings contracts.MappingStore
	Locker   contracts.Locker

	// History is read for merging and receives historical output
	History history.Store
	// Mirrors receive a copy of historical output; failures are logged only
	Mirrors []history.Store

	Metrics *metrics.Metrics // optional
	Logger  *logger.Logger
}

// Request is one pipeline invocation
type Request struct {
	Mode  contracts.Mode
	Input *dataset.Dataset

	// OutputPath additionally writes the final dataset as CSV (optional)
	OutputPath string
	// SkipPersist leaves the history store untouched (dry runs)
	SkipPersist bool
}

// Result is the output of a run
type Result struct {
	Summary contracts.RunSummary
	Dataset *dataset.Dataset
}

// Orchestrator sequences S0 → S6 for every mode
// ⭐ SSOT: 파이프라인 조율은 여기서만 (I/O 는 이 패키지만 수행)
type Orchestrator struct {
	cfg        *pipelineconfig.Config
	configHash string

	cleaner   *s1_clean.Cleaner
	encoder   *s2_features.Encoder
	generator *s3_timeseries.Generator

	history history.Store
	mirrors []history.Store
	metrics *metrics.Metrics
	logger  *logger.Logger

	// single writer: mappings and processed history are not safe for concurrent runs
	mu sync.Mutex
}

// New validates the configuration and wires the stage components
func New(deps Dependencies) (*Orchestrator, error) {
	if deps.Config == nil {
		deps.Config = pipelineconfig.Default()
	}
	if err := pipelineconfig.Validate(deps.Config); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}
	if deps.Mappings == nil || deps.Locker == nil || deps.History == nil {
		return nil, errors.New("pipeline: mapping store, locker and history store are required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.Nop()
	}

	hash, err := pipelineconfig.Hash(deps.Config)
	if err != nil {
		return nil, fmt.Errorf("hash pipeline config: %w", err)
	}

	return &Orchestrator{
		cfg:        deps.Config,
		configHash: hash,
		cleaner:    s1_clean.NewCleaner(deps.Config.Cleaning, deps.Logger),
		encoder:    s2_features.NewEncoder(deps.Mappings, deps.Locker, deps.Logger),
		generator:  s3_timeseries.NewGenerator(deps.Config.TimeSeries.Workers, deps.Logger),
		history:    deps.History,
		mirrors:    deps.Mirrors,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}, nil
}

// ConfigHash identifies the algorithm parameters of every run
func (o *Orchestrator) ConfigHash() string {
	return o.configHash
}

// run carries per-invocation state through the stages
type run struct {
	req     Request
	summary *contracts.RunSummary
	logger  *logger.Logger
	merged  bool
}

// Run executes the pipeline once. A concurrent call returns ErrRunInProgress.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	if !o.mu.TryLock() {
		return nil, contracts.ErrRunInProgress
	}
	defer o.mu.Unlock()

	return o.execute(ctx, req)
}

// RunWait is Run but waits for a concurrent run to finish first
func (o *Orchestrator) RunWait(ctx context.Context, req Request) (*Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.execute(ctx, req)
}

func (o *Orchestrator) execute(ctx context.Context, req Request) (*Result, error) {
	r := &run{
		req: req,
		summary: &contracts.RunSummary{
			RunID:      uuid.NewString(),
			Mode:       req.Mode,
			ConfigHash: o.configHash,
			StartedAt:  time.Now().Unix(),
		},
	}
	r.logger = o.logger.WithRun(r.summary.RunID)

	r.logger.WithFields(map[string]interface{}{
		"mode":        req.Mode,
		"config_hash": o.configHash,
	}).Info("Starting pipeline run")

	ds, err := o.stages(ctx, r)
	o.metrics.ObserveRun(string(req.Mode), err)
	if err != nil {
		r.logger.WithError(err).Error("Pipeline run failed")
		return &Result{Summary: *r.summary}, err
	}

	r.summary.Rows = ds.Len()
	r.summary.Products = len(ds.ProductIDs())
	r.summary.Merged = r.merged

	r.logger.WithFields(map[string]interface{}{
		"rows":     r.summary.Rows,
		"products": r.summary.Products,
		"merged":   r.merged,
	}).Info("Pipeline run completed")

	return &Result{Summary: *r.summary, Dataset: ds}, nil
}

func (o *Orchestrator) stages(ctx context.Context, r *run) (*dataset.Dataset, error) {
	if _, err := contracts.ParseMode(string(r.req.Mode)); err != nil {
		return nil, err
	}
	if r.req.Input == nil || r.req.Input.Len() == 0 {
		return nil, contracts.ErrEmptyDataset
	}

	ds := r.req.Input
	var err error

	steps := []struct {
		stage contracts.Stage
		fn    func(context.Context, *run, *dataset.Dataset) (*dataset.Dataset, map[string]interface{}, error)
	}{
		{contracts.StageIngest, o.ingest},
		{contracts.StageClean, o.clean},
		{contracts.StageEncode, o.encode},
		{contracts.StageFeatures, o.features},
		{contracts.StageMerge, o.merge},
		{contracts.StageTimeSeries, o.timeSeries},
		{contracts.StagePersist, o.persist},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ds, err = o.runStage(ctx, r, step.stage, ds, step.fn)
		if err != nil {
			return nil, fmt.Errorf("%s failed: %w", step.stage.ShortName(), err)
		}
	}
	return ds, nil
}

// runStage times fn and records a PipelineResult for it
func (o *Orchestrator) runStage(
	ctx context.Context,
	r *run,
	stage contracts.Stage,
	in *dataset.Dataset,
	fn func(context.Context, *run, *dataset.Dataset) (*dataset.Dataset, map[string]interface{}, error),
) (*dataset.Dataset, error) {
	start := time.Now()
	out, md, err := fn(ctx, r, in)
	elapsed := time.Since(start)

	res := contracts.PipelineResult{
		Stage:      stage,
		Success:    err == nil,
		InputCount: in.Len(),
		Duration:   elapsed.Milliseconds(),
		Metadata:   md,
	}
	if err != nil {
		res.Error = err.Error()
	} else {
		res.OutputCount = out.Len()
		o.metrics.ObserveStage(stage.String(), elapsed, out.Len())
	}
	r.summary.Results = append(r.summary.Results, res)

	r.logger.WithStage(stage.String()).WithFields(map[string]interface{}{
		"input":       res.InputCount,
		"output":      res.OutputCount,
		"duration_ms": res.Duration,
	}).Debug("Stage finished")

	return out, err
}
