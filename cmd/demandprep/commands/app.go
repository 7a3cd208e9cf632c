package commands

import (
	"context"
	"fmt"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/history"
	"github.com/wonny/demandprep/internal/mapping"
	"github.com/wonny/demandprep/internal/metrics"
	"github.com/wonny/demandprep/internal/pipeline"
	"github.com/wonny/demandprep/internal/pipelineconfig"
	"github.com/wonny/demandprep/pkg/config"
	"github.com/wonny/demandprep/pkg/database"
	"github.com/wonny/demandprep/pkg/logger"
	"github.com/wonny/demandprep/pkg/redis"
)

// app bundles everything a command needs to run the pipeline
type app struct {
	cfg      *config.Config
	pipeCfg  *pipelineconfig.Config
	log      *logger.Logger
	metrics  *metrics.Metrics
	mappings contracts.MappingStore
	orch     *pipeline.Orchestrator

	closers []func()
}

// newApp loads configuration and wires stores, locks and the orchestrator
// ⭐ SSOT: 저장소 backend 선택은 여기서만
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	pipeCfg, err := pipelineconfig.LoadOrDefault(cfg.PipelineConfig)
	if err != nil {
		return nil, fmt.Errorf("load pipeline config: %w", err)
	}

	a := &app{cfg: cfg, pipeCfg: pipeCfg, log: log}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	fileHistory := history.NewFileStore(cfg.Paths.ProcessedDir, cfg.Paths.BackupDir)
	deps := pipeline.Dependencies{
		Config:  pipeCfg,
		History: fileHistory,
		Metrics: a.metrics,
		Logger:  log,
	}

	if cfg.UsesPostgres() {
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}

		a.mappings = mapping.NewPostgresStore(db.Pool)
		deps.History = history.NewPostgresStore(db.Pool)
		// processed_data.csv stays the hand-off file for model training
		deps.Mirrors = []history.Store{fileHistory}
	} else {
		a.mappings = mapping.NewFileStore(cfg.Paths.MappingsDir)
	}
	deps.Mappings = a.mappings

	rdb, err := redis.New(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	if rdb.Enabled() {
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		deps.Locker = redis.NewLocker(rdb, "demandprep")
	} else {
		deps.Locker = mapping.NewLocalLocker()
	}

	a.orch, err = pipeline.New(deps)
	if err != nil {
		a.Close()
		return nil, err
	}

	log.WithFields(map[string]interface{}{
		"backend":     cfg.StoreBackend,
		"redis_lock":  rdb.Enabled(),
		"config_hash": a.orch.ConfigHash(),
	}).Debug("Pipeline wired")

	return a, nil
}

// Close releases connections in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
