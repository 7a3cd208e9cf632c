package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
	"github.com/wonny/demandprep/internal/history"
	"github.com/wonny/demandprep/internal/pipelineconfig"
	"github.com/wonny/demandprep/internal/s0_ingest"
	"github.com/wonny/demandprep/internal/s1_clean"
	"github.com/wonny/demandprep/internal/s2_features"
	"github.com/wonny/demandprep/internal/s3_timeseries"
)

// requiredColumns is the input contract of each mode
func requiredColumns(mode contracts.Mode) []string {
	switch mode {
	case contracts.ModeWeekly:
		return s1_clean.WeeklyColumns
	case contracts.ModeDaily:
		return s1_clean.DailyColumns
	default:
		return s1_clean.PredictionColumns
	}
}

// S0: schema check + quality profile
func (o *Orchestrator) ingest(_ context.Context, r *run, ds *dataset.Dataset) (*dataset.Dataset, map[string]interface{}, error) {
	cols := requiredColumns(r.req.Mode)
	if err := ds.Require(string(r.req.Mode), cols...); err != nil {
		return nil, nil, err
	}

	q := s0_ingest.Profile(ds, cols)
	if incomplete := q.Incomplete(1); len(incomplete) > 0 {
		r.logger.WithField("columns", incomplete).Warn("Input has blank cells in required columns")
	}
	return ds, q.Metadata(), nil
}

// S1: mode-specific cleaning
func (o *Orchestrator) clean(_ context.Context, r *run, ds *dataset.Dataset) (*dataset.Dataset, map[string]interface{}, error) {
	var (
		out   *dataset.Dataset
		stats s1_clean.Stats
		err   error
	)
	switch r.req.Mode {
	case contracts.ModeWeekly:
		out, stats, err = o.cleaner.Weekly(ds)
	case contracts.ModeDaily:
		out, stats, err = o.cleaner.Daily(ds)
	default:
		out, stats, err = o.cleaner.Prediction(ds)
	}
	return out, stats.Metadata(), err
}

// S2: durable categorical codes
func (o *Orchestrator) encode(ctx context.Context, r *run, ds *dataset.Dataset) (*dataset.Dataset, map[string]interface{}, error) {
	md := make(map[string]interface{})
	for _, feature := range o.cfg.Encoding.Features {
		out, res, err := o.encoder.Encode(ctx, ds, feature)
		if err != nil {
			return nil, md, err
		}
		ds = out
		md["new_codes_"+feature] = res.NewCodes
		o.metrics.AddNewCodes(feature, res.NewCodes)
	}
	return ds, md, nil
}

// S3: pivot, calendar, stock
func (o *Orchestrator) features(_ context.Context, r *run, ds *dataset.Dataset) (*dataset.Dataset, map[string]interface{}, error) {
	var err error
	md := map[string]interface{}{"stock_inference": false}

	if r.req.Mode == contracts.ModeWeekly {
		if ds, err = s2_features.PivotWeekly(ds); err != nil {
			return nil, md, err
		}
	}

	if ds, err = s2_features.AddCalendar(ds); err != nil {
		return nil, md, err
	}

	if r.req.Mode == contracts.ModeWeekly || (r.req.Mode == contracts.ModeDaily && o.cfg.Stock.ApplyDaily) {
		if ds, err = s2_features.InferStock(ds, o.cfg.Stock.LagRows); err != nil {
			return nil, md, err
		}
		md["stock_inference"] = true
	}
	return ds, md, nil
}

func (o *Orchestrator) mergeEnabled(mode contracts.Mode) bool {
	switch mode {
	case contracts.ModeWeekly:
		return o.cfg.History.MergeWeekly
	case contracts.ModeDaily:
		return o.cfg.History.MergeDaily
	default:
		return o.cfg.History.MergePrediction
	}
}

// S4: prepend recent history within the gap threshold
func (o *Orchestrator) merge(ctx context.Context, r *run, ds *dataset.Dataset) (*dataset.Dataset, map[string]interface{}, error) {
	if !o.mergeEnabled(r.req.Mode) {
		return ds, map[string]interface{}{"reason": "disabled"}, nil
	}

	earliest, _, ok := ds.DateRange()
	if !ok {
		return ds, map[string]interface{}{"reason": s3_timeseries.ReasonNoDates}, nil
	}

	lookback := o.cfg.History.LookbackDays
	hist, err := o.history.Load(ctx, earliest.AddDate(0, 0, -lookback), earliest)
	switch {
	case errors.Is(err, contracts.ErrNoHistory):
		r.logger.Info("No historical data found, skipping historical merge")
		hist = nil
	case err != nil:
		r.logger.WithError(err).Warn("Historical data unreadable, skipping historical merge")
		hist = nil
	}

	res := s3_timeseries.Merge(hist, ds, lookback, o.cfg.History.GapThresholdDays)
	o.metrics.ObserveMerge(res.Reason)

	log := r.logger.WithFields(map[string]interface{}{
		"gap_days":     res.GapDays,
		"history_rows": res.HistoryRows,
		"threshold":    o.cfg.History.GapThresholdDays,
	})
	switch res.Reason {
	case s3_timeseries.ReasonMerged:
		log.Info("Historical data merged")
	case s3_timeseries.ReasonGapTooLarge:
		log.Warn("Historical data merge aborted due to a significant gap")
	}

	r.merged = res.Merged
	return res.Dataset, map[string]interface{}{
		"reason":       res.Reason,
		"merged":       res.Merged,
		"gap_days":     res.GapDays,
		"history_rows": res.HistoryRows,
	}, nil
}

// S5: lag/rolling features, then drop prepended history
func (o *Orchestrator) timeSeries(ctx context.Context, r *run, ds *dataset.Dataset) (*dataset.Dataset, map[string]interface{}, error) {
	mode := SeriesModeFor(o.cfg, r.req.Mode)
	fill, err := s3_timeseries.ParseFillPolicy(mode.Fill)
	if err != nil {
		return nil, nil, err
	}

	column := o.cfg.TimeSeries.Column
	out, err := o.generator.Generate(ctx, ds, column, mode.Horizons, fill)
	if err != nil {
		return nil, nil, err
	}

	before := out.Len()
	if r.merged {
		out = s3_timeseries.Trim(out)
	}
	if r.req.Mode == contracts.ModePrediction {
		out = s3_timeseries.KeepUnknown(out, column)
	}

	return out, map[string]interface{}{
		"horizons":     mode.Horizons,
		"fill":         mode.Fill,
		"trimmed_rows": before - out.Len(),
	}, nil
}

// S6: history store (historical modes) and optional CSV output
func (o *Orchestrator) persist(ctx context.Context, r *run, ds *dataset.Dataset) (*dataset.Dataset, map[string]interface{}, error) {
	md := make(map[string]interface{})

	if r.req.Mode != contracts.ModePrediction && !r.req.SkipPersist {
		res, err := o.history.Save(ctx, ds, r.summary.RunID)
		if err != nil {
			return nil, md, fmt.Errorf("save processed data: %w", err)
		}
		r.summary.OutputPath = res.Location
		r.summary.BackupPath = res.Backup
		md["location"] = res.Location

		for _, m := range o.mirrors {
			mres, err := m.Save(ctx, ds, r.summary.RunID)
			if err != nil {
				r.logger.WithError(err).Warn("Mirror save failed")
				continue
			}
			if r.summary.BackupPath == "" {
				r.summary.BackupPath = mres.Backup
			}
			md["mirror_"+mres.Location] = mres.Rows
		}
		r.logger.WithFields(map[string]interface{}{
			"location": res.Location,
			"backup":   r.summary.BackupPath,
		}).Info("Processed data saved")
	}

	if r.req.OutputPath != "" {
		if err := history.WriteFile(r.req.OutputPath, ds); err != nil {
			return nil, md, err
		}
		if r.summary.OutputPath == "" {
			r.summary.OutputPath = r.req.OutputPath
		}
		md["output"] = r.req.OutputPath
	}

	return ds, md, nil
}

// SeriesModeFor returns the time-series parameters a mode runs with
func SeriesModeFor(cfg *pipelineconfig.Config, mode contracts.Mode) pipelineconfig.SeriesMode {
	if mode == contracts.ModePrediction {
		return cfg.TimeSeries.Prediction
	}
	return cfg.TimeSeries.Historical
}
