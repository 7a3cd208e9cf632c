package s1_clean

import (
	"fmt"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
	"github.com/wonny/demandprep/internal/pipelineconfig"
	"github.com/wonny/demandprep/pkg/logger"
)

// Stats counts what the cleaning stage changed
type Stats struct {
	InvalidRows      int `json:"invalid_rows"`
	Duplicates       int `json:"duplicates"`
	InactiveProducts int `json:"inactive_products"`
	InsertedPeriods  int `json:"inserted_periods"`
	DistinctProducts int `json:"distinct_products"`
}

// Metadata converts the stats for contracts.PipelineResult
func (s Stats) Metadata() map[string]interface{} {
	return map[string]interface{}{
		"invalid_rows":      s.InvalidRows,
		"duplicates":        s.Duplicates,
		"inactive_products": s.InactiveProducts,
		"inserted_periods":  s.InsertedPeriods,
		"distinct_products": s.DistinctProducts,
	}
}

// Cleaner runs the S1 sequence for each input mode
// ⭐ SSOT: S1 정제 순서는 여기서만 정의
type Cleaner struct {
	cfg        pipelineconfig.Cleaning
	normalizer *Normalizer
	logger     *logger.Logger
}

// NewCleaner creates a cleaner
func NewCleaner(cfg pipelineconfig.Cleaning, log *logger.Logger) *Cleaner {
	return &Cleaner{
		cfg:        cfg,
		normalizer: NewNormalizer(cfg.Synonyms),
		logger:     log.WithStage(contracts.StageClean.String()),
	}
}

// Normalizer exposes the category/identity normalizer
func (c *Cleaner) Normalizer() *Normalizer {
	return c.normalizer
}

// Weekly: validate → normalise → dedupe → inactive removal → coercion → completion
func (c *Cleaner) Weekly(ds *dataset.Dataset) (*dataset.Dataset, Stats, error) {
	var stats Stats
	if err := ds.Require(string(contracts.ModeWeekly), WeeklyColumns...); err != nil {
		return nil, stats, err
	}

	ds, stats.InvalidRows = DropInvalidPeriods(ds)
	if stats.InvalidRows > 0 {
		c.logger.WithField("rows", stats.InvalidRows).Warn("Dropped rows without year/week")
	}

	ds, err := c.normalizer.Apply(ds)
	if err != nil {
		return nil, stats, fmt.Errorf("normalize identity: %w", err)
	}

	ds, stats.Duplicates = DedupeWeekly(ds)
	c.logger.Infof("Dropped %d duplicate rows", stats.Duplicates)

	if c.cfg.RemoveInactive {
		ds, stats.InactiveProducts = RemoveInactive(ds, c.cfg.InactiveCutoffWeeks)
		c.logger.Infof("Removed %d inactive products (no sales in the last %d weeks)",
			stats.InactiveProducts, c.cfg.InactiveCutoffWeeks)
	}

	ds = CoerceWeekly(ds)
	ds, stats.InsertedPeriods = CompleteWeekly(ds)
	stats.DistinctProducts = len(ds.ProductIDs())

	c.logger.WithFields(map[string]interface{}{
		"rows":     ds.Len(),
		"products": stats.DistinctProducts,
		"inserted": stats.InsertedPeriods,
	}).Info("Weekly data cleaned")

	return c.nonEmpty(ds, stats)
}

// Daily: validate → normalise → dedupe → coercion → (optional) completion
func (c *Cleaner) Daily(ds *dataset.Dataset) (*dataset.Dataset, Stats, error) {
	var stats Stats
	if err := ds.Require(string(contracts.ModeDaily), DailyColumns...); err != nil {
		return nil, stats, err
	}

	ds, stats.InvalidRows = DropInvalidDates(ds)
	if stats.InvalidRows > 0 {
		c.logger.WithField("rows", stats.InvalidRows).Warn("Dropped rows with an unparseable date")
	}

	ds, err := c.normalizer.Apply(ds)
	if err != nil {
		return nil, stats, fmt.Errorf("normalize identity: %w", err)
	}

	ds, stats.Duplicates = DedupeDaily(ds)
	c.logger.Infof("Dropped %d duplicate rows", stats.Duplicates)

	ds = CoerceDaily(ds)
	if c.cfg.CompleteDailyPeriods {
		ds, stats.InsertedPeriods = CompleteDaily(ds)
	}
	stats.DistinctProducts = len(ds.ProductIDs())

	c.logger.WithFields(map[string]interface{}{
		"rows":     ds.Len(),
		"products": stats.DistinctProducts,
	}).Info("Daily data cleaned")

	return c.nonEmpty(ds, stats)
}

// Prediction: validate → normalise only
func (c *Cleaner) Prediction(ds *dataset.Dataset) (*dataset.Dataset, Stats, error) {
	var stats Stats
	if err := ds.Require(string(contracts.ModePrediction), PredictionColumns...); err != nil {
		return nil, stats, err
	}

	ds, stats.InvalidRows = DropInvalidDates(ds)
	if stats.InvalidRows > 0 {
		c.logger.WithField("rows", stats.InvalidRows).Warn("Dropped rows with an unparseable date")
	}

	ds, err := c.normalizer.Apply(ds)
	if err != nil {
		return nil, stats, fmt.Errorf("normalize identity: %w", err)
	}
	stats.DistinctProducts = len(ds.ProductIDs())

	return c.nonEmpty(ds, stats)
}

func (c *Cleaner) nonEmpty(ds *dataset.Dataset, stats Stats) (*dataset.Dataset, Stats, error) {
	if ds.Len() == 0 {
		return nil, stats, fmt.Errorf("no rows left after cleaning: %w", contracts.ErrEmptyDataset)
	}
	return ds, stats, nil
}
