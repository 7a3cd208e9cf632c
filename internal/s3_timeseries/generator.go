package s3_timeseries

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
	"github.com/wonny/demandprep/pkg/logger"
)

// FillPolicy decides what a lag/rolling cell holds when there is no data
type FillPolicy string

const (
	FillZero    FillPolicy = "zero"
	FillMissing FillPolicy = "missing"
)

// ParseFillPolicy validates a configured fill policy
func ParseFillPolicy(s string) (FillPolicy, error) {
	switch p := FillPolicy(s); p {
	case FillZero, FillMissing:
		return p, nil
	}
	return "", &contracts.ValidationError{Field: "fill", Message: fmt.Sprintf("unknown fill policy %q", s)}
}

const seriesPlaces = 4

// LagColumn returns "{column}_lag_{h}"
func LagColumn(column string, h int) string {
	return column + "_lag_" + strconv.Itoa(h)
}

// RollingColumn returns "{column}_rolling_avg_{h}"
func RollingColumn(column string, h int) string {
	return column + "_rolling_avg_" + strconv.Itoa(h)
}

// Generator computes lag and trailing-mean features per product
// ⭐ SSOT: 시계열 피처 규칙은 여기서만
type Generator struct {
	workers int
	logger  *logger.Logger
}

// NewGenerator creates a generator; workers bounds per-product parallelism
func NewGenerator(workers int, log *logger.Logger) *Generator {
	if workers < 1 {
		workers = 1
	}
	return &Generator{
		workers: workers,
		logger:  log.WithStage(contracts.StageTimeSeries.String()),
	}
}

// Generate adds column_lag_h for every horizon and column_rolling_avg_h for h != 1.
// Rows are sorted by (product_id, date). The lag is the value h rows earlier in
// the same product; the rolling mean covers the current row and up to h-1 rows
// before it, averaging only known values.
func (g *Generator) Generate(ctx context.Context, ds *dataset.Dataset, column string, horizons []int, fill FillPolicy) (*dataset.Dataset, error) {
	if err := ds.Require(contracts.StageTimeSeries.String(), dataset.ColProductID, dataset.ColDate, column); err != nil {
		return nil, err
	}
	for _, h := range horizons {
		if h < 1 {
			return nil, &contracts.ValidationError{Field: "horizons", Message: fmt.Sprintf("horizon must be >= 1 (got %d)", h)}
		}
	}

	out := ds.Clone()
	out.SortByProductDate()

	groups := out.GroupByProduct()

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)
	for _, group := range groups {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			computeGroup(group, column, horizons, fill)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("time series features: %w", err)
	}

	for _, h := range horizons {
		out.AddColumns(LagColumn(column, h))
		if h != 1 {
			out.AddColumns(RollingColumn(column, h))
		}
	}

	g.logger.WithFields(map[string]interface{}{
		"column":   column,
		"horizons": horizons,
		"products": len(groups),
		"rows":     out.Len(),
		"fill":     string(fill),
	}).Info("Time series features created")

	return out, nil
}

// computeGroup writes series values for one product; records belong to this group only
func computeGroup(group []*dataset.Record, column string, horizons []int, fill FillPolicy) {
	values := make([]float64, len(group))
	known := make([]bool, len(group))
	masked := make([]float64, len(group))
	ones := make([]float64, len(group))
	for i, r := range group {
		values[i], known[i] = r.Number(column)
		if known[i] {
			masked[i], ones[i] = values[i], 1
		}
	}

	// sum[i] and cnt[i] cover rows [0, i) of known values
	sum := make([]float64, len(group)+1)
	cnt := make([]float64, len(group)+1)
	floats.CumSum(sum[1:], masked)
	floats.CumSum(cnt[1:], ones)

	for _, h := range horizons {
		lagCol := LagColumn(column, h)
		rollCol := RollingColumn(column, h)

		for i, r := range group {
			lag := sql.NullFloat64{}
			if i >= h && known[i-h] {
				lag = sql.NullFloat64{Float64: dataset.Round(values[i-h], seriesPlaces), Valid: true}
			}
			r.SetSeries(lagCol, fill.apply(lag))

			if h == 1 {
				continue
			}
			from := i + 1 - h
			if from < 0 {
				from = 0
			}
			avg := sql.NullFloat64{}
			if n := cnt[i+1] - cnt[from]; n > 0 {
				mean := (sum[i+1] - sum[from]) / n
				avg = sql.NullFloat64{Float64: dataset.Round(mean, seriesPlaces), Valid: true}
			}
			r.SetSeries(rollCol, fill.apply(avg))
		}
	}
}

func (p FillPolicy) apply(v sql.NullFloat64) sql.NullFloat64 {
	if !v.Valid && p == FillZero {
		return sql.NullFloat64{Valid: true}
	}
	return v
}

// KeepUnknown keeps only rows whose column value is missing and drops column
// from the schema (prediction output)
func KeepUnknown(ds *dataset.Dataset, column string) *dataset.Dataset {
	out := ds.Filter(func(r *dataset.Record) bool {
		_, ok := r.Number(column)
		return !ok
	})
	out.DropColumns(column)
	return out
}
