package s1_clean

import (
	"time"

	"github.com/wonny/demandprep/internal/dataset"
)

// WeeklyColumns is the weekly input contract
var WeeklyColumns = append([]string{
	dataset.ColProductID, dataset.ColProductName, dataset.ColCategory,
}, append(dataset.WeekdayColumns[:], dataset.ColValue, dataset.ColInStock, dataset.ColYear, dataset.ColWeek)...)

// DailyColumns is the daily input contract
var DailyColumns = []string{
	dataset.ColProductID, dataset.ColProductName, dataset.ColCategory,
	dataset.ColQuantity, dataset.ColPerItemValue, dataset.ColInStock, dataset.ColDate,
}

// PredictionColumns is the prediction input contract
var PredictionColumns = []string{
	dataset.ColProductID, dataset.ColProductName, dataset.ColCategory,
	dataset.ColPerItemValue, dataset.ColInStock, dataset.ColDate,
}

// DropInvalidPeriods removes weekly rows without a usable (year, week).
// Week 53 is only kept in years that have one.
func DropInvalidPeriods(ds *dataset.Dataset) (*dataset.Dataset, int) {
	out := ds.Filter(func(r *dataset.Record) bool {
		return r.Year > 0 && r.Week >= 1 && r.Week <= dataset.ISOWeeksInYear(r.Year)
	})
	return out, ds.Len() - out.Len()
}

// DropInvalidDates removes daily rows whose date failed to parse
func DropInvalidDates(ds *dataset.Dataset) (*dataset.Dataset, int) {
	out := ds.Filter(func(r *dataset.Record) bool {
		return !r.Date.IsZero()
	})
	return out, ds.Len() - out.Len()
}

type weekKey struct {
	productID  string
	year, week int
}

type dayKey struct {
	productID string
	date      time.Time
}

// DedupeWeekly keeps the first row per (product_id, year, week)
func DedupeWeekly(ds *dataset.Dataset) (*dataset.Dataset, int) {
	seen := make(map[weekKey]bool, ds.Len())
	out := ds.Filter(func(r *dataset.Record) bool {
		k := weekKey{r.ProductID, r.Year, r.Week}
		if seen[k] {
			return false
		}
		seen[k] = true
		return true
	})
	return out, ds.Len() - out.Len()
}

// DedupeDaily keeps the first row per (product_id, date)
func DedupeDaily(ds *dataset.Dataset) (*dataset.Dataset, int) {
	seen := make(map[dayKey]bool, ds.Len())
	out := ds.Filter(func(r *dataset.Record) bool {
		k := dayKey{r.ProductID, r.Date}
		if seen[k] {
			return false
		}
		seen[k] = true
		return true
	})
	return out, ds.Len() - out.Len()
}

// RemoveInactive drops products with no row in the last cutoffWeeks weeks
// of the batch. Returns the number of products removed.
func RemoveInactive(ds *dataset.Dataset, cutoffWeeks int) (*dataset.Dataset, int) {
	if ds.Len() == 0 || cutoffWeeks <= 0 {
		return ds, 0
	}

	last := make(map[string]time.Time)
	var latest time.Time
	for _, r := range ds.Records {
		start := dataset.ISOWeekStart(r.Year, r.Week)
		if start.After(last[r.ProductID]) {
			last[r.ProductID] = start
		}
		if start.After(latest) {
			latest = start
		}
	}

	cutoff := latest.AddDate(0, 0, -7*cutoffWeeks)
	out := ds.Filter(func(r *dataset.Record) bool {
		return !last[r.ProductID].Before(cutoff)
	})

	removed := 0
	for _, t := range last {
		if t.Before(cutoff) {
			removed++
		}
	}
	return out, removed
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func binary(v int) int {
	if v > 0 {
		return 1
	}
	return 0
}

// CoerceWeekly makes weekday sales non-negative, sets quantity to their sum,
// makes value non-negative and binarises in_stock
func CoerceWeekly(ds *dataset.Dataset) *dataset.Dataset {
	out := ds.Clone()
	for _, r := range out.Records {
		total := 0
		for i := range r.Daily {
			r.Daily[i] = abs(r.Daily[i])
			total += r.Daily[i]
		}
		r.Quantity, r.QuantityKnown = total, true
		r.Value = absf(r.Value)
		r.InStock = binary(r.InStock)
	}
	out.AddColumns(dataset.ColQuantity)
	return out
}

// CoerceDaily makes quantity a non-negative integer (missing → 0),
// per_item_value non-negative, and forces in_stock=1 on days with sales
func CoerceDaily(ds *dataset.Dataset) *dataset.Dataset {
	out := ds.Clone()
	for _, r := range out.Records {
		if !r.QuantityKnown {
			r.Quantity = 0
		}
		r.Quantity, r.QuantityKnown = abs(r.Quantity), true
		r.PerItemValue = absf(r.PerItemValue)
		r.InStock = binary(r.InStock)
		if r.Quantity > 0 {
			r.InStock = 1
		}
	}
	return out
}
