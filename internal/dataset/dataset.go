package dataset

import (
	"database/sql"
	"sort"
	"time"

	"github.com/wonny/demandprep/internal/contracts"
)

// Column names (SSOT)
// 모든 stage 와 CSV 코덱이 이 상수를 사용함
const (
	ColOriginalProductID = "original_product_id"
	ColProductID         = "product_id"
	ColProductName       = "product_name"
	ColCategory          = "category"
	ColQuantity          = "quantity"
	ColValue             = "value"
	ColPerItemValue      = "per_item_value"
	ColInStock           = "in_stock"
	ColYear              = "year"
	ColWeek              = "week"
	ColDate              = "date"
	ColWeekday           = "weekday"
	ColDayOfMonth        = "day_of_month"
	ColMonth             = "month"
	ColWeekdaySin        = "weekday_sin"
	ColWeekdayCos        = "weekday_cos"
	ColMonthSin          = "month_sin"
	ColMonthCos          = "month_cos"
)

// WeekdayColumns are the weekly sales columns, Monday first
var WeekdayColumns = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// EncodedColumn returns the output column of an encoded feature
func EncodedColumn(feature string) string {
	return feature + "_encoded"
}

// Record is one row: (product, year, week) before the pivot, (product, date) after
type Record struct {
	OriginalProductID string
	ProductID         string
	ProductName       string
	Category          string

	// Codes holds encoded categorical features keyed by feature name
	Codes map[string]int

	Year  int
	Week  int
	Daily [7]int // monday..sunday, weekly rows only
	Value float64

	Quantity      int
	QuantityKnown bool // false for rows to be predicted
	PerItemValue  float64
	InStock       int

	Date       time.Time
	Weekday    int // 0=Monday
	DayOfMonth int
	Month      int

	WeekdaySin float64
	WeekdayCos float64
	MonthSin   float64
	MonthCos   float64

	// Series holds generated lag/rolling columns; Valid=false is a missing value
	Series map[string]sql.NullFloat64

	// Historical marks rows prepended from processed history
	Historical bool

	// Extra carries unknown input columns through unchanged
	Extra map[string]string
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	c := *r
	if r.Codes != nil {
		c.Codes = make(map[string]int, len(r.Codes))
		for k, v := range r.Codes {
			c.Codes[k] = v
		}
	}
	if r.Series != nil {
		c.Series = make(map[string]sql.NullFloat64, len(r.Series))
		for k, v := range r.Series {
			c.Series[k] = v
		}
	}
	if r.Extra != nil {
		c.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			c.Extra[k] = v
		}
	}
	return &c
}

// SetCode stores an encoded feature value
func (r *Record) SetCode(feature string, code int) {
	if r.Codes == nil {
		r.Codes = make(map[string]int)
	}
	r.Codes[feature] = code
}

// SetSeries stores a generated time-series value
func (r *Record) SetSeries(col string, v sql.NullFloat64) {
	if r.Series == nil {
		r.Series = make(map[string]sql.NullFloat64)
	}
	r.Series[col] = v
}

// Dataset is an ordered set of records plus its ordered column schema
type Dataset struct {
	Columns []string
	Records []*Record
}

// New creates an empty dataset with the given columns
func New(columns ...string) *Dataset {
	ds := &Dataset{}
	ds.AddColumns(columns...)
	return ds
}

// Len returns the number of records
func (ds *Dataset) Len() int {
	return len(ds.Records)
}

// Clone deep-copies the dataset so stages never mutate their input
func (ds *Dataset) Clone() *Dataset {
	out := &Dataset{
		Columns: append([]string(nil), ds.Columns...),
		Records: make([]*Record, len(ds.Records)),
	}
	for i, r := range ds.Records {
		out.Records[i] = r.Clone()
	}
	return out
}

// Has reports whether col is part of the schema
func (ds *Dataset) Has(col string) bool {
	for _, c := range ds.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Require returns a *contracts.SchemaError naming every missing column
func (ds *Dataset) Require(stage string, cols ...string) error {
	var missing []string
	for _, c := range cols {
		if !ds.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &contracts.SchemaError{Stage: stage, Missing: missing}
	}
	return nil
}

// AddColumns appends columns not yet in the schema, preserving order
func (ds *Dataset) AddColumns(cols ...string) {
	for _, c := range cols {
		if !ds.Has(c) {
			ds.Columns = append(ds.Columns, c)
		}
	}
}

// RenameColumn renames a schema column in place
func (ds *Dataset) RenameColumn(from, to string) {
	if ds.Has(to) {
		ds.DropColumns(from)
		return
	}
	for i, c := range ds.Columns {
		if c == from {
			ds.Columns[i] = to
		}
	}
}

// DropColumns removes columns from the schema (helper columns only)
func (ds *Dataset) DropColumns(cols ...string) {
	drop := make(map[string]bool, len(cols))
	for _, c := range cols {
		drop[c] = true
	}
	kept := ds.Columns[:0]
	for _, c := range ds.Columns {
		if !drop[c] {
			kept = append(kept, c)
		}
	}
	ds.Columns = kept
}

// ProductIDs returns distinct product ids in first-appearance order
func (ds *Dataset) ProductIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, r := range ds.Records {
		if !seen[r.ProductID] {
			seen[r.ProductID] = true
			ids = append(ids, r.ProductID)
		}
	}
	return ids
}

// SortByProductDate orders records by (product_id, date), stable
func (ds *Dataset) SortByProductDate() {
	sort.SliceStable(ds.Records, func(i, j int) bool {
		a, b := ds.Records[i], ds.Records[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		return a.Date.Before(b.Date)
	})
}

// SortByProductPeriod orders records by (product_id, year, week), stable
func (ds *Dataset) SortByProductPeriod() {
	sort.SliceStable(ds.Records, func(i, j int) bool {
		a, b := ds.Records[i], ds.Records[j]
		if a.ProductID != b.ProductID {
			return a.ProductID < b.ProductID
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Week < b.Week
	})
}

// GroupByProduct splits sorted records into contiguous per-product groups
// Records must already be sorted by product id.
func (ds *Dataset) GroupByProduct() [][]*Record {
	var groups [][]*Record
	start := 0
	for i := 1; i <= len(ds.Records); i++ {
		if i == len(ds.Records) || ds.Records[i].ProductID != ds.Records[start].ProductID {
			groups = append(groups, ds.Records[start:i])
			start = i
		}
	}
	return groups
}

// DateRange returns the earliest and latest record dates
func (ds *Dataset) DateRange() (minDate, maxDate time.Time, ok bool) {
	for _, r := range ds.Records {
		if r.Date.IsZero() {
			continue
		}
		if !ok || r.Date.Before(minDate) {
			minDate = r.Date
		}
		if !ok || r.Date.After(maxDate) {
			maxDate = r.Date
		}
		ok = true
	}
	return minDate, maxDate, ok
}

// Filter returns a new dataset (sharing records) keeping those for which keep is true
func (ds *Dataset) Filter(keep func(*Record) bool) *Dataset {
	out := &Dataset{Columns: append([]string(nil), ds.Columns...)}
	for _, r := range ds.Records {
		if keep(r) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}
