package s3_timeseries

import (
	"github.com/wonny/demandprep/internal/dataset"
)

// MergeResult describes one history merge decision
type MergeResult struct {
	Dataset     *dataset.Dataset
	Merged      bool
	HistoryRows int
	GapDays     int
	Reason      string
}

// Merge reasons
const (
	ReasonMerged      = "merged"
	ReasonNoHistory   = "no_history"
	ReasonGapTooLarge = "gap_too_large"
	ReasonNoDates     = "no_current_dates"
)

// Merge prepends history rows dated in [earliest-lookbackDays, earliest), where
// earliest is the first date of current. Rows already in current win on overlap.
// When the gap between the last kept history date and earliest exceeds
// gapThreshold days, current is returned unchanged.
func Merge(history, current *dataset.Dataset, lookbackDays, gapThreshold int) MergeResult {
	res := MergeResult{Dataset: current}

	earliest, _, ok := current.DateRange()
	if !ok {
		res.Reason = ReasonNoDates
		return res
	}
	if history == nil || history.Len() == 0 {
		res.Reason = ReasonNoHistory
		return res
	}

	start := earliest.AddDate(0, 0, -lookbackDays)
	window := history.Filter(func(r *dataset.Record) bool {
		return !r.Date.Before(start) && r.Date.Before(earliest)
	})
	if window.Len() == 0 {
		res.Reason = ReasonNoHistory
		return res
	}

	_, latest, _ := window.DateRange()
	res.GapDays = dataset.DaysBetween(latest, earliest)
	if res.GapDays > gapThreshold {
		res.Reason = ReasonGapTooLarge
		return res
	}

	out := &dataset.Dataset{Columns: append([]string(nil), current.Columns...)}
	for _, col := range history.Columns {
		if !dataset.IsSeriesColumn(col) {
			out.AddColumns(col)
		}
	}
	out.Records = make([]*dataset.Record, 0, window.Len()+current.Len())
	for _, r := range window.Records {
		c := r.Clone()
		c.Historical = true
		c.Series = nil // recomputed over the merged timeline
		out.Records = append(out.Records, c)
	}
	for _, r := range current.Records {
		out.Records = append(out.Records, r.Clone())
	}

	res.Dataset = out
	res.Merged = true
	res.HistoryRows = window.Len()
	res.Reason = ReasonMerged
	return res
}

// Trim drops the rows Merge prepended
func Trim(ds *dataset.Dataset) *dataset.Dataset {
	return ds.Filter(func(r *dataset.Record) bool { return !r.Historical })
}
