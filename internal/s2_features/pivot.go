package s2_features

import (
	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
)

// PivotWeekly expands each weekly row into seven daily rows (weekday 0..6).
// per_item_value = round(value/quantity, 2) when quantity > 0, else 0, shared by the week.
// The weekday sales columns and value are consumed; every other column carries over.
func PivotWeekly(ds *dataset.Dataset) (*dataset.Dataset, error) {
	required := append([]string{dataset.ColYear, dataset.ColWeek, dataset.ColValue, dataset.ColQuantity}, dataset.WeekdayColumns[:]...)
	if err := ds.Require(contracts.StageFeatures.String(), required...); err != nil {
		return nil, err
	}

	out := &dataset.Dataset{Columns: append([]string(nil), ds.Columns...)}
	out.DropColumns(append([]string{dataset.ColValue}, dataset.WeekdayColumns[:]...)...)
	out.AddColumns(dataset.ColPerItemValue, dataset.ColWeekday)
	out.Records = make([]*dataset.Record, 0, ds.Len()*7)

	for _, week := range ds.Records {
		perItem := 0.0
		if week.Quantity > 0 {
			perItem = dataset.Ratio(week.Value, float64(week.Quantity), 2)
		}

		for day, qty := range week.Daily {
			r := week.Clone()
			r.Daily = [7]int{}
			r.Value = 0
			r.Quantity, r.QuantityKnown = qty, true
			r.PerItemValue = perItem
			r.Weekday = day
			out.Records = append(out.Records, r)
		}
	}

	return out, nil
}
