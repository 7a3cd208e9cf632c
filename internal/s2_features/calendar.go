package s2_features

import (
	"math"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
)

// Cycle lengths
const (
	WeekdayPeriod = 7
	MonthPeriod   = 12
)

// Cyclic returns (sin(2πv/p), cos(2πv/p)) rounded to 2 decimals
func Cyclic(v, period int) (sin, cos float64) {
	angle := 2 * math.Pi * float64(v) / float64(period)
	return dataset.Round(math.Sin(angle), 2), dataset.Round(math.Cos(angle), 2)
}

// AddCalendar derives the calendar columns. With a date column, weekday/week/year
// come from the date when absent; without one, date is built from
// (ISO year, ISO week, weekday). day_of_month, month and the cyclic encodings
// always come from the date.
func AddCalendar(ds *dataset.Dataset) (*dataset.Dataset, error) {
	hasDate := ds.Has(dataset.ColDate)
	if !hasDate {
		if err := ds.Require(contracts.StageFeatures.String(), dataset.ColYear, dataset.ColWeek, dataset.ColWeekday); err != nil {
			return nil, err
		}
	}
	hasWeekday := ds.Has(dataset.ColWeekday)
	hasWeek := ds.Has(dataset.ColWeek)
	hasYear := ds.Has(dataset.ColYear)

	out := ds.Clone()
	for _, r := range out.Records {
		if hasDate {
			if !hasWeekday {
				r.Weekday = dataset.WeekdayIndex(r.Date)
			}
			if !hasWeek {
				_, r.Week = r.Date.ISOWeek()
			}
			if !hasYear {
				r.Year = r.Date.Year()
			}
		} else {
			r.Date = dataset.ISOWeekStart(r.Year, r.Week).AddDate(0, 0, r.Weekday)
		}

		r.DayOfMonth = r.Date.Day()
		r.Month = int(r.Date.Month())
		r.WeekdaySin, r.WeekdayCos = Cyclic(r.Weekday, WeekdayPeriod)
		r.MonthSin, r.MonthCos = Cyclic(r.Month, MonthPeriod)
	}

	out.AddColumns(
		dataset.ColWeek, dataset.ColWeekday, dataset.ColWeekdaySin, dataset.ColWeekdayCos,
		dataset.ColDate, dataset.ColDayOfMonth, dataset.ColMonth, dataset.ColMonthSin, dataset.ColMonthCos,
		dataset.ColYear,
	)
	return out, nil
}
