package s2_features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/demandprep/internal/contracts"
	"github.com/wonny/demandprep/internal/dataset"
)

func date(s string) dataset.Record {
	t, _ := dataset.ParseDate(s)
	return dataset.Record{Date: t}
}

func weeklyInput() *dataset.Dataset {
	cols := append([]string{
		dataset.ColProductID, dataset.ColOriginalProductID, dataset.ColProductName,
		dataset.ColCategory, "product_id_encoded", "category_encoded",
	}, dataset.WeekdayColumns[:]...)
	cols = append(cols, dataset.ColQuantity, dataset.ColValue, dataset.ColInStock, dataset.ColYear, dataset.ColWeek)
	ds := dataset.New(cols...)

	a := &dataset.Record{
		ProductID: "1234", OriginalProductID: "1234", ProductName: "Product A", Category: "cat_1",
		Daily: [7]int{10, 40, 60, 0, 10, 3, 90}, Quantity: 213, QuantityKnown: true,
		Value: 213.0, InStock: 1, Year: 2022, Week: 10,
	}
	a.SetCode("product_id", 0)
	a.SetCode("category", 0)

	b := &dataset.Record{
		ProductID: "1111", OriginalProductID: "1111", ProductName: "Product B", Category: "cat_2",
		Daily: [7]int{30, 50, 70, 50, 0, 9, 100}, Quantity: 309, QuantityKnown: true,
		Value: 618.0, InStock: 0, Year: 2021, Week: 22,
	}
	b.SetCode("product_id", 1)
	b.SetCode("category", 1)

	ds.Records = []*dataset.Record{a, b}
	return ds
}

func TestPivotWeekly(t *testing.T) {
	out, err := PivotWeekly(weeklyInput())
	require.NoError(t, err)
	require.Equal(t, 14, out.Len())

	var qty, weekdays, stock, years, weeks []int
	var perItem []float64
	for _, r := range out.Records {
		qty = append(qty, r.Quantity)
		perItem = append(perItem, r.PerItemValue)
		weekdays = append(weekdays, r.Weekday)
		stock = append(stock, r.InStock)
		years = append(years, r.Year)
		weeks = append(weeks, r.Week)
	}

	assert.Equal(t, []int{10, 40, 60, 0, 10, 3, 90, 30, 50, 70, 50, 0, 9, 100}, qty)
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1, 1, 2, 2, 2, 2, 2, 2, 2}, perItem)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 0, 1, 2, 3, 4, 5, 6}, weekdays)
	assert.Equal(t, []int{1, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0}, stock)
	assert.Equal(t, []int{2022, 2022, 2022, 2022, 2022, 2022, 2022, 2021, 2021, 2021, 2021, 2021, 2021, 2021}, years)
	assert.Equal(t, []int{10, 10, 10, 10, 10, 10, 10, 22, 22, 22, 22, 22, 22, 22}, weeks)

	// identity and encodings replicated
	for _, r := range out.Records[:7] {
		assert.Equal(t, "1234", r.ProductID)
		assert.Equal(t, "Product A", r.ProductName)
		assert.Equal(t, 0, r.Codes["category"])
	}

	assert.False(t, out.Has(dataset.ColValue))
	assert.False(t, out.Has("monday"))
	assert.True(t, out.Has(dataset.ColPerItemValue))
	assert.True(t, out.Has(dataset.ColWeekday))
	assert.True(t, out.Has("category_encoded"))
}

func TestPivotConservesWeeklyQuantity(t *testing.T) {
	in := weeklyInput()
	out, err := PivotWeekly(in)
	require.NoError(t, err)

	sums := map[string]int{}
	for _, r := range out.Records {
		sums[r.ProductID] += r.Quantity
	}
	assert.Equal(t, 213, sums["1234"])
	assert.Equal(t, 309, sums["1111"])
}

func TestPivotZeroQuantityWeek(t *testing.T) {
	in := weeklyInput()
	in.Records = in.Records[:1]
	in.Records[0].Daily = [7]int{}
	in.Records[0].Quantity = 0
	in.Records[0].Value = 50

	out, err := PivotWeekly(in)
	require.NoError(t, err)
	for _, r := range out.Records {
		assert.Equal(t, 0.0, r.PerItemValue)
	}
}

func TestPivotMissingColumns(t *testing.T) {
	_, err := PivotWeekly(dataset.New(dataset.ColProductID, dataset.ColYear))
	var se *contracts.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Missing, dataset.ColWeek)
	assert.Contains(t, se.Missing, "sunday")
}

func TestCyclic(t *testing.T) {
	tests := []struct {
		value, period int
		sin, cos      float64
	}{
		{0, 7, 0.0, 1.0},
		{3, 7, 0.43, -0.9},
		{6, 7, -0.78, 0.62},
		{0, 12, 0.0, 1.0},
		{6, 12, 0.0, -1.0},
		{11, 12, -0.5, 0.87},
	}

	for _, tt := range tests {
		sin, cos := Cyclic(tt.value, tt.period)
		assert.Equal(t, tt.sin, sin, "sin(%d/%d)", tt.value, tt.period)
		assert.Equal(t, tt.cos, cos, "cos(%d/%d)", tt.value, tt.period)
	}
}

func TestCyclicUnitCircle(t *testing.T) {
	for _, p := range []int{WeekdayPeriod, MonthPeriod} {
		for v := 0; v < p; v++ {
			sin, cos := Cyclic(v, p)
			angle := 2 * math.Pi * float64(v) / float64(p)
			assert.InDelta(t, math.Sin(angle), sin, 0.005)
			assert.InDelta(t, math.Cos(angle), cos, 0.005)
			// two-decimal rounding moves the point off the circle by at most ~0.0107
			assert.InDelta(t, 1.0, sin*sin+cos*cos, 0.011, "period %d value %d", p, v)
		}
	}
}

func TestAddCalendarFromISOWeek(t *testing.T) {
	tests := []struct {
		weekday, week, year int
		date                string
		dayOfMonth, month   int
		monthSin, monthCos  float64
		weekdaySin          float64
		weekdayCos          float64
	}{
		{0, 41, 2021, "2021-10-11", 11, 10, -0.87, 0.5, 0.0, 1.0},
		{1, 3, 2022, "2022-01-18", 18, 1, 0.5, 0.87, 0.78, 0.62},
		{2, 12, 2022, "2022-03-23", 23, 3, 1.0, 0.0, 0.97, -0.22},
		{3, 38, 2023, "2023-09-21", 21, 9, -1.0, 0.0, 0.43, -0.9},
		{4, 52, 2023, "2023-12-29", 29, 12, 0.0, 1.0, -0.43, -0.9},
		{5, 1, 2024, "2024-01-06", 6, 1, 0.5, 0.87, -0.97, -0.22},
		{6, 22, 2024, "2024-06-02", 2, 6, 0.0, -1.0, -0.78, 0.62},
	}

	ds := dataset.New(dataset.ColYear, dataset.ColWeek, dataset.ColWeekday)
	for _, tt := range tests {
		ds.Records = append(ds.Records, &dataset.Record{Year: tt.year, Week: tt.week, Weekday: tt.weekday})
	}

	out, err := AddCalendar(ds)
	require.NoError(t, err)

	for i, tt := range tests {
		r := out.Records[i]
		assert.Equal(t, tt.date, r.Date.Format(dataset.DateLayout))
		assert.Equal(t, tt.weekday, r.Weekday)
		assert.Equal(t, tt.dayOfMonth, r.DayOfMonth)
		assert.Equal(t, tt.month, r.Month)
		assert.InDelta(t, tt.monthSin, r.MonthSin, 0.01)
		assert.InDelta(t, tt.monthCos, r.MonthCos, 0.01)
		assert.InDelta(t, tt.weekdaySin, r.WeekdaySin, 0.01)
		assert.InDelta(t, tt.weekdayCos, r.WeekdayCos, 0.01)
	}
	for _, col := range []string{dataset.ColDate, dataset.ColMonth, dataset.ColMonthSin, dataset.ColWeekdayCos, dataset.ColDayOfMonth} {
		assert.True(t, out.Has(col), col)
	}
}

func TestAddCalendarFromDate(t *testing.T) {
	ds := dataset.New(dataset.ColDate)
	for _, s := range []string{"2022-01-03", "2022-01-08", "2022-05-17", "2021-12-13"} {
		r := date(s)
		ds.Records = append(ds.Records, &r)
	}

	out, err := AddCalendar(ds)
	require.NoError(t, err)

	var weekdays, weeks, years []int
	for _, r := range out.Records {
		weekdays = append(weekdays, r.Weekday)
		weeks = append(weeks, r.Week)
		years = append(years, r.Year)
	}
	assert.Equal(t, []int{0, 5, 1, 0}, weekdays)
	assert.Equal(t, []int{1, 1, 20, 50}, weeks)
	assert.Equal(t, []int{2022, 2022, 2022, 2021}, years)
	assert.True(t, out.Has(dataset.ColWeek))
	assert.True(t, out.Has(dataset.ColYear))
}

func TestAddCalendarMissingColumns(t *testing.T) {
	_, err := AddCalendar(dataset.New(dataset.ColYear))
	var se *contracts.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, []string{dataset.ColWeek, dataset.ColWeekday}, se.Missing)
}

func TestInferStock(t *testing.T) {
	ds := dataset.New(dataset.ColProductID, dataset.ColDate, dataset.ColQuantity, dataset.ColInStock)

	quantities := []int{0, 10, 10, 0, 10, 10, 0, 10, 10, 0, 10, 10, 0, 10, 10, 0, 10, 10, 0, 10, 10, 0, 10, 10, 0, 0, 0, 0}
	for i := 0; i < 28; i++ {
		pid, start := "1111", "2021-01-01"
		if i >= 14 {
			pid, start = "1234", "2022-01-01"
		}
		r := date(start)
		r.Date = r.Date.AddDate(0, 0, i%14)
		r.ProductID = pid
		r.Quantity, r.QuantityKnown = quantities[i], true
		if i >= 7 && i < 21 {
			r.InStock = 1
		}
		ds.Records = append(ds.Records, &r)
	}

	out, err := InferStock(ds, 7)
	require.NoError(t, err)

	var got []int
	for _, r := range out.Records {
		got = append(got, r.InStock)
	}
	assert.Equal(t, []int{0, 1, 1, 0, 1, 1, 0, 1, 1, 0, 1, 1, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, got)
}

func TestInferStockSortsAndLeavesInputAlone(t *testing.T) {
	ds := dataset.New(dataset.ColProductID, dataset.ColDate, dataset.ColQuantity, dataset.ColInStock)
	for _, s := range []string{"2024-01-02", "2024-01-01"} {
		r := date(s)
		r.ProductID = "a"
		r.QuantityKnown = true
		ds.Records = append(ds.Records, &r)
	}
	ds.Records[0].InStock = 1

	out, err := InferStock(ds, 1)
	require.NoError(t, err)

	assert.True(t, out.Records[0].Date.Before(out.Records[1].Date))
	assert.Equal(t, 0, out.Records[0].InStock)
	assert.Equal(t, 0, out.Records[1].InStock, "takes the previous day's value")
	assert.Equal(t, 1, ds.Records[0].InStock)
}

func TestInferStockUnknownQuantityNotForced(t *testing.T) {
	ds := dataset.New(dataset.ColProductID, dataset.ColDate, dataset.ColQuantity, dataset.ColInStock)
	r := date("2024-01-01")
	r.ProductID = "a"
	r.Quantity = 5
	ds.Records = append(ds.Records, &r)

	out, err := InferStock(ds, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Records[0].InStock, "unknown quantity does not imply stock")
}
