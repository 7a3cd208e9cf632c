package dataset

import (
	"database/sql"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical date format on disk and on the wire
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
}

// ParseDate accepts the date formats seen in exported sales files
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses a numeric cell; ok is false for blank or non-numeric text
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseInt truncates toward zero; non-numeric is 0
func parseInt(s string) int {
	v, _ := ParseNumber(s)
	return int(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// IsSeriesColumn reports whether col is a generated lag/rolling column
func IsSeriesColumn(col string) bool {
	return strings.Contains(col, "_lag_") || strings.Contains(col, "_rolling_avg_")
}

func weekdayIndex(col string) int {
	for i, c := range WeekdayColumns {
		if c == col {
			return i
		}
	}
	return -1
}

// Set assigns a raw text cell to the record field behind col
func (r *Record) Set(col, raw string) {
	if i := weekdayIndex(col); i >= 0 {
		r.Daily[i] = parseInt(raw)
		return
	}

	switch col {
	case ColOriginalProductID:
		r.OriginalProductID = raw
	case ColProductID:
		r.ProductID = raw
	case ColProductName:
		r.ProductName = raw
	case ColCategory:
		r.Category = raw
	case ColQuantity:
		v, ok := ParseNumber(raw)
		r.Quantity, r.QuantityKnown = int(v), ok
	case ColValue:
		r.Value, _ = ParseNumber(raw)
	case ColPerItemValue:
		r.PerItemValue, _ = ParseNumber(raw)
	case ColInStock:
		if v, _ := ParseNumber(raw); v > 0 {
			r.InStock = 1
		} else {
			r.InStock = 0
		}
	case ColYear:
		r.Year = parseInt(raw)
	case ColWeek:
		r.Week = parseInt(raw)
	case ColDate:
		r.Date, _ = ParseDate(raw)
	case ColWeekday:
		r.Weekday = parseInt(raw)
	case ColDayOfMonth:
		r.DayOfMonth = parseInt(raw)
	case ColMonth:
		r.Month = parseInt(raw)
	case ColWeekdaySin:
		r.WeekdaySin, _ = ParseNumber(raw)
	case ColWeekdayCos:
		r.WeekdayCos, _ = ParseNumber(raw)
	case ColMonthSin:
		r.MonthSin, _ = ParseNumber(raw)
	case ColMonthCos:
		r.MonthCos, _ = ParseNumber(raw)
	default:
		switch {
		case strings.HasSuffix(col, "_encoded"):
			r.SetCode(strings.TrimSuffix(col, "_encoded"), parseInt(raw))
		case IsSeriesColumn(col):
			v, ok := ParseNumber(raw)
			r.SetSeries(col, sql.NullFloat64{Float64: v, Valid: ok})
		default:
			if r.Extra == nil {
				r.Extra = make(map[string]string)
			}
			r.Extra[col] = raw
		}
	}
}

// Cell formats the record field behind col; missing values are ""
func (r *Record) Cell(col string) string {
	if i := weekdayIndex(col); i >= 0 {
		return strconv.Itoa(r.Daily[i])
	}

	switch col {
	case ColOriginalProductID:
		return r.OriginalProductID
	case ColProductID:
		return r.ProductID
	case ColProductName:
		return r.ProductName
	case ColCategory:
		return r.Category
	case ColQuantity:
		if !r.QuantityKnown {
			return ""
		}
		return strconv.Itoa(r.Quantity)
	case ColValue:
		return formatFloat(r.Value)
	case ColPerItemValue:
		return formatFloat(r.PerItemValue)
	case ColInStock:
		return strconv.Itoa(r.InStock)
	case ColYear:
		return strconv.Itoa(r.Year)
	case ColWeek:
		return strconv.Itoa(r.Week)
	case ColDate:
		if r.Date.IsZero() {
			return ""
		}
		return r.Date.Format(DateLayout)
	case ColWeekday:
		return strconv.Itoa(r.Weekday)
	case ColDayOfMonth:
		return strconv.Itoa(r.DayOfMonth)
	case ColMonth:
		return strconv.Itoa(r.Month)
	case ColWeekdaySin:
		return formatFloat(r.WeekdaySin)
	case ColWeekdayCos:
		return formatFloat(r.WeekdayCos)
	case ColMonthSin:
		return formatFloat(r.MonthSin)
	case ColMonthCos:
		return formatFloat(r.MonthCos)
	}

	if strings.HasSuffix(col, "_encoded") {
		if code, ok := r.Codes[strings.TrimSuffix(col, "_encoded")]; ok {
			return strconv.Itoa(code)
		}
		return ""
	}
	if v, ok := r.Series[col]; ok {
		if !v.Valid {
			return ""
		}
		return formatFloat(v.Float64)
	}
	return r.Extra[col]
}

// Number returns the numeric value behind col; ok is false when missing or non-numeric
func (r *Record) Number(col string) (float64, bool) {
	if i := weekdayIndex(col); i >= 0 {
		return float64(r.Daily[i]), true
	}

	switch col {
	case ColQuantity:
		return float64(r.Quantity), r.QuantityKnown
	case ColValue:
		return r.Value, true
	case ColPerItemValue:
		return r.PerItemValue, true
	case ColInStock:
		return float64(r.InStock), true
	case ColYear:
		return float64(r.Year), true
	case ColWeek:
		return float64(r.Week), true
	case ColWeekday:
		return float64(r.Weekday), true
	case ColDayOfMonth:
		return float64(r.DayOfMonth), true
	case ColMonth:
		return float64(r.Month), true
	case ColWeekdaySin:
		return r.WeekdaySin, true
	case ColWeekdayCos:
		return r.WeekdayCos, true
	case ColMonthSin:
		return r.MonthSin, true
	case ColMonthCos:
		return r.MonthCos, true
	}

	if strings.HasSuffix(col, "_encoded") {
		code, ok := r.Codes[strings.TrimSuffix(col, "_encoded")]
		return float64(code), ok
	}
	if v, ok := r.Series[col]; ok {
		return v.Float64, v.Valid
	}
	if raw, ok := r.Extra[col]; ok {
		return ParseNumber(raw)
	}
	return 0, false
}

// Text returns the categorical text behind col (used by the encoder)
func (r *Record) Text(col string) string {
	return r.Cell(col)
}
