package dataset

import "time"

// ISOWeekStart returns the Monday of ISO week (year, week) in UTC
func ISOWeekStart(year, week int) time.Time {
	// ISO week 1 is the week containing January 4th
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7 // Monday=0
	week1Monday := jan4.AddDate(0, 0, -offset)
	return week1Monday.AddDate(0, 0, (week-1)*7)
}

// ISOWeeksInYear returns 52 or 53; December 28th always falls in the last ISO week
func ISOWeeksInYear(year int) int {
	_, w := time.Date(year, time.December, 28, 0, 0, 0, 0, time.UTC).ISOWeek()
	return w
}

// WeekdayIndex returns 0 for Monday through 6 for Sunday
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// DaysBetween returns whole days from a to b
func DaysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
