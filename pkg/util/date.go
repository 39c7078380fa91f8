package util

import "time"

// Day truncates t to midnight UTC. All daily series use this as the
// canonical key so observations from mixed timezones land on one bucket.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayOfWeek returns the weekday with Monday=0 .. Sunday=6.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// IsWeekend reports whether a Monday=0 day-of-week index falls on
// Saturday or Sunday.
func IsWeekend(dow int) bool {
	return dow == 5 || dow == 6
}

// HoursOpen derives service hours from the first and last recorded sale
// of a day, clamped to [1, 24]. Missing or inverted times default to 12.
func HoursOpen(first, last time.Time) float64 {
	if first.IsZero() || last.IsZero() || last.Before(first) {
		return 12.0
	}
	h := last.Sub(first).Hours()
	if h < 1 {
		return 1.0
	}
	if h > 24 {
		return 24.0
	}
	return h
}
