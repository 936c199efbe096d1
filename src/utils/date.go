package utils

import "time"

// DayLayout is the canonical calendar-day format used in the database and on
// the wire.
const DayLayout = "2006-01-02"

// DayOf truncates t to a UTC calendar day (midnight, no time component).
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC calendar day.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayLayout, s)
}

// FormatDay renders a time as its YYYY-MM-DD calendar day.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
