package model

import "time"

const (
	DateLayout  = "2006-01-02"
	MonthLayout = "2006-01"
)

// Day returns the calendar day of t as seen in loc, as midnight UTC.
// Postgres DATE columns scan into the same representation.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses YYYY-MM-DD.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// MonthRange returns [first day of month, first day of next month) for YYYY-MM.
func MonthRange(month string) (time.Time, time.Time, error) {
	start, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, start.AddDate(0, 1, 0), nil
}
