package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used on the wire and in seed files.
const DateLayout = "2006-01-02"

// Day truncates t to a calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, Validationf("invalid date %q", s)
	}
	return t, nil
}

// DateRange is an inclusive [Open, Close] window of calendar dates.
type DateRange struct {
	Open  time.Time `json:"open_date"`
	Close time.Time `json:"close_date"`
}

// Valid reports whether Open is not after Close.
func (r DateRange) Valid() bool {
	return !r.Open.After(r.Close)
}

// Overlaps reports whether r and o share at least one day.
func (r DateRange) Overlaps(o DateRange) bool {
	return !r.Open.After(o.Close) && !o.Open.After(r.Close)
}

// Contains reports whether day t falls inside r.
func (r DateRange) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(r.Open) && !d.After(r.Close)
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s]", r.Open.Format(DateLayout), r.Close.Format(DateLayout))
}
