// Package timeutil computes the half-open UTC ranges used by reports.
package timeutil

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Range is the half-open interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// MonthRange returns the range covering the given calendar month.
func MonthRange(year int, month time.Month) (Range, error) {
	if month < time.January || month > time.December {
		return Range{}, fmt.Errorf("invalid month %d", month)
	}
	if year < 1 {
		return Range{}, fmt.Errorf("invalid year %d", year)
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Range{Start: start, End: start.AddDate(0, 1, 0)}, nil
}

// YearRange returns the range covering the given calendar year.
func YearRange(year int) (Range, error) {
	if year < 1 {
		return Range{}, fmt.Errorf("invalid year %d", year)
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return Range{Start: start, End: start.AddDate(1, 0, 0)}, nil
}

// CurrentMonth returns the month containing now.
func CurrentMonth(now time.Time) Range {
	now = now.UTC()
	r, _ := MonthRange(now.Year(), now.Month())
	return r
}

// PreviousMonth returns the month before the one containing now.
func PreviousMonth(now time.Time) Range {
	current := CurrentMonth(now)
	return Range{Start: current.Start.AddDate(0, -1, 0), End: current.Start}
}

// DayRange returns the range covering the inclusive calendar days from
// start through end.
func DayRange(start, end time.Time) (Range, error) {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	if !s.Before(e) {
		return Range{}, fmt.Errorf("start %s is after end %s", start.Format(DateLayout), end.Format(DateLayout))
	}
	return Range{Start: s, End: e}, nil
}

// ParseDayRange parses two YYYY-MM-DD dates into a DayRange.
func ParseDayRange(start, end string) (Range, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Range{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Range{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	return DayRange(s, e)
}
