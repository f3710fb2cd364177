package timedataset

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnknownFrequency = errors.New("unknown frequency")

// Frequency controls where in a calendar month a monthly timestamp is anchored
type Frequency string

const (
	// MonthStart anchors timestamps at 00:00 UTC on the first day of the month
	MonthStart Frequency = "month_start"

	// MonthEnd anchors timestamps at 00:00 UTC on the last day of the month
	MonthEnd Frequency = "month_end"
)

// ParseFrequency converts a configuration string into a Frequency. Accepts "MS" and "M" as
// shorthands for month start and month end respectively.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "month_start", "ms", "start":
		return MonthStart, nil
	case "month_end", "m", "end":
		return MonthEnd, nil
	}
	return "", fmt.Errorf("%q, %w", s, ErrUnknownFrequency)
}

// Align anchors the month containing t according to the frequency
func (f Frequency) Align(t time.Time) time.Time {
	if f == MonthEnd {
		return EndOfMonth(t)
	}
	return StartOfMonth(t)
}

// StartOfMonth returns 00:00 UTC on the first day of the month containing t
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// EndOfMonth returns 00:00 UTC on the last day of the month containing t
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}

// AddMonths moves n calendar months from the month containing t and returns the start of
// that month
func AddMonths(t time.Time, n int) time.Time {
	return StartOfMonth(t).AddDate(0, n, 0)
}

// MonthsBetween returns the number of calendar months from the month of start to the month
// of end. Negative if end is in an earlier month.
func MonthsBetween(start, end time.Time) int {
	start, end = start.UTC(), end.UTC()
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}

// MonthGrid returns a contiguous sequence of monthly timestamps from the month of start
// through the month of end inclusive, anchored by the frequency.
func MonthGrid(start, end time.Time, freq Frequency) []time.Time {
	n := MonthsBetween(start, end) + 1
	if n <= 0 {
		return nil
	}
	grid := make([]time.Time, 0, n)
	for i := 0; i < n; i++ {
		grid = append(grid, freq.Align(AddMonths(start, i)))
	}
	return grid
}

// Horizon returns the n monthly timestamps following the month containing last
func Horizon(last time.Time, n int, freq Frequency) []time.Time {
	if n <= 0 {
		return nil
	}
	horizon := make([]time.Time, 0, n)
	for i := 1; i <= n; i++ {
		horizon = append(horizon, freq.Align(AddMonths(last, i)))
	}
	return horizon
}
