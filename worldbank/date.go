package worldbank

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	reYear      = regexp.MustCompile(`^(\d{4})$`)
	reMonth     = regexp.MustCompile(`^(\d{4})M(\d{2})$`)
	reYearMonth = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	reQuarter   = regexp.MustCompile(`^(\d{4})Q([1-4])$`)
	reDay       = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// ParseDate converts a World Bank period string into the first day of its month at 00:00 UTC.
// Annual periods map to January and quarterly periods to the first month of the quarter.
// Weekly and malformed periods are rejected.
func ParseDate(s string) (time.Time, error) {
	var year, month int
	switch {
	case reYear.MatchString(s):
		m := reYear.FindStringSubmatch(s)
		year, month = atoi(m[1]), 1
	case reMonth.MatchString(s):
		m := reMonth.FindStringSubmatch(s)
		year, month = atoi(m[1]), atoi(m[2])
	case reYearMonth.MatchString(s):
		m := reYearMonth.FindStringSubmatch(s)
		year, month = atoi(m[1]), atoi(m[2])
	case reQuarter.MatchString(s):
		m := reQuarter.FindStringSubmatch(s)
		year, month = atoi(m[1]), (atoi(m[2])-1)*3+1
	case reDay.MatchString(s):
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q, %w", s, ErrDataFormat)
		}
		m := reDay.FindStringSubmatch(s)
		year, month = atoi(m[1]), atoi(m[2])
	default:
		return time.Time{}, fmt.Errorf("unsupported period %q, %w", s, ErrDataFormat)
	}

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month in %q, %w", s, ErrDataFormat)
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
