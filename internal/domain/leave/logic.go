package leave

import (
	"errors"
	"time"
)

// CalculateDays returns the inclusive day count between start and end.
// A single-day range counts as one day.
func CalculateDays(start, end time.Time) (int, error) {
	if end.Before(start) {
		return 0, errors.New("end date before start date")
	}
	return int(end.Sub(start).Hours()/24) + 1, nil
}

// RemainingDays applies the fixed annual allotment to the days already
// approved in the year; it never goes negative.
func RemainingDays(approvedDaysInYear int) int {
	remaining := AnnualAllotmentDays - approvedDaysInYear
	if remaining < 0 {
		return 0
	}
	return remaining
}
