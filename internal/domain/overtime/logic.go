package overtime

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidTimeRange = errors.New("end time must be after start time")

const clockLayout = "15:04"

// ParseClock accepts HH:MM or HH:MM:SS wall-clock strings.
func ParseClock(value string) (time.Time, error) {
	if parsed, err := time.Parse(clockLayout, value); err == nil {
		return parsed, nil
	}
	parsed, err := time.Parse("15:04:05", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected HH:MM", value)
	}
	return parsed, nil
}

// ComputeTotalHours converts the worked interval to hours rounded to two
// decimals, the precision the ledger stores and payroll consumes.
func ComputeTotalHours(startTime, endTime string) (float64, error) {
	start, err := ParseClock(startTime)
	if err != nil {
		return 0, err
	}
	end, err := ParseClock(endTime)
	if err != nil {
		return 0, err
	}
	if !end.After(start) {
		return 0, ErrInvalidTimeRange
	}

	hours := decimal.NewFromFloat(end.Sub(start).Hours()).Round(2)
	out, _ := hours.Float64()
	return out, nil
}
