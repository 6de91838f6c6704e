package leave

import (
	"testing"
	"time"
)

func TestCalculateDays(t *testing.T) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	days, err := CalculateDays(start, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 1 {
		t.Fatalf("expected single-day range to count 1 day, got %d", days)
	}

	end := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	days, err = CalculateDays(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 3 {
		t.Fatalf("expected 3 days, got %d", days)
	}
}

func TestCalculateDaysInvalid(t *testing.T) {
	start := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC)

	if _, err := CalculateDays(start, end); err == nil {
		t.Fatal("expected error for inverted range")
	}
}

func TestRemainingDays(t *testing.T) {
	cases := []struct {
		approved int
		want     int
	}{
		{0, 30},
		{12, 18},
		{30, 0},
		{45, 0},
	}
	for _, tc := range cases {
		if got := RemainingDays(tc.approved); got != tc.want {
			t.Fatalf("RemainingDays(%d) = %d, want %d", tc.approved, got, tc.want)
		}
	}
}

func TestValidType(t *testing.T) {
	for _, leaveType := range Types {
		if !ValidType(leaveType) {
			t.Fatalf("expected %q to be valid", leaveType)
		}
	}
	if ValidType("sabbatical") {
		t.Fatal("unknown type must be invalid")
	}
}
