package overtime

import (
	"errors"
	"testing"
)

func TestComputeTotalHours(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		want    float64
		wantErr error
	}{
		{name: "whole hours", start: "18:00", end: "21:00", want: 3},
		{name: "half hour", start: "18:00", end: "19:30", want: 1.5},
		{name: "rounds to two decimals", start: "18:00", end: "18:10", want: 0.17},
		{name: "seconds accepted", start: "18:00:00", end: "20:00:00", want: 2},
		{name: "end equals start", start: "18:00", end: "18:00", wantErr: ErrInvalidTimeRange},
		{name: "end before start", start: "20:00", end: "18:00", wantErr: ErrInvalidTimeRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotalHours(tt.start, tt.end)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v hours, got %v", tt.want, got)
			}
		})
	}
}

func TestParseClockInvalid(t *testing.T) {
	for _, bad := range []string{"", "25:00", "18h00", "6pm"} {
		if _, err := ParseClock(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
