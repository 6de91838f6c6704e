package payroll

import (
	"math"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeNoOvertime(t *testing.T) {
	got := Compute(30000, 0)

	if !almostEqual(got.SocialSecurity, 750) {
		t.Errorf("social security: expected 750 (capped), got %v", got.SocialSecurity)
	}
	if !almostEqual(got.Tax, 1462.5) {
		t.Errorf("tax: expected 1462.5, got %v", got.Tax)
	}
	if !almostEqual(got.OvertimePay, 0) {
		t.Errorf("overtime pay: expected 0, got %v", got.OvertimePay)
	}
	if !almostEqual(got.GrossSalary, 30000) {
		t.Errorf("gross: expected 30000, got %v", got.GrossSalary)
	}
	if !almostEqual(got.NetSalary, 27787.5) {
		t.Errorf("net: expected 27787.5, got %v", got.NetSalary)
	}
}

func TestComputeWithOvertime(t *testing.T) {
	got := Compute(10000, 10)

	wantHourly := 10000.0 / 176.0
	if !almostEqual(got.HourlyRate, wantHourly) {
		t.Errorf("hourly rate: expected %v, got %v", wantHourly, got.HourlyRate)
	}
	wantOT := 10 * 1.5 * wantHourly
	if !almostEqual(got.OvertimePay, wantOT) {
		t.Errorf("overtime pay: expected %v, got %v", wantOT, got.OvertimePay)
	}
	if !almostEqual(got.SocialSecurity, 500) {
		t.Errorf("social security: expected 500, got %v", got.SocialSecurity)
	}
	if !almostEqual(got.Tax, 475) {
		t.Errorf("tax: expected 475, got %v", got.Tax)
	}
	wantNet := 10000 + wantOT - 500 - 475
	if !almostEqual(got.NetSalary, wantNet) {
		t.Errorf("net: expected %v, got %v", wantNet, got.NetSalary)
	}
	if math.Abs(got.NetSalary-9877.27) > 0.01 {
		t.Errorf("net: expected about 9877.27, got %v", got.NetSalary)
	}
}

func TestComputeZeroBase(t *testing.T) {
	got := Compute(0, 5)
	if got.SocialSecurity != 0 || got.Tax != 0 || got.OvertimePay != 0 || got.NetSalary != 0 {
		t.Errorf("zero base should produce all-zero breakdown, got %+v", got)
	}
}

func TestClampToToday(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, time.September, d, 0, 0, 0, 0, time.UTC)
	}
	start, end := day(1), day(30)

	tests := []struct {
		name  string
		today time.Time
		want  time.Time
	}{
		{"mid month clamps", day(15), day(15)},
		{"first of month clamps", day(1), day(1)},
		{"last day keeps end", day(30), day(30)},
		{"past month keeps end", time.Date(2026, time.October, 5, 0, 0, 0, 0, time.UTC), day(30)},
		{"future month keeps end", time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC), day(30)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clampToToday(start, end, tt.today); !got.Equal(tt.want) {
				t.Errorf("clampToToday(today=%v) = %v, want %v", tt.today, got, tt.want)
			}
		})
	}
}

func TestPaymentDate(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		day   int
	}{
		{2026, time.January, 25},
		{2026, time.February, 25},
		{2026, time.April, 25},
	}
	for _, tt := range tests {
		got := PaymentDate(tt.year, tt.month)
		if got.Day() != tt.day || got.Month() != tt.month || got.Year() != tt.year {
			t.Errorf("PaymentDate(%d, %v) = %v", tt.year, tt.month, got)
		}
	}
}
