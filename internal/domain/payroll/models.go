package payroll

import "time"

// Breakdown is the per-employee result of a monthly payroll run.
type Breakdown struct {
	BaseSalary      float64 `json:"baseSalary"`
	HourlyRate      float64 `json:"hourlyRate"`
	OvertimeHours   float64 `json:"overtimeHours"`
	OvertimePay     float64 `json:"overtimePay"`
	GrossSalary     float64 `json:"grossSalary"`
	SocialSecurity  float64 `json:"socialSecurity"`
	Tax             float64 `json:"tax"`
	TotalDeductions float64 `json:"totalDeductions"`
	NetSalary       float64 `json:"netSalary"`
}

// MonthlySummary is what an employee sees for a pay period.
type MonthlySummary struct {
	Month        int       `json:"month"`
	Year         int       `json:"year"`
	EmployeeID   string    `json:"employeeId"`
	EmployeeName string    `json:"employeeName"`
	Position     string    `json:"position,omitempty"`
	Department   string    `json:"department,omitempty"`
	WorkDays     int       `json:"workDays"`
	LeaveDays    float64   `json:"leaveDays"`
	Breakdown    Breakdown `json:"breakdown"`
	PaymentDate  time.Time `json:"paymentDate"`
}

const (
	TypeStart  = "START"
	TypeAdjust = "ADJUST"
)

// SalaryChange is one row of the salary history ledger.
type SalaryChange struct {
	ID             string    `json:"id"`
	EmployeeID     string    `json:"employeeId"`
	SalaryType     string    `json:"salaryType"`
	PreviousSalary float64   `json:"previousSalary"`
	NewSalary      float64   `json:"newSalary"`
	Reason         string    `json:"reason,omitempty"`
	EffectiveDate  time.Time `json:"effectiveDate"`
	ChangedBy      string    `json:"changedBy,omitempty"`
	ChangedByName  string    `json:"changedByName,omitempty"`
	EmployeeName   string    `json:"employeeName,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// EmployeeOverview is the HR view of one employee's pay trajectory:
// the first and latest ledger entries plus how often pay was adjusted.
type EmployeeOverview struct {
	EmployeeID         string     `json:"employeeId"`
	EmployeeName       string     `json:"employeeName"`
	Position           string     `json:"position,omitempty"`
	Department         string     `json:"department,omitempty"`
	CurrentSalary      float64    `json:"currentSalary"`
	StartingSalary     float64    `json:"startingSalary"`
	BaseSalary         float64    `json:"baseSalary"`
	AdjustmentCount    int        `json:"adjustmentCount"`
	LastAdjustmentDate *time.Time `json:"lastAdjustmentDate,omitempty"`
}

// OverviewFilter narrows the HR employee list.
type OverviewFilter struct {
	Search     string
	Department string
}

// OverviewRow is one employee's computed pay for the HR payroll screen.
type OverviewRow struct {
	EmployeeID   string    `json:"employeeId"`
	EmployeeName string    `json:"employeeName"`
	Position     string    `json:"position,omitempty"`
	Department   string    `json:"department,omitempty"`
	Breakdown    Breakdown `json:"breakdown"`
}

// CompanySummary aggregates current salaries across the company.
// Employees without a ledger entry count toward the headcount but not
// toward the salary statistics.
type CompanySummary struct {
	TotalEmployees       int     `json:"totalEmployees"`
	AverageSalary        float64 `json:"averageSalary"`
	MaxSalary            float64 `json:"maxSalary"`
	MinSalary            float64 `json:"minSalary"`
	AdjustmentsThisMonth int     `json:"adjustmentsThisMonth"`
}

// PaymentDate returns the payday for a month: the 25th, or the last day
// of the month when it is shorter than 25 days.
func PaymentDate(year int, month time.Month) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := 25
	if lastDay < day {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
