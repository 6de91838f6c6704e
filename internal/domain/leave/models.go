package leave

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	TypeSick     = "sick"
	TypePersonal = "personal"
	TypeVacation = "vacation"
	TypeOther    = "other"
	TypeEarly    = "early"
	TypeHalfDay  = "half_day"
)

// AnnualAllotmentDays is the fixed yearly leave allowance used by the
// remaining-days calculation.
const AnnualAllotmentDays = 30

var Types = []string{TypeSick, TypePersonal, TypeVacation, TypeOther, TypeEarly, TypeHalfDay}

func ValidType(leaveType string) bool {
	for _, candidate := range Types {
		if leaveType == candidate {
			return true
		}
	}
	return false
}

type Request struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	LeaveType  string     `json:"leaveType"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    time.Time  `json:"endDate"`
	TotalDays  int        `json:"totalDays"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	ApprovedBy string     `json:"approvedBy,omitempty"`
	ApprovedAt *time.Time `json:"approvedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`

	// Listing annotations resolved via the employees join.
	EmployeeName  string `json:"employeeName,omitempty"`
	Position      string `json:"position,omitempty"`
	Department    string `json:"department,omitempty"`
	EmployeeEmail string `json:"employeeEmail,omitempty"`
	ApproverName  string `json:"approverName,omitempty"`
}

type Summary struct {
	Year                 int               `json:"year"`
	TotalLeaveDays       int               `json:"totalLeaveDays"`
	SickLeaveDays        int               `json:"sickLeaveDays"`
	PersonalLeaveDays    int               `json:"personalLeaveDays"`
	PendingLeaveDays     int               `json:"pendingLeaveDays"`
	CurrentYearLeaveDays int               `json:"currentYearLeaveDays"`
	RemainingLeaveDays   int               `json:"remainingLeaveDays"`
	Attendance           AttendanceSummary `json:"attendanceSummary"`
}

// AttendanceSummary carries the year-to-date attendance figures alongside
// the leave counts. All values fall back to zero when attendance data is
// unavailable.
type AttendanceSummary struct {
	TotalWorkDays int     `json:"totalWorkDays"`
	DaysWorked    int     `json:"daysWorked"`
	LeaveDays     float64 `json:"leaveDays"`
}

// EmployeeSummary is one row of the admin leave report.
type EmployeeSummary struct {
	EmployeeID           string `json:"employeeId"`
	UserID               string `json:"userId"`
	EmployeeName         string `json:"employeeName"`
	Position             string `json:"position,omitempty"`
	Department           string `json:"department,omitempty"`
	Email                string `json:"email,omitempty"`
	TotalLeaveDays       int    `json:"totalLeaveDays"`
	SickLeaveDays        int    `json:"sickLeaveDays"`
	PersonalLeaveDays    int    `json:"personalLeaveDays"`
	PendingLeaveDays     int    `json:"pendingLeaveDays"`
	CurrentYearLeaveDays int    `json:"currentYearLeaveDays"`
	RemainingLeaveDays   int    `json:"remainingLeaveDays"`
}

type CompanyTotals struct {
	TotalEmployees    int `json:"totalEmployees"`
	TotalApprovedDays int `json:"totalApprovedDays"`
	TotalPendingDays  int `json:"totalPendingDays"`
	TotalRejectedDays int `json:"totalRejectedDays"`
}

// CompanyReport is the admin view of every employee's leave position.
type CompanyReport struct {
	Year    int               `json:"year"`
	Summary []EmployeeSummary `json:"summary"`
	Totals  CompanyTotals     `json:"totals"`
}
