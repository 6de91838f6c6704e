package overtime

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Request struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employeeId"`
	Date            time.Time  `json:"date"`
	StartTime       string     `json:"startTime"`
	EndTime         string     `json:"endTime"`
	TotalHours      float64    `json:"totalHours"`
	Reason          string     `json:"reason,omitempty"`
	EvidencePath    string     `json:"evidenceImagePath,omitempty"`
	Status          string     `json:"status"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`

	EmployeeName string `json:"employeeName,omitempty"`
	Department   string `json:"department,omitempty"`
	Position     string `json:"position,omitempty"`
	ApproverName string `json:"approverName,omitempty"`
}

type MonthlySummary struct {
	TotalRequests int     `json:"totalRequests"`
	ApprovedHours float64 `json:"approvedHours"`
	PendingHours  float64 `json:"pendingHours"`
	RejectedHours float64 `json:"rejectedHours"`
}

// Rate is one row of the overtime pay multiplier table.
type Rate struct {
	ID          string    `json:"id"`
	RateType    string    `json:"rateType"`
	Multiplier  float64   `json:"multiplier"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListFilter narrows the listing endpoints; zero values mean "no filter".
type ListFilter struct {
	Status     string
	Department string
	Month      int
	Year       int
}
