package attendance

import "time"

type Record struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	Date         time.Time  `json:"date"`
	CheckInTime  *time.Time `json:"checkInTime"`
	CheckOutTime *time.Time `json:"checkOutTime"`
	ImagePath    string     `json:"imagePath,omitempty"`
}

// Summary is the worked-versus-leave aggregate for a date window.
type Summary struct {
	WorkDays  int     `json:"workDays"`
	LeaveDays float64 `json:"leaveDays"`
}
