package leave

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"peopleops/internal/domain/approval"
	"peopleops/internal/domain/attendance"
	"peopleops/internal/domain/auth"
	"peopleops/internal/domain/core"
)

var (
	ErrInvalidRange    = errors.New("end date before start date")
	ErrInvalidStatus   = errors.New("status must be approved or rejected")
	ErrNotFound        = errors.New("leave request not found")
	ErrAlreadyDecided  = errors.New("leave request already decided")
	ErrApproverProfile = errors.New("approver has no employee record")
)

type Service struct {
	DB         *pgxpool.Pool
	Core       *core.Store
	Attendance *attendance.Service
}

func NewService(db *pgxpool.Pool, coreStore *core.Store, att *attendance.Service) *Service {
	return &Service{DB: db, Core: coreStore, Attendance: att}
}

type SubmitResult struct {
	ID              string
	EmployeeName    string
	Department      string
	ApproverUserIDs []string
}

// Submit records a pending leave request and returns the login identities
// that should be notified: every admin plus the managers of the
// requester's department. Fan-out itself happens after this call so a
// notification failure can never fail the submission.
func (s *Service) Submit(ctx context.Context, employeeID, leaveType string, start, end time.Time, reason string) (SubmitResult, error) {
	if end.Before(start) {
		return SubmitResult{}, ErrInvalidRange
	}

	emp, err := s.Core.GetEmployee(ctx, employeeID)
	if err != nil {
		return SubmitResult{}, err
	}

	result := SubmitResult{EmployeeName: emp.FullName(), Department: emp.Department}
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO leave_requests (employee_id, leave_type, start_date, end_date, reason, status)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id
  `, employeeID, leaveType, start, end, reason, StatusPending).Scan(&result.ID); err != nil {
		return SubmitResult{}, err
	}

	result.ApproverUserIDs = s.approverUserIDs(ctx, emp.Department)
	return result, nil
}

// approverUserIDs is best-effort: a lookup failure only shrinks the
// notification audience.
func (s *Service) approverUserIDs(ctx context.Context, department string) []string {
	var out []string

	rows, err := s.DB.Query(ctx, "SELECT id FROM users WHERE role = $1", auth.RoleAdmin)
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err == nil {
				out = append(out, id)
			}
		}
	}

	if department == "" {
		return out
	}

	managerRows, err := s.DB.Query(ctx, `
    SELECT u.id
    FROM users u
    JOIN employees e ON e.user_id = u.id
    WHERE u.role = $1 AND e.department = $2
  `, auth.RoleManager, department)
	if err != nil {
		return out
	}
	defer managerRows.Close()
	for managerRows.Next() {
		var id string
		if err := managerRows.Scan(&id); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// Pending serves the approval queue. Managers get pending requests from
// their own department; a manager without a department sees an empty list.
// Admins get the decided (approved/rejected) records globally and nothing
// pending, matching their view-only role for leave.
func (s *Service) Pending(ctx context.Context, callerRole, callerUserID string) ([]Request, error) {
	if err := approval.CanListLeave(callerRole); err != nil {
		return nil, err
	}

	if callerRole == auth.RoleAdmin {
		return s.decidedRequests(ctx)
	}

	dept, err := s.Core.DepartmentOf(ctx, callerUserID)
	if err != nil {
		return nil, err
	}
	if dept == "" {
		return []Request{}, nil
	}
	return s.pendingByDepartment(ctx, dept)
}

func (s *Service) decidedRequests(ctx context.Context) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT lr.id, lr.employee_id, lr.leave_type, lr.start_date, lr.end_date,
           (lr.end_date - lr.start_date + 1), lr.reason, lr.status,
           COALESCE(lr.approved_by::text, ''), lr.approved_at, lr.created_at,
           TRIM(e.first_name || ' ' || e.last_name), COALESCE(e.position, ''), COALESCE(e.department, ''),
           COALESCE(u.email, ''),
           COALESCE(TRIM(a.first_name || ' ' || a.last_name), '')
    FROM leave_requests lr
    JOIN employees e ON lr.employee_id = e.id
    LEFT JOIN users u ON e.user_id = u.id
    LEFT JOIN employees a ON lr.approved_by = a.id
    WHERE lr.status IN ($1, $2)
    ORDER BY COALESCE(lr.approved_at, lr.created_at) DESC, lr.created_at DESC
  `, StatusApproved, StatusRejected)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (s *Service) pendingByDepartment(ctx context.Context, department string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT lr.id, lr.employee_id, lr.leave_type, lr.start_date, lr.end_date,
           (lr.end_date - lr.start_date + 1), lr.reason, lr.status,
           COALESCE(lr.approved_by::text, ''), lr.approved_at, lr.created_at,
           TRIM(e.first_name || ' ' || e.last_name), COALESCE(e.position, ''), COALESCE(e.department, ''),
           COALESCE(u.email, ''), ''
    FROM leave_requests lr
    JOIN employees e ON lr.employee_id = e.id
    LEFT JOIN users u ON e.user_id = u.id
    WHERE lr.status = $1 AND e.department = $2
    ORDER BY lr.created_at DESC
  `, StatusPending, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func scanRequests(rows pgx.Rows) ([]Request, error) {
	var out []Request
	for rows.Next() {
		var req Request
		if err := rows.Scan(&req.ID, &req.EmployeeID, &req.LeaveType, &req.StartDate, &req.EndDate,
			&req.TotalDays, &req.Reason, &req.Status, &req.ApprovedBy, &req.ApprovedAt, &req.CreatedAt,
			&req.EmployeeName, &req.Position, &req.Department, &req.EmployeeEmail, &req.ApproverName); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *Service) History(ctx context.Context, employeeID string) ([]Request, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, employee_id, leave_type, start_date, end_date,
           (end_date - start_date + 1), reason, status,
           COALESCE(approved_by::text, ''), approved_at, created_at,
           '', '', '', '', ''
    FROM leave_requests
    WHERE employee_id = $1
    ORDER BY created_at DESC
    LIMIT 100
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

type DecisionResult struct {
	Status          string
	EmployeeUserID  string
	EmployeeName    string
	RejectionReason string
}

// SetStatus moves a pending request to approved or rejected. Admins are
// view-only for leave, so only a manager of the requester's department may
// decide, and a decided request stays decided.
func (s *Service) SetStatus(ctx context.Context, leaveID, newStatus, approverUserID, approverRole, rejectionReason string) (DecisionResult, error) {
	if newStatus != StatusApproved && newStatus != StatusRejected {
		return DecisionResult{}, ErrInvalidStatus
	}

	var employeeID, currentStatus string
	if err := s.DB.QueryRow(ctx, `
    SELECT employee_id, status FROM leave_requests WHERE id = $1
  `, leaveID).Scan(&employeeID, &currentStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DecisionResult{}, ErrNotFound
		}
		return DecisionResult{}, err
	}
	if currentStatus != StatusPending {
		return DecisionResult{}, ErrAlreadyDecided
	}

	owner, err := s.Core.GetEmployee(ctx, employeeID)
	if err != nil {
		return DecisionResult{}, err
	}

	approverDept, err := s.Core.DepartmentOf(ctx, approverUserID)
	if err != nil {
		return DecisionResult{}, err
	}
	if err := approval.CanActOnLeave(approverRole, approverDept, owner.Department); err != nil {
		return DecisionResult{}, err
	}

	approver, err := s.Core.EmployeeByUserID(ctx, approverUserID)
	if err != nil {
		if errors.Is(err, core.ErrNoEmployee) {
			return DecisionResult{}, ErrApproverProfile
		}
		return DecisionResult{}, err
	}

	tag, err := s.DB.Exec(ctx, `
    UPDATE leave_requests
    SET status = $1, approved_by = $2, approved_at = now()
    WHERE id = $3 AND status = $4
  `, newStatus, approver.ID, leaveID, StatusPending)
	if err != nil {
		return DecisionResult{}, err
	}
	if tag.RowsAffected() == 0 {
		return DecisionResult{}, ErrAlreadyDecided
	}

	return DecisionResult{
		Status:          newStatus,
		EmployeeUserID:  owner.UserID,
		EmployeeName:    owner.FullName(),
		RejectionReason: rejectionReason,
	}, nil
}

// Summarize aggregates the lifetime and current-year leave totals. The
// lifetime counts deliberately ignore the year parameter; only the
// remaining-days calculation is year-bounded.
func (s *Service) Summarize(ctx context.Context, employeeID string, year int) (Summary, error) {
	summary := Summary{Year: year}
	err := s.DB.QueryRow(ctx, `
    SELECT
      COALESCE(SUM(CASE WHEN status = 'approved' THEN end_date - start_date + 1 ELSE 0 END), 0),
      COALESCE(SUM(CASE WHEN status = 'approved' AND leave_type = 'sick' THEN end_date - start_date + 1 ELSE 0 END), 0),
      COALESCE(SUM(CASE WHEN status = 'approved' AND leave_type = 'personal' THEN end_date - start_date + 1 ELSE 0 END), 0),
      COALESCE(SUM(CASE WHEN status = 'pending' THEN end_date - start_date + 1 ELSE 0 END), 0),
      COALESCE(SUM(CASE WHEN status = 'approved' AND EXTRACT(YEAR FROM start_date) = $2 THEN end_date - start_date + 1 ELSE 0 END), 0)
    FROM leave_requests
    WHERE employee_id = $1
  `, employeeID, year).Scan(&summary.TotalLeaveDays, &summary.SickLeaveDays,
		&summary.PersonalLeaveDays, &summary.PendingLeaveDays, &summary.CurrentYearLeaveDays)
	if err != nil {
		return Summary{}, err
	}
	summary.RemainingLeaveDays = RemainingDays(summary.CurrentYearLeaveDays)

	// Attendance figures degrade to zero; missing attendance data must
	// never fail the leave summary.
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	att, err := s.Attendance.Summarize(ctx, employeeID, yearStart, yearEnd)
	if err != nil {
		slog.Warn("leave summary attendance lookup failed", "employeeId", employeeID, "err", err)
		att = attendance.Summary{}
	}
	summary.Attendance = AttendanceSummary{
		TotalWorkDays: att.WorkDays,
		DaysWorked:    att.WorkDays,
		LeaveDays:     att.LeaveDays,
	}
	return summary, nil
}

// CompanyReport is the admin overview of every employee's leave position
// for one year.
func (s *Service) CompanyReport(ctx context.Context, year int) (CompanyReport, error) {
	report := CompanyReport{Year: year, Summary: []EmployeeSummary{}}

	rows, err := s.DB.Query(ctx, `
    SELECT e.id, u.id, TRIM(e.first_name || ' ' || e.last_name),
           COALESCE(e.position, ''), COALESCE(e.department, ''), COALESCE(u.email, ''),
           COALESCE(SUM(CASE WHEN lr.status = 'approved' THEN lr.end_date - lr.start_date + 1 ELSE 0 END), 0),
           COALESCE(SUM(CASE WHEN lr.status = 'approved' AND lr.leave_type = 'sick' THEN lr.end_date - lr.start_date + 1 ELSE 0 END), 0),
           COALESCE(SUM(CASE WHEN lr.status = 'approved' AND lr.leave_type = 'personal' THEN lr.end_date - lr.start_date + 1 ELSE 0 END), 0),
           COALESCE(SUM(CASE WHEN lr.status = 'pending' THEN lr.end_date - lr.start_date + 1 ELSE 0 END), 0),
           COALESCE(SUM(CASE WHEN lr.status = 'approved' AND EXTRACT(YEAR FROM lr.start_date) = $1 THEN lr.end_date - lr.start_date + 1 ELSE 0 END), 0)
    FROM users u
    JOIN employees e ON e.user_id = u.id
    LEFT JOIN leave_requests lr ON lr.employee_id = e.id
    WHERE u.role = $2
    GROUP BY e.id, u.id, e.first_name, e.last_name, e.position, e.department, u.email
    ORDER BY e.first_name, e.last_name
  `, year, auth.RoleEmployee)
	if err != nil {
		return CompanyReport{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var row EmployeeSummary
		if err := rows.Scan(&row.EmployeeID, &row.UserID, &row.EmployeeName,
			&row.Position, &row.Department, &row.Email,
			&row.TotalLeaveDays, &row.SickLeaveDays, &row.PersonalLeaveDays,
			&row.PendingLeaveDays, &row.CurrentYearLeaveDays); err != nil {
			return CompanyReport{}, err
		}
		row.RemainingLeaveDays = RemainingDays(row.CurrentYearLeaveDays)
		report.Summary = append(report.Summary, row)
	}
	if err := rows.Err(); err != nil {
		return CompanyReport{}, err
	}

	err = s.DB.QueryRow(ctx, `
    SELECT COUNT(DISTINCT u.id),
           COALESCE(SUM(CASE WHEN lr.status = 'approved' AND EXTRACT(YEAR FROM lr.start_date) = $1 THEN lr.end_date - lr.start_date + 1 ELSE 0 END), 0),
           COALESCE(SUM(CASE WHEN lr.status = 'pending' THEN lr.end_date - lr.start_date + 1 ELSE 0 END), 0),
           COALESCE(SUM(CASE WHEN lr.status = 'rejected' AND EXTRACT(YEAR FROM lr.start_date) = $1 THEN lr.end_date - lr.start_date + 1 ELSE 0 END), 0)
    FROM users u
    JOIN employees e ON e.user_id = u.id
    LEFT JOIN leave_requests lr ON lr.employee_id = e.id
    WHERE u.role = $2
  `, year, auth.RoleEmployee).Scan(&report.Totals.TotalEmployees,
		&report.Totals.TotalApprovedDays, &report.Totals.TotalPendingDays, &report.Totals.TotalRejectedDays)
	if err != nil {
		return CompanyReport{}, err
	}
	return report, nil
}

// Details lists requests of every status across the company, optionally
// restricted to those covering one calendar day, newest first.
func (s *Service) Details(ctx context.Context, onDate *time.Time) ([]Request, error) {
	query := `
    SELECT lr.id, lr.employee_id, lr.leave_type, lr.start_date, lr.end_date,
           (lr.end_date - lr.start_date + 1), lr.reason, lr.status,
           COALESCE(lr.approved_by::text, ''), lr.approved_at, lr.created_at,
           TRIM(e.first_name || ' ' || e.last_name), COALESCE(e.position, ''), COALESCE(e.department, ''),
           COALESCE(u.email, ''),
           COALESCE(TRIM(a.first_name || ' ' || a.last_name), '')
    FROM leave_requests lr
    JOIN employees e ON lr.employee_id = e.id
    LEFT JOIN users u ON e.user_id = u.id
    LEFT JOIN employees a ON lr.approved_by = a.id`
	args := []any{}
	if onDate != nil {
		args = append(args, *onDate)
		query += ` WHERE $1 BETWEEN lr.start_date AND lr.end_date`
	}
	query += ` ORDER BY lr.created_at DESC LIMIT 200`

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}
