package overtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"peopleops/internal/domain/approval"
	"peopleops/internal/domain/core"
)

var (
	ErrDuplicateRequest = errors.New("an overtime request already exists for this date")
	ErrNotFound         = errors.New("overtime request not found")
	ErrAlreadyDecided   = errors.New("overtime request already decided")
	ErrInvalidAction    = errors.New("action must be approve or reject")
)

// FileRemover deletes a stored evidence file. Submit uses it to guarantee
// no orphaned upload survives a failed submission.
type FileRemover interface {
	Remove(relPath string) error
}

type Service struct {
	DB    *pgxpool.Pool
	Core  *core.Store
	Files FileRemover
}

func NewService(db *pgxpool.Pool, coreStore *core.Store, files FileRemover) *Service {
	return &Service{DB: db, Core: coreStore, Files: files}
}

type SubmitInput struct {
	EmployeeID   string
	Date         time.Time
	StartTime    string
	EndTime      string
	Reason       string
	EvidencePath string
}

type SubmitResult struct {
	ID           string
	TotalHours   float64
	EvidencePath string
}

// Submit validates and records an overtime request. The evidence image was
// already persisted by the upload layer, so every failure path removes it.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (SubmitResult, error) {
	totalHours, err := ComputeTotalHours(input.StartTime, input.EndTime)
	if err != nil {
		s.discardEvidence(input.EvidencePath)
		return SubmitResult{}, err
	}

	var existing int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM overtime_requests
    WHERE employee_id = $1 AND date = $2 AND status <> $3
  `, input.EmployeeID, input.Date, StatusRejected).Scan(&existing); err != nil {
		s.discardEvidence(input.EvidencePath)
		return SubmitResult{}, err
	}
	if existing > 0 {
		s.discardEvidence(input.EvidencePath)
		return SubmitResult{}, ErrDuplicateRequest
	}

	var id string
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO overtime_requests (employee_id, date, start_time, end_time, total_hours, reason, evidence_path, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING id
  `, input.EmployeeID, input.Date, input.StartTime, input.EndTime, totalHours,
		input.Reason, nullIfEmpty(input.EvidencePath), StatusPending).Scan(&id); err != nil {
		s.discardEvidence(input.EvidencePath)
		// A concurrent submit can slip past the count check and land on
		// the partial unique index instead.
		if isUniqueViolation(err) {
			return SubmitResult{}, ErrDuplicateRequest
		}
		return SubmitResult{}, err
	}

	return SubmitResult{ID: id, TotalHours: totalHours, EvidencePath: input.EvidencePath}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *Service) discardEvidence(relPath string) {
	if relPath == "" || s.Files == nil {
		return
	}
	if err := s.Files.Remove(relPath); err != nil {
		slog.Warn("evidence cleanup failed", "path", relPath, "err", err)
	}
}

type DecisionResult struct {
	Status         string
	EmployeeUserID string
	TotalHours     float64
	Date           time.Time
}

// Decide approves or rejects a pending request. Only a manager of the
// requester's department may act; the department match tolerates case and
// whitespace drift.
func (s *Service) Decide(ctx context.Context, requestID, action, approverUserID, approverRole, rejectionReason string) (DecisionResult, error) {
	if action != "approve" && action != "reject" {
		return DecisionResult{}, ErrInvalidAction
	}

	var employeeID, status string
	var totalHours float64
	var date time.Time
	err := s.DB.QueryRow(ctx, `
    SELECT employee_id, status, total_hours, date
    FROM overtime_requests
    WHERE id = $1
  `, requestID).Scan(&employeeID, &status, &totalHours, &date)
	if errors.Is(err, pgx.ErrNoRows) {
		return DecisionResult{}, ErrNotFound
	}
	if err != nil {
		return DecisionResult{}, err
	}
	if status != StatusPending {
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
	if err := approval.CanActOnOvertime(approverRole, approverDept, owner.Department); err != nil {
		return DecisionResult{}, err
	}

	approver, err := s.Core.EmployeeByUserID(ctx, approverUserID)
	if err != nil {
		return DecisionResult{}, err
	}

	newStatus := StatusApproved
	if action == "reject" {
		newStatus = StatusRejected
	}

	tag, err := s.DB.Exec(ctx, `
    UPDATE overtime_requests
    SET status = $1,
        approved_by = $2,
        approved_at = CASE WHEN $1 = 'approved' THEN now() ELSE NULL END,
        rejection_reason = $3
    WHERE id = $4 AND status = $5
  `, newStatus, approver.ID, nullIfEmpty(rejectionReason), requestID, StatusPending)
	if err != nil {
		return DecisionResult{}, err
	}
	if tag.RowsAffected() == 0 {
		return DecisionResult{}, ErrAlreadyDecided
	}

	return DecisionResult{
		Status:         newStatus,
		EmployeeUserID: owner.UserID,
		TotalHours:     totalHours,
		Date:           date,
	}, nil
}

const listColumns = `
    SELECT ot.id, ot.employee_id, ot.date, ot.start_time, ot.end_time, ot.total_hours,
           COALESCE(ot.reason, ''), COALESCE(ot.evidence_path, ''), ot.status,
           COALESCE(ot.approved_by::text, ''), ot.approved_at, COALESCE(ot.rejection_reason, ''), ot.created_at,
           TRIM(e.first_name || ' ' || e.last_name), COALESCE(e.department, ''), COALESCE(e.position, ''),
           COALESCE(TRIM(a.first_name || ' ' || a.last_name), '')
    FROM overtime_requests ot
    JOIN employees e ON ot.employee_id = e.id
    LEFT JOIN employees a ON ot.approved_by = a.id
`

func (s *Service) ListMine(ctx context.Context, employeeID string, filter ListFilter) ([]Request, error) {
	query := listColumns + " WHERE ot.employee_id = $1"
	args := []any{employeeID}
	query, args = applyFilter(query, args, filter)
	query += " ORDER BY ot.date DESC, ot.created_at DESC"
	return s.queryRequests(ctx, query, args)
}

// ListAll is the manager-wide view, optionally filtered by department,
// status, and month.
func (s *Service) ListAll(ctx context.Context, callerRole string, filter ListFilter) ([]Request, error) {
	if err := approval.CanListOvertime(callerRole); err != nil {
		return nil, err
	}
	query := listColumns + " WHERE 1=1"
	args := []any{}
	if filter.Department != "" {
		args = append(args, filter.Department)
		query += placeholder(" AND e.department = $%d", len(args))
	}
	query, args = applyFilter(query, args, filter)
	query += " ORDER BY ot.date DESC, ot.created_at DESC"
	return s.queryRequests(ctx, query, args)
}

// ListPending returns the approval queue scoped to the manager's
// department. A manager without a department sees every pending request,
// preserving the source behavior.
func (s *Service) ListPending(ctx context.Context, callerRole, callerUserID string) ([]Request, error) {
	if err := approval.CanListOvertime(callerRole); err != nil {
		return nil, err
	}

	dept, err := s.Core.DepartmentOf(ctx, callerUserID)
	if err != nil {
		return nil, err
	}

	query := listColumns + " WHERE ot.status = $1"
	args := []any{StatusPending}
	if dept != "" {
		args = append(args, dept)
		query += placeholder(" AND TRIM(UPPER(COALESCE(e.department, ''))) = TRIM(UPPER($%d))", len(args))
	}
	query += " ORDER BY ot.date DESC, ot.created_at DESC"
	return s.queryRequests(ctx, query, args)
}

func (s *Service) Summary(ctx context.Context, employeeID string, month, year int) (MonthlySummary, error) {
	var out MonthlySummary
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(*),
           COALESCE(SUM(CASE WHEN status = 'approved' THEN total_hours ELSE 0 END), 0),
           COALESCE(SUM(CASE WHEN status = 'pending' THEN total_hours ELSE 0 END), 0),
           COALESCE(SUM(CASE WHEN status = 'rejected' THEN total_hours ELSE 0 END), 0)
    FROM overtime_requests
    WHERE employee_id = $1
      AND EXTRACT(MONTH FROM date) = $2
      AND EXTRACT(YEAR FROM date) = $3
  `, employeeID, month, year).Scan(&out.TotalRequests, &out.ApprovedHours, &out.PendingHours, &out.RejectedHours)
	if err != nil {
		return MonthlySummary{}, err
	}
	return out, nil
}

// Evidence resolves the stored evidence file for a request. ErrNotFound
// covers both a missing request and a request submitted without evidence.
func (s *Service) Evidence(ctx context.Context, requestID string) (employeeID, relPath string, err error) {
	var path *string
	err = s.DB.QueryRow(ctx, `
    SELECT employee_id, evidence_path FROM overtime_requests WHERE id = $1
  `, requestID).Scan(&employeeID, &path)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", err
	}
	if path == nil || *path == "" {
		return "", "", ErrNotFound
	}
	return employeeID, *path, nil
}

// Rates lists the configured overtime pay multipliers.
func (s *Service) Rates(ctx context.Context) ([]Rate, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, rate_type, multiplier, COALESCE(description, ''), created_at
    FROM overtime_rates
    ORDER BY rate_type
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Rate
	for rows.Next() {
		var rate Rate
		if err := rows.Scan(&rate.ID, &rate.RateType, &rate.Multiplier, &rate.Description, &rate.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rate)
	}
	return out, rows.Err()
}

// ApprovedHoursInMonth feeds the payroll calculator.
func (s *Service) ApprovedHoursInMonth(ctx context.Context, employeeID string, month, year int) (float64, error) {
	var hours float64
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(total_hours), 0)
    FROM overtime_requests
    WHERE employee_id = $1 AND status = 'approved'
      AND EXTRACT(MONTH FROM date) = $2
      AND EXTRACT(YEAR FROM date) = $3
  `, employeeID, month, year).Scan(&hours)
	if err != nil {
		return 0, err
	}
	return hours, nil
}

func (s *Service) queryRequests(ctx context.Context, query string, args []any) ([]Request, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		var req Request
		if err := rows.Scan(&req.ID, &req.EmployeeID, &req.Date, &req.StartTime, &req.EndTime,
			&req.TotalHours, &req.Reason, &req.EvidencePath, &req.Status, &req.ApprovedBy,
			&req.ApprovedAt, &req.RejectionReason, &req.CreatedAt,
			&req.EmployeeName, &req.Department, &req.Position, &req.ApproverName); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func applyFilter(query string, args []any, filter ListFilter) (string, []any) {
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += placeholder(" AND ot.status = $%d", len(args))
	}
	if filter.Month > 0 && filter.Year > 0 {
		args = append(args, filter.Month)
		query += placeholder(" AND EXTRACT(MONTH FROM ot.date) = $%d", len(args))
		args = append(args, filter.Year)
		query += placeholder(" AND EXTRACT(YEAR FROM ot.date) = $%d", len(args))
	}
	return query, args
}

func placeholder(format string, n int) string {
	return fmt.Sprintf(format, n)
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
