package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"peopleops/internal/domain/attendance"
	"peopleops/internal/domain/core"
	"peopleops/internal/domain/overtime"
)

var (
	ErrStartingExists  = errors.New("starting salary already recorded")
	ErrStartingMissing = errors.New("no starting salary recorded for employee")
	ErrReasonRequired  = errors.New("adjustment reason is required")
	ErrInvalidAmount   = errors.New("salary amount must be positive")
)

type Service struct {
	DB         *pgxpool.Pool
	Core       *core.Store
	Attendance *attendance.Service
	Overtime   *overtime.Service
}

func NewService(db *pgxpool.Pool, coreStore *core.Store, att *attendance.Service, ot *overtime.Service) *Service {
	return &Service{DB: db, Core: coreStore, Attendance: att, Overtime: ot}
}

// clampToToday caps the period end at today when today falls inside the
// period, so a partial month never counts future approved leave.
func clampToToday(start, end, today time.Time) time.Time {
	if !start.After(today) && end.After(today) {
		return today
	}
	return end
}

// Summarize produces the pay period view for one employee.
func (s *Service) Summarize(ctx context.Context, employeeID string, month, year int, now time.Time) (MonthlySummary, error) {
	emp, err := s.Core.GetEmployee(ctx, employeeID)
	if err != nil {
		return MonthlySummary{}, err
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	end = clampToToday(start, end, attendance.DateOnly(now))

	att, err := s.Attendance.Summarize(ctx, employeeID, start, end)
	if err != nil {
		return MonthlySummary{}, err
	}
	otHours, err := s.Overtime.ApprovedHoursInMonth(ctx, employeeID, month, year)
	if err != nil {
		return MonthlySummary{}, err
	}

	return MonthlySummary{
		Month:        month,
		Year:         year,
		EmployeeID:   emp.ID,
		EmployeeName: emp.FullName(),
		Position:     emp.Position,
		Department:   emp.Department,
		WorkDays:     att.WorkDays,
		LeaveDays:    att.LeaveDays,
		Breakdown:    Compute(emp.BaseSalary, otHours),
		PaymentDate:  PaymentDate(year, time.Month(month)),
	}, nil
}

// CreateStarting records the first salary for an employee and sets the
// base salary, in one transaction. Only one START row may exist.
func (s *Service) CreateStarting(ctx context.Context, employeeID string, amount float64, effectiveDate time.Time, changedByUserID string) (SalaryChange, error) {
	if amount <= 0 {
		return SalaryChange{}, ErrInvalidAmount
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return SalaryChange{}, err
	}
	defer tx.Rollback(ctx)

	var existing int
	if err := tx.QueryRow(ctx, `
    SELECT COUNT(1) FROM salary_history WHERE employee_id = $1 AND salary_type = $2
  `, employeeID, TypeStart).Scan(&existing); err != nil {
		return SalaryChange{}, err
	}
	if existing > 0 {
		return SalaryChange{}, ErrStartingExists
	}

	change := SalaryChange{
		EmployeeID:     employeeID,
		SalaryType:     TypeStart,
		PreviousSalary: 0,
		NewSalary:      amount,
		EffectiveDate:  effectiveDate,
		ChangedBy:      changedByUserID,
	}
	if err := tx.QueryRow(ctx, `
    INSERT INTO salary_history (employee_id, salary_type, previous_salary, new_salary, reason, effective_date, changed_by)
    VALUES ($1, $2, 0, $3, NULL, $4, $5)
    RETURNING id, created_at
  `, employeeID, TypeStart, amount, effectiveDate, changedByUserID).Scan(&change.ID, &change.CreatedAt); err != nil {
		return SalaryChange{}, err
	}

	if _, err := tx.Exec(ctx, `
    UPDATE employees SET base_salary = $1 WHERE id = $2
  `, amount, employeeID); err != nil {
		return SalaryChange{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return SalaryChange{}, err
	}
	return change, nil
}

// Adjust records a salary change. A START row must already exist and a
// reason is mandatory.
func (s *Service) Adjust(ctx context.Context, employeeID string, amount float64, reason string, effectiveDate time.Time, changedByUserID string) (SalaryChange, error) {
	if amount <= 0 {
		return SalaryChange{}, ErrInvalidAmount
	}
	if reason == "" {
		return SalaryChange{}, ErrReasonRequired
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return SalaryChange{}, err
	}
	defer tx.Rollback(ctx)

	var hasStarting int
	if err := tx.QueryRow(ctx, `
    SELECT COUNT(1) FROM salary_history WHERE employee_id = $1 AND salary_type = $2
  `, employeeID, TypeStart).Scan(&hasStarting); err != nil {
		return SalaryChange{}, err
	}
	if hasStarting == 0 {
		return SalaryChange{}, ErrStartingMissing
	}

	var previous float64
	err = tx.QueryRow(ctx, `
    SELECT base_salary FROM employees WHERE id = $1
  `, employeeID).Scan(&previous)
	if errors.Is(err, pgx.ErrNoRows) {
		return SalaryChange{}, core.ErrNotFound
	}
	if err != nil {
		return SalaryChange{}, err
	}

	change := SalaryChange{
		EmployeeID:     employeeID,
		SalaryType:     TypeAdjust,
		PreviousSalary: previous,
		NewSalary:      amount,
		Reason:         reason,
		EffectiveDate:  effectiveDate,
		ChangedBy:      changedByUserID,
	}
	if err := tx.QueryRow(ctx, `
    INSERT INTO salary_history (employee_id, salary_type, previous_salary, new_salary, reason, effective_date, changed_by)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING id, created_at
  `, employeeID, TypeAdjust, previous, amount, reason, effectiveDate, changedByUserID).Scan(&change.ID, &change.CreatedAt); err != nil {
		return SalaryChange{}, err
	}

	if _, err := tx.Exec(ctx, `
    UPDATE employees SET base_salary = $1 WHERE id = $2
  `, amount, employeeID); err != nil {
		return SalaryChange{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return SalaryChange{}, err
	}
	return change, nil
}

const historyColumns = `
    SELECT sh.id, sh.employee_id, sh.salary_type, sh.previous_salary, sh.new_salary,
           COALESCE(sh.reason, ''), sh.effective_date, COALESCE(sh.changed_by::text, ''), sh.created_at,
           TRIM(e.first_name || ' ' || e.last_name),
           COALESCE((SELECT username FROM users u WHERE u.id = sh.changed_by), '')
    FROM salary_history sh
    JOIN employees e ON sh.employee_id = e.id
`

func (s *Service) History(ctx context.Context, employeeID string) ([]SalaryChange, error) {
	query := historyColumns + ` WHERE sh.employee_id = $1 ORDER BY sh.effective_date DESC, sh.created_at DESC`
	return s.queryChanges(ctx, query, employeeID)
}

// RecentAdjustments feeds the HR dashboard with the latest ADJUST rows
// across all employees.
func (s *Service) RecentAdjustments(ctx context.Context, limit int) ([]SalaryChange, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := historyColumns + ` WHERE sh.salary_type = $1 ORDER BY sh.effective_date DESC, sh.created_at DESC LIMIT $2`
	return s.queryChanges(ctx, query, TypeAdjust, limit)
}

func (s *Service) queryChanges(ctx context.Context, query string, args ...any) ([]SalaryChange, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SalaryChange
	for rows.Next() {
		var ch SalaryChange
		if err := rows.Scan(&ch.ID, &ch.EmployeeID, &ch.SalaryType, &ch.PreviousSalary, &ch.NewSalary,
			&ch.Reason, &ch.EffectiveDate, &ch.ChangedBy, &ch.CreatedAt,
			&ch.EmployeeName, &ch.ChangedByName); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// EmployeesOverview lists employees with their first and latest ledger
// salaries, optionally narrowed by a name search or department.
func (s *Service) EmployeesOverview(ctx context.Context, filter OverviewFilter) ([]EmployeeOverview, error) {
	query := `
    SELECT e.id, TRIM(e.first_name || ' ' || e.last_name),
           COALESCE(e.position, ''), COALESCE(e.department, ''),
           COALESCE(cur.new_salary, 0), COALESCE(first.new_salary, 0), e.base_salary,
           COALESCE(adj.count, 0), cur.effective_date
    FROM employees e
    LEFT JOIN LATERAL (
      SELECT sh.new_salary, sh.effective_date
      FROM salary_history sh
      WHERE sh.employee_id = e.id
      ORDER BY sh.effective_date DESC, sh.created_at DESC
      LIMIT 1
    ) cur ON TRUE
    LEFT JOIN LATERAL (
      SELECT sh.new_salary
      FROM salary_history sh
      WHERE sh.employee_id = e.id
      ORDER BY sh.effective_date ASC, sh.created_at ASC
      LIMIT 1
    ) first ON TRUE
    LEFT JOIN LATERAL (
      SELECT COUNT(*) AS count
      FROM salary_history sh
      WHERE sh.employee_id = e.id AND sh.salary_type = $1
    ) adj ON TRUE
    WHERE 1=1`
	args := []any{TypeAdjust}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		query += ` AND (e.first_name || ' ' || e.last_name) ILIKE $2`
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		query += fmt.Sprintf(` AND e.department = $%d`, len(args))
	}
	query += ` ORDER BY e.first_name, e.last_name`

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EmployeeOverview
	for rows.Next() {
		var ov EmployeeOverview
		if err := rows.Scan(&ov.EmployeeID, &ov.EmployeeName, &ov.Position, &ov.Department,
			&ov.CurrentSalary, &ov.StartingSalary, &ov.BaseSalary,
			&ov.AdjustmentCount, &ov.LastAdjustmentDate); err != nil {
			return nil, err
		}
		out = append(out, ov)
	}
	return out, rows.Err()
}

// Overview computes the month's breakdown for every employee in one pass,
// for the HR payroll screen.
func (s *Service) Overview(ctx context.Context, month, year int) ([]OverviewRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, TRIM(e.first_name || ' ' || e.last_name),
           COALESCE(e.position, ''), COALESCE(e.department, ''), e.base_salary,
           COALESCE((
             SELECT SUM(ot.total_hours)
             FROM overtime_requests ot
             WHERE ot.employee_id = e.id AND ot.status = 'approved'
               AND EXTRACT(MONTH FROM ot.date) = $1
               AND EXTRACT(YEAR FROM ot.date) = $2
           ), 0)
    FROM employees e
    ORDER BY e.first_name, e.last_name
  `, month, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OverviewRow
	for rows.Next() {
		var row OverviewRow
		var baseSalary, otHours float64
		if err := rows.Scan(&row.EmployeeID, &row.EmployeeName, &row.Position,
			&row.Department, &baseSalary, &otHours); err != nil {
			return nil, err
		}
		row.Breakdown = Compute(baseSalary, otHours)
		out = append(out, row)
	}
	return out, rows.Err()
}

// CompanySummary aggregates each employee's current ledger salary and
// counts the adjustments whose effective date falls in the current month.
func (s *Service) CompanySummary(ctx context.Context) (CompanySummary, error) {
	var out CompanySummary
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(e.id),
           COALESCE(AVG(cur.new_salary), 0),
           COALESCE(MAX(cur.new_salary), 0),
           COALESCE(MIN(cur.new_salary), 0),
           (SELECT COUNT(*) FROM salary_history
            WHERE salary_type = $1
              AND date_trunc('month', effective_date) = date_trunc('month', now()))
    FROM employees e
    LEFT JOIN LATERAL (
      SELECT sh.new_salary
      FROM salary_history sh
      WHERE sh.employee_id = e.id
      ORDER BY sh.effective_date DESC, sh.created_at DESC
      LIMIT 1
    ) cur ON TRUE
  `, TypeAdjust).Scan(&out.TotalEmployees, &out.AverageSalary, &out.MaxSalary,
		&out.MinSalary, &out.AdjustmentsThisMonth)
	if err != nil {
		return CompanySummary{}, err
	}
	return out, nil
}
