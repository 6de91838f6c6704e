package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrAlreadyCheckedIn  = errors.New("already checked in today")
	ErrNotCheckedIn      = errors.New("not checked in today")
	ErrAlreadyCheckedOut = errors.New("already checked out today")
)

type Service struct {
	DB *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

// DateOnly normalizes a timestamp to its calendar day so the
// (employee, date) uniqueness holds regardless of clock time.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CheckIn records the first check-in of the day. One row exists per
// (employee, date); a second check-in is a conflict.
func (s *Service) CheckIn(ctx context.Context, employeeID string, day time.Time, imagePath string) (time.Time, error) {
	date := DateOnly(day)

	var id string
	var checkIn *time.Time
	err := s.DB.QueryRow(ctx, `
    SELECT id, check_in_time FROM attendance WHERE employee_id = $1 AND date = $2
  `, employeeID, date).Scan(&id, &checkIn)
	switch {
	case err == nil && checkIn != nil:
		return time.Time{}, ErrAlreadyCheckedIn
	case err != nil && !errors.Is(err, pgx.ErrNoRows):
		return time.Time{}, err
	}

	now := time.Now()
	if id != "" {
		_, err = s.DB.Exec(ctx, `
      UPDATE attendance SET check_in_time = $1, check_in_image_path = $2 WHERE id = $3
    `, now, imagePath, id)
	} else {
		_, err = s.DB.Exec(ctx, `
      INSERT INTO attendance (employee_id, date, check_in_time, check_in_image_path)
      VALUES ($1, $2, $3, $4)
    `, employeeID, date, now, imagePath)
	}
	if err != nil {
		return time.Time{}, err
	}
	return now, nil
}

func (s *Service) CheckOut(ctx context.Context, employeeID string, day time.Time) (time.Time, error) {
	date := DateOnly(day)

	var id string
	var checkIn, checkOut *time.Time
	err := s.DB.QueryRow(ctx, `
    SELECT id, check_in_time, check_out_time FROM attendance WHERE employee_id = $1 AND date = $2
  `, employeeID, date).Scan(&id, &checkIn, &checkOut)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && checkIn == nil) {
		return time.Time{}, ErrNotCheckedIn
	}
	if err != nil {
		return time.Time{}, err
	}
	if checkOut != nil {
		return time.Time{}, ErrAlreadyCheckedOut
	}

	now := time.Now()
	if _, err := s.DB.Exec(ctx, `
    UPDATE attendance SET check_out_time = $1 WHERE id = $2
  `, now, id); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

func (s *Service) Today(ctx context.Context, employeeID string, day time.Time) (*Record, error) {
	date := DateOnly(day)
	var rec Record
	var image *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, employee_id, date, check_in_time, check_out_time, COALESCE(check_in_image_path, '')
    FROM attendance
    WHERE employee_id = $1 AND date = $2
  `, employeeID, date).Scan(&rec.ID, &rec.EmployeeID, &rec.Date, &rec.CheckInTime, &rec.CheckOutTime, &image)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if image != nil {
		rec.ImagePath = *image
	}
	return &rec, nil
}

func (s *Service) History(ctx context.Context, employeeID string, start, end *time.Time) ([]Record, error) {
	query := `
    SELECT id, employee_id, date, check_in_time, check_out_time, COALESCE(check_in_image_path, '')
    FROM attendance
    WHERE employee_id = $1
  `
	args := []any{employeeID}
	if start != nil && end != nil {
		query += " AND date BETWEEN $2 AND $3"
		args = append(args, *start, *end)
	}
	query += " ORDER BY date DESC LIMIT 100"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Date, &rec.CheckInTime, &rec.CheckOutTime, &rec.ImagePath); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// WorkDays counts distinct dates with a check-in inside [start, end].
// Missing data degrades to zero; callers never fail on an empty table.
func (s *Service) WorkDays(ctx context.Context, employeeID string, start, end time.Time) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(DISTINCT date)
    FROM attendance
    WHERE employee_id = $1 AND check_in_time IS NOT NULL AND date >= $2 AND date <= $3
  `, employeeID, start, end).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// LeaveDays sums inclusive day counts of approved leave requests whose
// range lies inside the window.
func (s *Service) LeaveDays(ctx context.Context, employeeID string, start, end time.Time) (float64, error) {
	var days float64
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(end_date - start_date + 1), 0)
    FROM leave_requests
    WHERE employee_id = $1 AND status = 'approved' AND start_date >= $2 AND end_date <= $3
  `, employeeID, start, end).Scan(&days)
	if err != nil {
		return 0, err
	}
	return days, nil
}

func (s *Service) Summarize(ctx context.Context, employeeID string, start, end time.Time) (Summary, error) {
	workDays, err := s.WorkDays(ctx, employeeID, start, end)
	if err != nil {
		return Summary{}, err
	}
	leaveDays, err := s.LeaveDays(ctx, employeeID, start, end)
	if err != nil {
		return Summary{}, err
	}
	return Summary{WorkDays: workDays, LeaveDays: leaveDays}, nil
}
