package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"peopleops/internal/domain/auth"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrDuplicateUser = errors.New("username or email already taken")
	ErrNoEmployee    = errors.New("no employee record for user")
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// EmployeeByUserID resolves a login identity to its employee profile.
// Every ledger row is keyed on employees.id, so this lookup happens at the
// start of nearly every request.
func (s *Store) EmployeeByUserID(ctx context.Context, userID string) (Employee, error) {
	var emp Employee
	var phone, position, department *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, first_name, last_name, phone_number, date_of_birth,
           position, department, base_salary, created_at
    FROM employees
    WHERE user_id = $1
  `, userID).Scan(&emp.ID, &emp.UserID, &emp.FirstName, &emp.LastName, &phone,
		&emp.DateOfBirth, &position, &department, &emp.BaseSalary, &emp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNoEmployee
	}
	if err != nil {
		return Employee{}, err
	}
	applyOptional(&emp, phone, position, department)
	return emp, nil
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	var emp Employee
	var phone, position, department *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, first_name, last_name, phone_number, date_of_birth,
           position, department, base_salary, created_at
    FROM employees
    WHERE id = $1
  `, employeeID).Scan(&emp.ID, &emp.UserID, &emp.FirstName, &emp.LastName, &phone,
		&emp.DateOfBirth, &position, &department, &emp.BaseSalary, &emp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	if err != nil {
		return Employee{}, err
	}
	applyOptional(&emp, phone, position, department)
	return emp, nil
}

// DepartmentOf returns the caller's department, empty when the employee
// has none or no employee record exists. Scoped listings treat empty as
// "no visibility", not as an error.
func (s *Store) DepartmentOf(ctx context.Context, userID string) (string, error) {
	var department *string
	err := s.DB.QueryRow(ctx, `
    SELECT department FROM employees WHERE user_id = $1
  `, userID).Scan(&department)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if department == nil {
		return "", nil
	}
	return *department, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]UserAccount, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id, u.username, u.email, u.role, u.created_at,
           COALESCE(e.id::text, ''), COALESCE(e.first_name, ''), COALESCE(e.last_name, ''),
           COALESCE(e.position, ''), COALESCE(e.department, '')
    FROM users u
    LEFT JOIN employees e ON e.user_id = u.id
    ORDER BY u.created_at DESC
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UserAccount
	for rows.Next() {
		var account UserAccount
		if err := rows.Scan(&account.UserID, &account.Username, &account.Email, &account.Role,
			&account.CreatedAt, &account.EmployeeID, &account.FirstName, &account.LastName,
			&account.Position, &account.Department); err != nil {
			return nil, err
		}
		out = append(out, account)
	}
	return out, rows.Err()
}

func (s *Store) GetUser(ctx context.Context, userID string) (UserAccount, error) {
	var account UserAccount
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, u.username, u.email, u.role, u.created_at,
           COALESCE(e.id::text, ''), COALESCE(e.first_name, ''), COALESCE(e.last_name, ''),
           COALESCE(e.phone_number, ''), e.date_of_birth,
           COALESCE(e.position, ''), COALESCE(e.department, '')
    FROM users u
    LEFT JOIN employees e ON e.user_id = u.id
    WHERE u.id = $1
  `, userID).Scan(&account.UserID, &account.Username, &account.Email, &account.Role,
		&account.CreatedAt, &account.EmployeeID, &account.FirstName, &account.LastName,
		&account.PhoneNumber, &account.DateOfBirth, &account.Position, &account.Department)
	if errors.Is(err, pgx.ErrNoRows) {
		return UserAccount{}, ErrNotFound
	}
	return account, err
}

type CreateUserInput struct {
	Username   string
	Email      string
	Password   string
	Role       string
	FirstName  string
	LastName   string
	Position   string
	Department string
}

// CreateUser provisions the login row and, when profile fields are present,
// the employee row in a single transaction.
func (s *Store) CreateUser(ctx context.Context, input CreateUserInput) (string, error) {
	var count int
	if err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM users WHERE username = $1 OR email = $2
  `, input.Username, input.Email).Scan(&count); err != nil {
		return "", err
	}
	if count > 0 {
		return "", ErrDuplicateUser
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return "", err
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var userID string
	if err := tx.QueryRow(ctx, `
    INSERT INTO users (username, email, password_hash, role)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, input.Username, input.Email, hash, input.Role).Scan(&userID); err != nil {
		return "", err
	}

	if input.FirstName != "" || input.LastName != "" || input.Position != "" || input.Department != "" {
		if _, err := tx.Exec(ctx, `
      INSERT INTO employees (user_id, first_name, last_name, position, department)
      VALUES ($1, $2, $3, $4, $5)
    `, userID, input.FirstName, input.LastName, nullIfEmpty(input.Position), nullIfEmpty(input.Department)); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return userID, nil
}

type UpdateUserInput struct {
	Username    *string
	Email       *string
	Password    *string
	Role        *string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	DateOfBirth *time.Time
	Position    *string
	Department  *string
}

// UpdateUser applies the provided fields across users and employees in one
// transaction. An employee row is created on demand when profile fields
// arrive for a login that never had one.
func (s *Store) UpdateUser(ctx context.Context, userID string, input UpdateUserInput) error {
	exists, err := s.userExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if input.Username != nil {
		if _, err := tx.Exec(ctx, "UPDATE users SET username = $1 WHERE id = $2", *input.Username, userID); err != nil {
			return err
		}
	}
	if input.Email != nil {
		if _, err := tx.Exec(ctx, "UPDATE users SET email = $1 WHERE id = $2", *input.Email, userID); err != nil {
			return err
		}
	}
	if input.Role != nil {
		if _, err := tx.Exec(ctx, "UPDATE users SET role = $1 WHERE id = $2", *input.Role, userID); err != nil {
			return err
		}
	}
	if input.Password != nil {
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", hash, userID); err != nil {
			return err
		}
	}

	if hasProfileFields(input) {
		if _, err := tx.Exec(ctx, `
      INSERT INTO employees (user_id, first_name, last_name)
      VALUES ($1, '', '')
      ON CONFLICT (user_id) DO NOTHING
    `, userID); err != nil {
			return err
		}

		set := make([]string, 0, 6)
		args := make([]any, 0, 7)
		add := func(column string, value any) {
			args = append(args, value)
			set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
		}
		if input.FirstName != nil {
			add("first_name", *input.FirstName)
		}
		if input.LastName != nil {
			add("last_name", *input.LastName)
		}
		if input.PhoneNumber != nil {
			add("phone_number", nullIfEmpty(*input.PhoneNumber))
		}
		if input.DateOfBirth != nil {
			add("date_of_birth", *input.DateOfBirth)
		}
		if input.Position != nil {
			add("position", nullIfEmpty(*input.Position))
		}
		if input.Department != nil {
			add("department", nullIfEmpty(*input.Department))
		}
		args = append(args, userID)
		query := fmt.Sprintf("UPDATE employees SET %s WHERE user_id = $%d", strings.Join(set, ", "), len(args))
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM users WHERE id = $1", userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) UpdateProfile(ctx context.Context, userID string, firstName, lastName, phoneNumber *string) error {
	input := UpdateUserInput{FirstName: firstName, LastName: lastName, PhoneNumber: phoneNumber}
	if !hasProfileFields(input) {
		return nil
	}
	return s.UpdateUser(ctx, userID, input)
}

func (s *Store) userExists(ctx context.Context, userID string) (bool, error) {
	var count int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE id = $1", userID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func hasProfileFields(input UpdateUserInput) bool {
	return input.FirstName != nil || input.LastName != nil || input.PhoneNumber != nil ||
		input.DateOfBirth != nil || input.Position != nil || input.Department != nil
}

func applyOptional(emp *Employee, phone, position, department *string) {
	if phone != nil {
		emp.PhoneNumber = *phone
	}
	if position != nil {
		emp.Position = *position
	}
	if department != nil {
		emp.Department = *department
	}
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
