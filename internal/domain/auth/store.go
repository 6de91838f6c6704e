package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateUser      = errors.New("username or email already taken")
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

type AuthUser struct {
	ID           string
	Username     string
	Email        string
	Role         string
	PasswordHash string
}

// FindByLogin matches username or email; the source lowercases the
// identifier before comparing.
func (s *Store) FindByLogin(ctx context.Context, loginID string) (AuthUser, error) {
	normalized := strings.ToLower(strings.TrimSpace(loginID))
	var out AuthUser
	err := s.DB.QueryRow(ctx, `
    SELECT id, username, email, role, password_hash
    FROM users
    WHERE lower(username) = $1 OR lower(email) = $1
  `, normalized).Scan(&out.ID, &out.Username, &out.Email, &out.Role, &out.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return AuthUser{}, ErrInvalidCredentials
	}
	return out, err
}

func (s *Store) UsernameOrEmailTaken(ctx context.Context, username, email string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM users WHERE username = $1 OR email = $2
  `, username, email).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash, role string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (username, email, password_hash, role)
    VALUES ($1, $2, $3, $4)
    RETURNING id
  `, username, email, passwordHash, role).Scan(&id)
	return id, err
}
