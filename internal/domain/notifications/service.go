package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("notification not found")

const (
	TypeInfo    = "info"
	TypeSuccess = "success"
	TypeWarning = "warning"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	LeaveID   string    `json:"leaveId,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	DB *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

type CreateInput struct {
	UserID  string
	Title   string
	Message string
	Type    string
	LeaveID string
}

func (s *Service) Create(ctx context.Context, input CreateInput) error {
	if input.Type == "" {
		input.Type = TypeInfo
	}
	var leaveID any
	if input.LeaveID != "" {
		leaveID = input.LeaveID
	}
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (user_id, title, message, type, leave_id)
    VALUES ($1, $2, $3, $4, $5)
  `, input.UserID, input.Title, input.Message, input.Type, leaveID)
	return err
}

// Broadcast creates the same notification for many users. Failures on
// individual inserts do not abort the rest.
func (s *Service) Broadcast(ctx context.Context, userIDs []string, input CreateInput) error {
	var firstErr error
	for _, userID := range userIDs {
		input.UserID = userID
		if err := s.Create(ctx, input); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Service) List(ctx context.Context, userID string) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, user_id, title, message, type, COALESCE(leave_id::text, ''), is_read, created_at
    FROM notifications
    WHERE user_id = $1
    ORDER BY created_at DESC
    LIMIT 100
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &n.LeaveID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM notifications WHERE user_id = $1 AND is_read = false
  `, userID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead flips one notification; the user scope prevents marking
// someone else's.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2
  `, notificationID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE notifications SET is_read = true WHERE user_id = $1 AND is_read = false
  `, userID)
	return err
}
