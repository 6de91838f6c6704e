package auth

import (
	"context"
	"time"
)

type Service struct {
	Store    *Store
	Secret   string
	TokenTTL time.Duration
}

func NewService(store *Store, secret string, ttl time.Duration) *Service {
	return &Service{Store: store, Secret: secret, TokenTTL: ttl}
}

type LoginResult struct {
	Token    string
	UserID   string
	Username string
	Email    string
	Role     string
}

func (s *Service) Login(ctx context.Context, loginID, password string) (LoginResult, error) {
	user, err := s.Store.FindByLogin(ctx, loginID)
	if err != nil {
		return LoginResult{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := GenerateToken(s.Secret, Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, s.TokenTTL)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, nil
}

func (s *Service) Register(ctx context.Context, username, email, password, role string) (string, error) {
	if role == "" {
		role = RoleEmployee
	}

	taken, err := s.Store.UsernameOrEmailTaken(ctx, username, email)
	if err != nil {
		return "", err
	}
	if taken {
		return "", ErrDuplicateUser
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}
	return s.Store.CreateUser(ctx, username, email, hash, role)
}
