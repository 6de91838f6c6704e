package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"peopleops/internal/domain/auth"
	"peopleops/internal/platform/config"
)

// Seed provisions the initial admin account when none exists.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedAdminEmail == "" || cfg.SeedAdminPassword == "" {
		return nil
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE role = $1", auth.RoleAdmin).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.SeedAdminPassword)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
    INSERT INTO users (username, email, password_hash, role)
    VALUES ($1, $2, $3, $4)
    ON CONFLICT (email) DO NOTHING
  `, cfg.SeedAdminUsername, cfg.SeedAdminEmail, hash, auth.RoleAdmin)
	return err
}
