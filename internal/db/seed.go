package db

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ratewise/store-ratings/internal/auth"
)

// SeedAdmin creates the default admin account if no user with the
// configured email exists yet. The app assumes at least one admin is
// present; the last-admin delete guard keeps it that way afterwards.
func SeedAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	var exists bool
	if err := pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`, email).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = pool.Exec(ctx,
		`INSERT INTO users(id, name, email, password_hash, role) VALUES($1,$2,$3,$4,'admin')
		 ON CONFLICT (email) DO NOTHING`,
		uuid.NewString(), "System Admin", email, hash,
	)
	if err == nil {
		slog.Info("default admin seeded", "email", email)
	}
	return err
}
