package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// SeedDefaults ensures at least one user exists so a fresh database has
// something to select. It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte("user:demo")).String()
	now := Now()
	_, err := db.ExecContext(ctx, `
	INSERT INTO users(id, name, email, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?);
	`, id, "Demo User", "demo@example.com", now, now)
	return err
}
