package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, RunMigrationsWithDB(db, "migrations"))
	return db
}

func TestRunMigrationsIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, RunMigrations(dbPath, "migrations"))
	require.NoError(t, RunMigrations(dbPath, "migrations"), "no pending change is not an error")

	db, err := Open(dbPath)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"users", "stories", "pages"} {
		var count int
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&count))
		require.Zero(t, count)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	t.Parallel()

	db := openMigrated(t)
	_, err := db.Exec(`
	INSERT INTO stories(id, user_id, title, created_at, updated_at)
	VALUES('s1', 'no-such-user', 'T', 0, 0)`)
	require.Error(t, err)
}

func TestSeedDefaults(t *testing.T) {
	t.Parallel()

	db := openMigrated(t)
	ctx := context.Background()

	require.NoError(t, SeedDefaults(ctx, db))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count))
	require.Equal(t, 1, count)

	var firstID string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT id FROM users`).Scan(&firstID))

	// second run must not add another user or change the existing one
	require.NoError(t, SeedDefaults(ctx, db))
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count))
	require.Equal(t, 1, count)

	var secondID string
	require.NoError(t, db.QueryRowContext(ctx, `SELECT id FROM users`).Scan(&secondID))
	require.Equal(t, firstID, secondID)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	db := openMigrated(t)
	boom := errors.New("boom")

	err := WithTx(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
		INSERT INTO users(id, name, email, created_at, updated_at)
		VALUES('u1', 'N', 'n@example.com', 0, 0)`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count))
	require.Zero(t, count, "failed transaction leaves no rows behind")
}
