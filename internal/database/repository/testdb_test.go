package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kbrakke/illustrated-primer/internal/database"
)

// openTestDB opens a migrated throwaway database under t.TempDir.
func openTestDB(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.RunMigrationsWithDB(db, "../migrations"))
	return NewStore(db)
}

// seedStory creates a user and an empty story to hang pages off.
func seedStory(t *testing.T, store *Store) (User, Story) {
	t.Helper()
	ctx := context.Background()

	user := NewUser("Nell", "nell@example.com")
	require.NoError(t, store.Users.Create(ctx, user))

	story := NewStory(user.ID, "The Land Beyond", "")
	require.NoError(t, store.Stories.Create(ctx, story))
	return user, story
}
