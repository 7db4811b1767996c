package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUserCRUD(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)
	ctx := context.Background()

	u := NewUser("Nell", "nell@example.com")
	require.NoError(t, store.Users.Create(ctx, u))

	got, err := store.Users.Get(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Nell", got.DisplayName())
	require.Equal(t, u.CreatedAt, got.CreatedAt)

	byEmail, err := store.Users.GetByEmail(ctx, "nell@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	name := "Nell Revised"
	got.Name = &name
	require.NoError(t, store.Users.Update(ctx, got))
	got, err = store.Users.Get(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Nell Revised", got.DisplayName())

	require.NoError(t, store.Users.Delete(ctx, u.ID))
	_, err = store.Users.Get(ctx, u.ID)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserNotFound(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)
	ctx := context.Background()

	_, err := store.Users.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrUserNotFound)

	require.ErrorIs(t, store.Users.Delete(ctx, "missing"), ErrUserNotFound)
	require.ErrorIs(t, store.Users.Update(ctx, User{ID: "missing"}), ErrUserNotFound)
}

func TestUserEmailUnique(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, store.Users.Create(ctx, NewUser("A", "same@example.com")))
	require.Error(t, store.Users.Create(ctx, NewUser("B", "same@example.com")))
}

func TestListUsersNewestFirst(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)
	ctx := context.Background()

	older := NewUser("Older", "older@example.com")
	older.CreatedAt -= int64(time.Hour / time.Second)
	require.NoError(t, store.Users.Create(ctx, older))
	newer := NewUser("Newer", "newer@example.com")
	require.NoError(t, store.Users.Create(ctx, newer))

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, newer.ID, users[0].ID)
	require.Equal(t, older.ID, users[1].ID)
}

func TestDisplayNameFallbacks(t *testing.T) {
	t.Parallel()

	email := "only@example.com"
	require.Equal(t, "only@example.com", User{ID: "u1", Email: &email}.DisplayName())
	require.Equal(t, "u1", User{ID: "u1"}.DisplayName())
}
