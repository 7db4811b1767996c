package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoryCRUD(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)
	ctx := context.Background()

	user, story := seedStory(t, store)

	got, err := store.Stories.Get(ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.UserID)
	require.Zero(t, got.CurrentPage, "a fresh story has no committed pages")
	require.Zero(t, got.PageSeq)

	got.Title = "The Land Beyond, Part II"
	got.Summary = "a sequel"
	require.NoError(t, store.Stories.Update(ctx, got))
	got, err = store.Stories.Get(ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, "The Land Beyond, Part II", got.Title)
	require.Equal(t, "a sequel", got.Summary)

	require.NoError(t, store.Stories.Delete(ctx, story.ID))
	_, err = store.Stories.Get(ctx, story.ID)
	require.ErrorIs(t, err, ErrStoryNotFound)
}

func TestListStoriesScopedToUser(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)
	ctx := context.Background()

	userA, _ := seedStory(t, store)
	userB := NewUser("Fiona", "fiona@example.com")
	require.NoError(t, store.Users.Create(ctx, userB))
	require.NoError(t, store.CreateStory(ctx, NewStory(userB.ID, "Other Tale", "")))

	stories, err := store.ListStoriesByUser(ctx, userA.ID)
	require.NoError(t, err)
	require.Len(t, stories, 1)
	require.Equal(t, userA.ID, stories[0].UserID)
}

func TestNextPageNumSequence(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)
	ctx := context.Background()

	_, story := seedStory(t, store)

	for want := int64(1); want <= 3; want++ {
		n, err := store.NextPageNum(ctx, story.ID)
		require.NoError(t, err)
		require.Equal(t, want, n)
		require.NoError(t, store.CreatePage(ctx, NewPage(story.ID, n, "p", "c")))
		require.NoError(t, store.IncrementCurrentPage(ctx, story.ID))
	}

	got, err := store.Stories.Get(ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), got.CurrentPage)
	require.Equal(t, got.CurrentPage, got.PageSeq, "uninterrupted flow keeps counter and allocator in step")

	count, err := store.Stories.PageCount(ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, got.CurrentPage, count)
}

func TestNextPageNumNeverRepeats(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)
	ctx := context.Background()

	_, story := seedStory(t, store)

	// a claim that was never committed must not be handed out again
	first, err := store.NextPageNum(ctx, story.ID)
	require.NoError(t, err)
	second, err := store.NextPageNum(ctx, story.ID)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	require.Equal(t, first+1, second)

	// commit only the second claim; the next claim still moves forward
	require.NoError(t, store.CreatePage(ctx, NewPage(story.ID, second, "p", "c")))
	third, err := store.NextPageNum(ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, second+1, third)
}

func TestNextPageNumCatchesUpToCommittedPages(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)
	ctx := context.Background()

	_, story := seedStory(t, store)

	// a page committed with a number the allocator never handed out, as an
	// older build would have written it
	require.NoError(t, store.CreatePage(ctx, NewPage(story.ID, 5, "p", "c")))

	n, err := store.NextPageNum(ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, int64(6), n, "allocator must clear the highest committed page")
}

func TestNextPageNumMissingStory(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)

	_, err := store.NextPageNum(context.Background(), "missing")
	require.ErrorIs(t, err, ErrStoryNotFound)
}

func TestReconcileCurrentPage(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)
	ctx := context.Background()

	_, story := seedStory(t, store)

	// page committed but the counter bump was lost
	n, err := store.NextPageNum(ctx, story.ID)
	require.NoError(t, err)
	require.NoError(t, store.CreatePage(ctx, NewPage(story.ID, n, "p", "c")))

	got, err := store.Stories.Get(ctx, story.ID)
	require.NoError(t, err)
	require.Zero(t, got.CurrentPage)

	require.NoError(t, store.ReconcileCurrentPage(ctx, story.ID))
	got, err = store.Stories.Get(ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.CurrentPage)

	// already consistent: a second pass changes nothing
	require.NoError(t, store.ReconcileCurrentPage(ctx, story.ID))
	again, err := store.Stories.Get(ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, got.CurrentPage, again.CurrentPage)
}

func TestDeleteUserCascadesToStories(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)
	ctx := context.Background()

	user, story := seedStory(t, store)
	require.NoError(t, store.CreatePage(ctx, NewPage(story.ID, 1, "p", "c")))

	require.NoError(t, store.Users.Delete(ctx, user.ID))
	_, err := store.Stories.Get(ctx, story.ID)
	require.ErrorIs(t, err, ErrStoryNotFound)

	pages, err := store.ListPagesByStory(ctx, story.ID)
	require.NoError(t, err)
	require.Empty(t, pages)
}

func TestPageCountDisplay(t *testing.T) {
	t.Parallel()

	require.Equal(t, "0 pages", Story{}.PageCountDisplay())
	require.Equal(t, "1 page", Story{CurrentPage: 1}.PageCountDisplay())
	require.Equal(t, "7 pages", Story{CurrentPage: 7}.PageCountDisplay())
}
