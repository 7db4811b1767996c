package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageCRUD(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)
	ctx := context.Background()

	_, story := seedStory(t, store)

	p := NewPage(story.ID, 1, "what lies beyond the hills?", "a valley of glass")
	require.NoError(t, store.Pages.Create(ctx, p))

	got, err := store.Pages.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.Prompt, got.Prompt)
	require.Equal(t, p.Completion, got.Completion)
	require.Nil(t, got.ImagePath)

	byNum, err := store.Pages.GetByStoryAndNum(ctx, story.ID, 1)
	require.NoError(t, err)
	require.Equal(t, p.ID, byNum.ID)

	image := "pages/p1.png"
	got.Summary = "the valley is introduced"
	got.ImagePath = &image
	require.NoError(t, store.Pages.Update(ctx, got))
	got, err = store.Pages.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "the valley is introduced", got.Summary)
	require.Equal(t, image, *got.ImagePath)

	require.NoError(t, store.Pages.Delete(ctx, p.ID))
	_, err = store.Pages.Get(ctx, p.ID)
	require.ErrorIs(t, err, ErrPageNotFound)
}

func TestPageUpdateKeepsPromptAndCompletion(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)
	ctx := context.Background()

	_, story := seedStory(t, store)
	p := NewPage(story.ID, 1, "original prompt", "original completion")
	require.NoError(t, store.Pages.Create(ctx, p))

	p.Prompt = "tampered"
	p.Completion = "tampered"
	p.Summary = "summary"
	require.NoError(t, store.Pages.Update(ctx, p))

	got, err := store.Pages.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "original prompt", got.Prompt)
	require.Equal(t, "original completion", got.Completion)
	require.Equal(t, "summary", got.Summary)
}

func TestListPagesInPageOrder(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)
	ctx := context.Background()

	_, story := seedStory(t, store)

	// insert out of order; read-back must be page order
	for _, num := range []int64{2, 3, 1} {
		require.NoError(t, store.CreatePage(ctx, NewPage(story.ID, num, "p", "c")))
	}

	pages, err := store.ListPagesByStory(ctx, story.ID)
	require.NoError(t, err)
	require.Len(t, pages, 3)
	for i, p := range pages {
		require.Equal(t, int64(i+1), p.PageNum)
	}
}

func TestDuplicatePageNumRejected(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)
	ctx := context.Background()

	_, story := seedStory(t, store)
	require.NoError(t, store.CreatePage(ctx, NewPage(story.ID, 1, "p", "c")))
	require.Error(t, store.CreatePage(ctx, NewPage(story.ID, 1, "p2", "c2")))
}

func TestPageRequiresStory(t *testing.T) {
	t.Parallel()
	store := openTestDB(t)

	err := store.CreatePage(context.Background(), NewPage("missing-story", 1, "p", "c"))
	require.Error(t, err, "foreign key must reject orphan pages")
}
