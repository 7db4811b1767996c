package repository

import (
	"context"
	"database/sql"
)

// Store bundles the per-table repos behind the narrow surface the session
// core consumes (session.Gateway).
type Store struct {
	Users   *UserRepo
	Stories *StoryRepo
	Pages   *PageRepo
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		Users:   NewUserRepo(db),
		Stories: NewStoryRepo(db),
		Pages:   NewPageRepo(db),
	}
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	return s.Users.List(ctx)
}

func (s *Store) ListStoriesByUser(ctx context.Context, userID string) ([]Story, error) {
	return s.Stories.ListByUser(ctx, userID)
}

func (s *Store) ListPagesByStory(ctx context.Context, storyID string) ([]Page, error) {
	return s.Pages.ListByStory(ctx, storyID)
}

func (s *Store) CreateStory(ctx context.Context, story Story) error {
	return s.Stories.Create(ctx, story)
}

func (s *Store) CreatePage(ctx context.Context, page Page) error {
	return s.Pages.Create(ctx, page)
}

func (s *Store) NextPageNum(ctx context.Context, storyID string) (int64, error) {
	return s.Stories.NextPageNum(ctx, storyID)
}

func (s *Store) IncrementCurrentPage(ctx context.Context, storyID string) error {
	return s.Stories.IncrementCurrentPage(ctx, storyID)
}

func (s *Store) ReconcileCurrentPage(ctx context.Context, storyID string) error {
	return s.Stories.ReconcileCurrentPage(ctx, storyID)
}
