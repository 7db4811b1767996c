package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kbrakke/illustrated-primer/internal/database"
)

// ErrStoryNotFound is returned when a story row does not exist.
var ErrStoryNotFound = errors.New("story not found")

// StoryRepo handles stories, including page-number allocation and the
// committed-page counter.
type StoryRepo struct {
	db *sql.DB
}

func NewStoryRepo(db *sql.DB) *StoryRepo { return &StoryRepo{db: db} }

func (r *StoryRepo) Create(ctx context.Context, s Story) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO stories(id, user_id, title, summary, current_page, page_seq, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?);
	`, s.ID, s.UserID, s.Title, s.Summary, s.CurrentPage, s.PageSeq, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert story: %w", err)
	}
	return nil
}

func (r *StoryRepo) Get(ctx context.Context, id string) (Story, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, user_id, title, summary, current_page, page_seq, created_at, updated_at
	FROM stories WHERE id = ?`, id)
	return scanStory(row)
}

func (r *StoryRepo) ListByUser(ctx context.Context, userID string) ([]Story, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, user_id, title, summary, current_page, page_seq, created_at, updated_at
	FROM stories WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	defer rows.Close()

	var stories []Story
	for rows.Next() {
		var s Story
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Summary, &s.CurrentPage, &s.PageSeq, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}

func (r *StoryRepo) Update(ctx context.Context, s Story) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE stories SET title = ?, summary = ?, updated_at = ?
	WHERE id = ?`, s.Title, s.Summary, database.Now(), s.ID)
	if err != nil {
		return fmt.Errorf("update story: %w", err)
	}
	return checkAffected(res, ErrStoryNotFound)
}

func (r *StoryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete story: %w", err)
	}
	return checkAffected(res, ErrStoryNotFound)
}

// NextPageNum claims the next page number for a story. The claim is recorded
// in one transaction so two sessions writing the same story can never be
// handed the same number; when no claim was abandoned the result is exactly
// one greater than the highest committed page_num.
func (r *StoryRepo) NextPageNum(ctx context.Context, storyID string) (int64, error) {
	var n int64
	err := database.WithTx(r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
		UPDATE stories
		SET page_seq = MAX(page_seq, (SELECT COALESCE(MAX(page_num), 0) FROM pages WHERE story_id = stories.id)) + 1,
		    updated_at = ?
		WHERE id = ?`, database.Now(), storyID)
		if err != nil {
			return fmt.Errorf("claim page num: %w", err)
		}
		if err := checkAffected(res, ErrStoryNotFound); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, `SELECT page_seq FROM stories WHERE id = ?`, storyID).Scan(&n)
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// IncrementCurrentPage bumps the committed-page counter. Callers must only
// invoke this after the page insert succeeded.
func (r *StoryRepo) IncrementCurrentPage(ctx context.Context, storyID string) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE stories SET current_page = current_page + 1, updated_at = ?
	WHERE id = ?`, database.Now(), storyID)
	if err != nil {
		return fmt.Errorf("increment current page: %w", err)
	}
	return checkAffected(res, ErrStoryNotFound)
}

// PageCount returns the number of committed pages for a story.
func (r *StoryRepo) PageCount(ctx context.Context, storyID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages WHERE story_id = ?`, storyID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return count, nil
}

// ReconcileCurrentPage resets current_page to the committed page count when
// the two disagree. A crash between a page insert and the counter bump leaves
// the counter behind by one; the page rows are the source of truth.
func (r *StoryRepo) ReconcileCurrentPage(ctx context.Context, storyID string) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE stories
	SET current_page = (SELECT COUNT(*) FROM pages WHERE story_id = stories.id),
	    updated_at = ?
	WHERE id = ?
	  AND current_page <> (SELECT COUNT(*) FROM pages WHERE story_id = stories.id)`,
		database.Now(), storyID)
	if err != nil {
		return fmt.Errorf("reconcile current page: %w", err)
	}
	// zero rows means the counter already matched; not an error
	_ = res
	return nil
}

func scanStory(row *sql.Row) (Story, error) {
	var s Story
	err := row.Scan(&s.ID, &s.UserID, &s.Title, &s.Summary, &s.CurrentPage, &s.PageSeq, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Story{}, ErrStoryNotFound
	}
	if err != nil {
		return Story{}, fmt.Errorf("scan story: %w", err)
	}
	return s, nil
}
