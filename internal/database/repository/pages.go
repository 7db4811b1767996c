package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kbrakke/illustrated-primer/internal/database"
)

// ErrPageNotFound is returned when a page row does not exist.
var ErrPageNotFound = errors.New("page not found")

// PageRepo handles pages.
type PageRepo struct {
	db *sql.DB
}

func NewPageRepo(db *sql.DB) *PageRepo { return &PageRepo{db: db} }

func (r *PageRepo) Create(ctx context.Context, p Page) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO pages(id, story_id, page_num, prompt, completion, summary, image_path, audio_path, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`, p.ID, p.StoryID, p.PageNum, p.Prompt, p.Completion, p.Summary, p.ImagePath, p.AudioPath, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	return nil
}

func (r *PageRepo) Get(ctx context.Context, id string) (Page, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, story_id, page_num, prompt, completion, summary, image_path, audio_path, created_at, updated_at
	FROM pages WHERE id = ?`, id)
	return scanPage(row)
}

func (r *PageRepo) GetByStoryAndNum(ctx context.Context, storyID string, pageNum int64) (Page, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, story_id, page_num, prompt, completion, summary, image_path, audio_path, created_at, updated_at
	FROM pages WHERE story_id = ? AND page_num = ?`, storyID, pageNum)
	return scanPage(row)
}

// ListByStory returns all pages of a story in page-number order. This order
// is what the conversation context is rebuilt from, so it must match the
// order pages were committed in.
func (r *PageRepo) ListByStory(ctx context.Context, storyID string) ([]Page, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, story_id, page_num, prompt, completion, summary, image_path, audio_path, created_at, updated_at
	FROM pages WHERE story_id = ? ORDER BY page_num ASC`, storyID)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.ID, &p.StoryID, &p.PageNum, &p.Prompt, &p.Completion, &p.Summary, &p.ImagePath, &p.AudioPath, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Update rewrites the backfillable fields (summary, media paths). Prompt and
// completion are immutable once recorded.
func (r *PageRepo) Update(ctx context.Context, p Page) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE pages SET summary = ?, image_path = ?, audio_path = ?, updated_at = ?
	WHERE id = ?`, p.Summary, p.ImagePath, p.AudioPath, database.Now(), p.ID)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	return checkAffected(res, ErrPageNotFound)
}

func (r *PageRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return checkAffected(res, ErrPageNotFound)
}

func scanPage(row *sql.Row) (Page, error) {
	var p Page
	err := row.Scan(&p.ID, &p.StoryID, &p.PageNum, &p.Prompt, &p.Completion, &p.Summary, &p.ImagePath, &p.AudioPath, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Page{}, ErrPageNotFound
	}
	if err != nil {
		return Page{}, fmt.Errorf("scan page: %w", err)
	}
	return p, nil
}
