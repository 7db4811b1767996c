package repository

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kbrakke/illustrated-primer/internal/database"
)

// User represents a user row.
type User struct {
	ID            string
	Name          *string
	Email         *string
	EmailVerified *int64
	Image         *string
	CreatedAt     int64
	UpdatedAt     int64
}

// NewUser returns a user with a fresh id and timestamps.
func NewUser(name, email string) User {
	now := database.Now()
	return User{
		ID:        uuid.NewString(),
		Name:      &name,
		Email:     &email,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DisplayName falls back to email, then id, when no name is set.
func (u User) DisplayName() string {
	if u.Name != nil && *u.Name != "" {
		return *u.Name
	}
	if u.Email != nil && *u.Email != "" {
		return *u.Email
	}
	return u.ID
}

// Story represents a story row. CurrentPage counts committed pages, so after
// a successful send it equals the newest page's PageNum. PageSeq is the
// page-number allocator and only ever moves forward.
type Story struct {
	ID          string
	UserID      string
	Title       string
	Summary     string
	CurrentPage int64
	PageSeq     int64
	CreatedAt   int64
	UpdatedAt   int64
}

// NewStory returns a story with a fresh id and no committed pages.
func NewStory(userID, title, summary string) Story {
	now := database.Now()
	return Story{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Summary:   summary,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// PageCountDisplay renders the committed page count for list views.
func (s Story) PageCountDisplay() string {
	if s.CurrentPage == 1 {
		return "1 page"
	}
	return fmt.Sprintf("%d pages", s.CurrentPage)
}

// Page represents one prompt/completion turn of a story. Prompt and
// Completion are immutable once recorded; Summary and the media paths may be
// backfilled later.
type Page struct {
	ID         string
	StoryID    string
	PageNum    int64
	Prompt     string
	Completion string
	Summary    string
	ImagePath  *string
	AudioPath  *string
	CreatedAt  int64
	UpdatedAt  int64
}

// NewPage returns a page with a fresh id and timestamps.
func NewPage(storyID string, pageNum int64, prompt, completion string) Page {
	now := database.Now()
	return Page{
		ID:         uuid.NewString(),
		StoryID:    storyID,
		PageNum:    pageNum,
		Prompt:     prompt,
		Completion: completion,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
