// Package session holds the orchestrator core: the navigation state machine
// and the message send pipeline. Everything here is free of I/O and of any
// terminal concern; loads and completion calls are performed by the caller
// against the Gateway and ai.Client it was handed, with the session mutated
// only at the points these types define.
package session

import (
	"context"

	"github.com/kbrakke/illustrated-primer/internal/database/repository"
)

// Mode is the active screen of the session. Exactly one mode is active at a
// time, ordered UserSelect → StoryList → StoryView → Chat.
type Mode int

const (
	ModeUserSelect Mode = iota
	ModeStoryList
	ModeStoryView
	ModeChat
)

func (m Mode) String() string {
	switch m {
	case ModeUserSelect:
		return "users"
	case ModeStoryList:
		return "stories"
	case ModeStoryView:
		return "story"
	case ModeChat:
		return "chat"
	}
	return "unknown"
}

// Gateway is the persistence surface the core consumes. Implemented by
// repository.Store; tests substitute fakes.
type Gateway interface {
	ListUsers(ctx context.Context) ([]repository.User, error)
	ListStoriesByUser(ctx context.Context, userID string) ([]repository.Story, error)
	ListPagesByStory(ctx context.Context, storyID string) ([]repository.Page, error)
	CreateStory(ctx context.Context, story repository.Story) error
	CreatePage(ctx context.Context, page repository.Page) error
	NextPageNum(ctx context.Context, storyID string) (int64, error)
	IncrementCurrentPage(ctx context.Context, storyID string) error
	ReconcileCurrentPage(ctx context.Context, storyID string) error
}

// Session is the in-memory state of one running conversation session. The
// loaded lists are snapshots taken on mode entry; they are stale the moment
// the mode is exited and are never trusted for anything the gateway can
// answer (page numbers in particular are always re-derived server-side).
type Session struct {
	Mode Mode

	Users   []repository.User
	Stories []repository.Story
	Pages   []repository.Page

	// History is Pages flattened as alternating prompt/completion strings
	// in page order. It is the exact context sent upstream.
	History []string

	CurrentUser  *repository.User
	CurrentStory *repository.Story

	SelectedIndex      int
	InputBuffer        string
	GenerationInFlight bool
	StatusMessage      string
}

// New returns a session at the user-selection screen.
func New() *Session {
	return &Session{
		Mode:          ModeUserSelect,
		StatusMessage: "Welcome to Illustrated Primer",
	}
}

// SetStatus records the most recent user-facing status line.
func (s *Session) SetStatus(msg string) {
	s.StatusMessage = msg
}

// Snapshot is the read-only view handed to the presentation layer. It is
// taken immediately before each render; presentation never mutates the
// session through it.
type Snapshot struct {
	Mode               Mode
	Users              []repository.User
	Stories            []repository.Story
	Pages              []repository.Page
	History            []string
	CurrentUser        *repository.User
	CurrentStory       *repository.Story
	SelectedIndex      int
	InputBuffer        string
	GenerationInFlight bool
	StatusMessage      string
}

// Snapshot returns the current render view.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Mode:               s.Mode,
		Users:              s.Users,
		Stories:            s.Stories,
		Pages:              s.Pages,
		History:            s.History,
		CurrentUser:        s.CurrentUser,
		CurrentStory:       s.CurrentStory,
		SelectedIndex:      s.SelectedIndex,
		InputBuffer:        s.InputBuffer,
		GenerationInFlight: s.GenerationInFlight,
		StatusMessage:      s.StatusMessage,
	}
}

// flattenPages rebuilds History from Pages in page order.
func flattenPages(pages []repository.Page) []string {
	history := make([]string, 0, len(pages)*2)
	for _, p := range pages {
		history = append(history, p.Prompt, p.Completion)
	}
	return history
}
