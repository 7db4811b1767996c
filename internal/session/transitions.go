package session

import (
	"github.com/kbrakke/illustrated-primer/internal/database/repository"
)

// LoadKind names the data a pending transition needs before it can complete.
type LoadKind int

const (
	LoadNone LoadKind = iota
	LoadUsers
	LoadStories
	LoadPages
)

// LoadRequest is emitted by a transition that cannot complete until fresh
// data has been fetched. The orchestrator satisfies it against the gateway
// and then applies the matching Enter method; if the load fails the session
// is left in its prior mode with only the status line changed.
type LoadRequest struct {
	Kind    LoadKind
	UserID  string
	StoryID string
}

// CurrentListLen returns the length of the list the cursor moves over.
func (s *Session) CurrentListLen() int {
	switch s.Mode {
	case ModeUserSelect:
		return len(s.Users)
	case ModeStoryList:
		return len(s.Stories)
	case ModeStoryView:
		return len(s.Pages)
	}
	return 0
}

// MoveUp moves the selection cursor towards the top of the list.
func (s *Session) MoveUp() {
	s.SelectedIndex--
	s.clampCursor()
}

// MoveDown moves the selection cursor towards the bottom of the list.
func (s *Session) MoveDown() {
	s.SelectedIndex++
	s.clampCursor()
}

// clampCursor keeps the cursor inside [0, len-1] in both directions.
func (s *Session) clampCursor() {
	if max := s.CurrentListLen() - 1; s.SelectedIndex > max {
		s.SelectedIndex = max
	}
	if s.SelectedIndex < 0 {
		s.SelectedIndex = 0
	}
}

// Select acts on the cursor in the current mode. When the target mode needs
// fresh data the mode is not changed yet; the returned LoadRequest tells the
// orchestrator what to fetch before calling the matching Enter method.
// StoryView needs nothing new, so its transition to Chat applies directly.
func (s *Session) Select() LoadRequest {
	switch s.Mode {
	case ModeUserSelect:
		if len(s.Users) == 0 || s.SelectedIndex >= len(s.Users) {
			return LoadRequest{}
		}
		return LoadRequest{Kind: LoadStories, UserID: s.Users[s.SelectedIndex].ID}
	case ModeStoryList:
		if len(s.Stories) == 0 || s.SelectedIndex >= len(s.Stories) {
			return LoadRequest{}
		}
		return LoadRequest{Kind: LoadPages, StoryID: s.Stories[s.SelectedIndex].ID}
	case ModeStoryView:
		s.EnterChat()
	}
	return LoadRequest{}
}

// Back pops one navigation level. Returning to a list mode requires a fresh
// load of that mode's list, so the mode change is deferred behind the
// returned LoadRequest just like Select. The boolean is false when the
// session is over (cancel at the root screen).
func (s *Session) Back() (LoadRequest, bool) {
	switch s.Mode {
	case ModeUserSelect:
		return LoadRequest{}, false
	case ModeStoryList:
		return LoadRequest{Kind: LoadUsers}, true
	case ModeStoryView:
		if s.CurrentUser == nil {
			return LoadRequest{Kind: LoadUsers}, true
		}
		return LoadRequest{Kind: LoadStories, UserID: s.CurrentUser.ID}, true
	case ModeChat:
		if s.InputBuffer != "" {
			s.InputBuffer = ""
			return LoadRequest{}, true
		}
		s.Mode = ModeStoryView
		s.SelectedIndex = 0
		s.clampCursor()
	}
	return LoadRequest{}, true
}

// EnterUsers completes a transition into user selection. Everything below
// the user level in the hierarchy is cleared.
func (s *Session) EnterUsers(users []repository.User) {
	s.Mode = ModeUserSelect
	s.Users = users
	s.CurrentUser = nil
	s.CurrentStory = nil
	s.Stories = nil
	s.Pages = nil
	s.History = nil
	s.SelectedIndex = 0
}

// EnterStories completes a transition into the story list for user.
func (s *Session) EnterStories(user repository.User, stories []repository.Story) {
	s.Mode = ModeStoryList
	s.CurrentUser = &user
	s.Stories = stories
	s.CurrentStory = nil
	s.Pages = nil
	s.History = nil
	s.SelectedIndex = 0
}

// EnterStoryView completes a transition into the page view for story. The
// conversation history is rebuilt from the loaded pages in page order.
func (s *Session) EnterStoryView(story repository.Story, pages []repository.Page) {
	s.Mode = ModeStoryView
	s.CurrentStory = &story
	s.Pages = pages
	s.History = flattenPages(pages)
	s.SelectedIndex = 0
}

// EnterChat switches from the page view to chat on the same story. No load
// is needed; the pages snapshot is shared between the two modes.
func (s *Session) EnterChat() {
	s.Mode = ModeChat
	s.InputBuffer = ""
	s.SelectedIndex = 0
}

// StoryCreated applies a freshly persisted story: it is placed at the top of
// the list, selected, and the session jumps straight to chat with an empty
// history.
func (s *Session) StoryCreated(story repository.Story) {
	s.Stories = append([]repository.Story{story}, s.Stories...)
	s.CurrentStory = &story
	s.Pages = nil
	s.History = nil
	s.Mode = ModeChat
	s.InputBuffer = ""
	s.SelectedIndex = 0
	s.StatusMessage = "New story created. Start chatting!"
}
