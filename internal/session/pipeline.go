package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kbrakke/illustrated-primer/internal/ai"
	"github.com/kbrakke/illustrated-primer/internal/database/repository"
)

// Send precondition violations. These leave the session untouched apart
// from the status line the caller chooses to set.
var (
	ErrGenerationInFlight = errors.New("a generation is already in flight")
	ErrNotChatMode        = errors.New("not in chat mode")
	ErrEmptyInput         = errors.New("input buffer is empty")
	ErrNoStorySelected    = errors.New("no story selected")
)

// FailKind classifies how a send failed after it was accepted.
type FailKind int

const (
	FailUpstream  FailKind = iota // transport or protocol error before/during generation
	FailTruncated                 // stream ended without a clean completion signal
	FailCommit                    // page-number fetch, page insert, or counter bump failed
)

func (k FailKind) String() string {
	switch k {
	case FailUpstream:
		return "upstream"
	case FailTruncated:
		return "truncated"
	case FailCommit:
		return "commit"
	}
	return "unknown"
}

// SendError wraps a post-accept pipeline failure with its taxonomy kind.
type SendError struct {
	Kind FailKind
	Err  error
}

func (e *SendError) Error() string { return fmt.Sprintf("send (%s): %v", e.Kind, e.Err) }
func (e *SendError) Unwrap() error { return e.Err }

// SendRequest is the snapshot Begin takes of everything Run needs. Run never
// touches the session, so the request must be self-contained.
type SendRequest struct {
	StoryID string
	Prompt  string
	History []string
}

// Pipeline coordinates one message send: context build, completion call,
// durable commit, then the in-memory update. Exactly one send may be in
// flight per session; the flag is set by Begin and cleared by Resolve.
type Pipeline struct {
	Gateway   Gateway
	AI        ai.Client
	Streaming bool
	Logger    *slog.Logger
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Begin validates the preconditions and performs the only mutation visible
// until the pipeline resolves: the in-flight flag goes up, the input buffer
// is snapshotted and cleared, and the status line shows progress.
func (p *Pipeline) Begin(s *Session) (SendRequest, error) {
	if s.GenerationInFlight {
		return SendRequest{}, ErrGenerationInFlight
	}
	if s.Mode != ModeChat {
		return SendRequest{}, ErrNotChatMode
	}
	if strings.TrimSpace(s.InputBuffer) == "" {
		return SendRequest{}, ErrEmptyInput
	}
	if s.CurrentStory == nil {
		return SendRequest{}, ErrNoStorySelected
	}

	req := SendRequest{
		StoryID: s.CurrentStory.ID,
		Prompt:  s.InputBuffer,
		History: append([]string(nil), s.History...),
	}
	s.GenerationInFlight = true
	s.InputBuffer = ""
	s.StatusMessage = "Thinking..."
	return req, nil
}

// Run executes the accepted send: completion call, then page-number claim,
// page insert, and counter bump in strict order, with no step skipped on
// partial success. It never mutates the session and is safe to call from a
// background task. onFragment, when non-nil, observes fragments as they
// arrive (streaming variant only).
func (p *Pipeline) Run(ctx context.Context, req SendRequest, onFragment func(string)) (repository.Page, error) {
	text, err := p.complete(ctx, req, onFragment)
	if err != nil {
		return repository.Page{}, err
	}

	pageNum, err := p.Gateway.NextPageNum(ctx, req.StoryID)
	if err != nil {
		return repository.Page{}, &SendError{Kind: FailCommit, Err: fmt.Errorf("next page num: %w", err)}
	}

	page := repository.NewPage(req.StoryID, pageNum, req.Prompt, text)
	if err := p.Gateway.CreatePage(ctx, page); err != nil {
		// counter must not move when the insert failed
		return repository.Page{}, &SendError{Kind: FailCommit, Err: fmt.Errorf("create page: %w", err)}
	}

	if err := p.Gateway.IncrementCurrentPage(ctx, req.StoryID); err != nil {
		// page row exists; the counter is behind by one and will be
		// reconciled on the next story load
		return repository.Page{}, &SendError{Kind: FailCommit, Err: fmt.Errorf("increment current page: %w", err)}
	}

	p.logger().Info("page committed", "story_id", req.StoryID, "page_num", pageNum)
	return page, nil
}

// complete invokes the configured completion variant and classifies
// failures. A truncated stream is never returned as text.
func (p *Pipeline) complete(ctx context.Context, req SendRequest, onFragment func(string)) (string, error) {
	if !p.Streaming {
		text, err := p.AI.Complete(ctx, req.Prompt, req.History)
		if err != nil {
			return "", &SendError{Kind: FailUpstream, Err: err}
		}
		return text, nil
	}

	stream, err := p.AI.CompleteStream(ctx, req.Prompt, req.History)
	if err != nil {
		return "", &SendError{Kind: FailUpstream, Err: err}
	}

	var sb strings.Builder
	for fragment := range stream.Fragments() {
		sb.WriteString(fragment)
		if onFragment != nil {
			onFragment(fragment)
		}
	}
	if err := stream.Err(); err != nil {
		kind := FailUpstream
		if errors.Is(err, ai.ErrTruncated) {
			kind = FailTruncated
		}
		return "", &SendError{Kind: kind, Err: err}
	}
	return sb.String(), nil
}

// Resolve applies the outcome of Run to the session. On success the new turn
// is appended to the in-memory history and the story counter mirrors the
// committed page number. On any failure the input buffer is restored to the
// user's original text, the history is left untouched, and the status line
// names the failure kind. Either way the in-flight flag drops.
func (p *Pipeline) Resolve(s *Session, req SendRequest, page repository.Page, err error) {
	s.GenerationInFlight = false

	if err != nil {
		s.InputBuffer = req.Prompt
		var se *SendError
		if errors.As(err, &se) {
			switch se.Kind {
			case FailTruncated:
				s.StatusMessage = "Response was cut off - try again"
			case FailCommit:
				s.StatusMessage = fmt.Sprintf("Failed to save page: %v", se.Err)
			default:
				s.StatusMessage = fmt.Sprintf("AI error: %v", se.Err)
			}
		} else {
			s.StatusMessage = fmt.Sprintf("Error: %v", err)
		}
		p.logger().Error("send failed", "story_id", req.StoryID, "error", err)
		return
	}

	s.Pages = append(s.Pages, page)
	s.History = append(s.History, page.Prompt, page.Completion)
	if s.CurrentStory != nil && s.CurrentStory.ID == page.StoryID {
		s.CurrentStory.CurrentPage = page.PageNum
	}
	for i := range s.Stories {
		if s.Stories[i].ID == page.StoryID {
			s.Stories[i].CurrentPage = page.PageNum
		}
	}
	s.StatusMessage = "Response received"
}
