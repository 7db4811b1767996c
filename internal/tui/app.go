package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kbrakke/illustrated-primer/internal/ai"
	"github.com/kbrakke/illustrated-primer/internal/config"
	"github.com/kbrakke/illustrated-primer/internal/database/repository"
	"github.com/kbrakke/illustrated-primer/internal/session"
)

// App ties the session core to the terminal. All persistence and completion
// work happens inside tea.Cmd closures; Update applies their results to the
// session.
type App struct {
	ctx      context.Context
	cfg      config.Config
	sess     *session.Session
	gateway  session.Gateway
	pipeline *session.Pipeline
	logger   *slog.Logger

	input      textinput.Model
	titleInput textinput.Model
	spin       spinner.Model

	// newStory is the title-entry sub-state of the story list.
	newStory bool

	width  int
	height int
}

type usersMsg []repository.User

type storiesMsg struct {
	user    repository.User
	stories []repository.Story
}

type pagesMsg struct {
	story repository.Story
	pages []repository.Page
}

type storyCreatedMsg repository.Story

type sendDoneMsg struct {
	req  session.SendRequest
	page repository.Page
	err  error
}

type errMsg struct{ error }

func New(ctx context.Context, cfg config.Config, gateway session.Gateway, client ai.Client, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}

	input := textinput.New()
	input.Placeholder = "Say something to continue the story..."
	input.CharLimit = 2000
	input.Focus()

	titleInput := textinput.New()
	titleInput.Placeholder = "Story title"
	titleInput.CharLimit = 200

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))

	return &App{
		ctx:     ctx,
		cfg:     cfg,
		sess:    session.New(),
		gateway: gateway,
		pipeline: &session.Pipeline{
			Gateway:   gateway,
			AI:        client,
			Streaming: cfg.OpenAI.Stream,
			Logger:    logger,
		},
		logger:     logger,
		input:      input,
		titleInput: titleInput,
		spin:       spin,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, a.loadUsers())
}

// commands

func (a *App) loadUsers() tea.Cmd {
	return func() tea.Msg {
		users, err := a.gateway.ListUsers(a.ctx)
		if err != nil {
			return errMsg{err}
		}
		return usersMsg(users)
	}
}

func (a *App) loadStories(user repository.User) tea.Cmd {
	return func() tea.Msg {
		stories, err := a.gateway.ListStoriesByUser(a.ctx, user.ID)
		if err != nil {
			return errMsg{err}
		}
		return storiesMsg{user: user, stories: stories}
	}
}

func (a *App) loadPages(story repository.Story) tea.Cmd {
	return func() tea.Msg {
		// a crash between page insert and counter bump leaves the counter
		// behind; the page rows win
		if err := a.gateway.ReconcileCurrentPage(a.ctx, story.ID); err != nil {
			return errMsg{err}
		}
		pages, err := a.gateway.ListPagesByStory(a.ctx, story.ID)
		if err != nil {
			return errMsg{err}
		}
		story.CurrentPage = int64(len(pages))
		return pagesMsg{story: story, pages: pages}
	}
}

func (a *App) createStory(userID, title string) tea.Cmd {
	return func() tea.Msg {
		story := repository.NewStory(userID, title, "")
		if err := a.gateway.CreateStory(a.ctx, story); err != nil {
			return errMsg{err}
		}
		return storyCreatedMsg(story)
	}
}

func (a *App) sendCmd(req session.SendRequest) tea.Cmd {
	return func() tea.Msg {
		page, err := a.pipeline.Run(a.ctx, req, nil)
		return sendDoneMsg{req: req, page: page, err: err}
	}
}

// loadFor satisfies a deferred transition.
func (a *App) loadFor(req session.LoadRequest) tea.Cmd {
	switch req.Kind {
	case session.LoadUsers:
		return a.loadUsers()
	case session.LoadStories:
		for _, u := range a.sess.Users {
			if u.ID == req.UserID {
				return a.loadStories(u)
			}
		}
		if a.sess.CurrentUser != nil && a.sess.CurrentUser.ID == req.UserID {
			return a.loadStories(*a.sess.CurrentUser)
		}
		return a.loadUsers()
	case session.LoadPages:
		for _, s := range a.sess.Stories {
			if s.ID == req.StoryID {
				return a.loadPages(s)
			}
		}
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
		a.height = m.Height
		a.input.Width = max(20, m.Width-8)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(m)

	case spinner.TickMsg:
		if !a.sess.GenerationInFlight {
			return a, nil
		}
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(m)
		return a, cmd

	case usersMsg:
		a.sess.EnterUsers(m)
		return a, nil

	case storiesMsg:
		a.sess.EnterStories(m.user, m.stories)
		return a, nil

	case pagesMsg:
		a.sess.EnterStoryView(m.story, m.pages)
		return a, nil

	case storyCreatedMsg:
		a.newStory = false
		a.titleInput.Reset()
		a.sess.StoryCreated(repository.Story(m))
		a.input.Reset()
		a.input.Focus()
		return a, nil

	case sendDoneMsg:
		a.pipeline.Resolve(a.sess, m.req, m.page, m.err)
		a.input.SetValue(a.sess.InputBuffer)
		return a, nil

	case errMsg:
		a.sess.SetStatus("Error: " + m.Error())
		a.logger.Error("command failed", "error", m.error)
		return a, nil
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.String() == "ctrl+c" {
		return a, tea.Quit
	}
	if a.newStory {
		return a.handleNewStoryKey(m)
	}
	if a.sess.Mode == session.ModeChat {
		return a.handleChatKey(m)
	}

	switch m.String() {
	case "q":
		return a, tea.Quit
	case "up", "k":
		a.sess.MoveUp()
	case "down", "j":
		a.sess.MoveDown()
	case "n":
		if a.sess.Mode == session.ModeStoryList {
			a.newStory = true
			a.titleInput.Reset()
			a.titleInput.Focus()
			a.sess.SetStatus("Name the new story")
			return a, textinput.Blink
		}
	case "enter":
		return a.handleSelect()
	case "esc":
		return a.handleBack()
	}
	return a, nil
}

func (a *App) handleSelect() (tea.Model, tea.Cmd) {
	req := a.sess.Select()
	if req.Kind != session.LoadNone {
		return a, a.loadFor(req)
	}
	if a.sess.Mode == session.ModeChat {
		a.input.Reset()
		a.input.Focus()
		return a, textinput.Blink
	}
	return a, nil
}

func (a *App) handleBack() (tea.Model, tea.Cmd) {
	req, alive := a.sess.Back()
	if !alive {
		return a, tea.Quit
	}
	if req.Kind != session.LoadNone {
		return a, a.loadFor(req)
	}
	return a, nil
}

func (a *App) handleNewStoryKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc":
		a.newStory = false
		a.titleInput.Reset()
		a.sess.SetStatus("")
		return a, nil
	case "enter":
		title := strings.TrimSpace(a.titleInput.Value())
		if title == "" {
			a.sess.SetStatus("A story needs a title")
			return a, nil
		}
		if a.sess.CurrentUser == nil {
			a.newStory = false
			return a, nil
		}
		return a, a.createStory(a.sess.CurrentUser.ID, title)
	}
	var cmd tea.Cmd
	a.titleInput, cmd = a.titleInput.Update(m)
	return a, cmd
}

func (a *App) handleChatKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	// one generation at a time; only quit gets through while waiting
	if a.sess.GenerationInFlight {
		return a, nil
	}

	switch m.String() {
	case "esc":
		a.sess.InputBuffer = a.input.Value()
		req, _ := a.sess.Back()
		a.input.SetValue(a.sess.InputBuffer)
		if req.Kind != session.LoadNone {
			return a, a.loadFor(req)
		}
		return a, nil
	case "enter":
		a.sess.InputBuffer = a.input.Value()
		req, err := a.pipeline.Begin(a.sess)
		if err != nil {
			// empty input is a silent no-op; anything else is surfaced
			if !errors.Is(err, session.ErrEmptyInput) {
				a.sess.SetStatus("Error: " + err.Error())
			}
			return a, nil
		}
		a.input.Reset()
		return a, tea.Batch(a.spin.Tick, a.sendCmd(req))
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(m)
	a.sess.InputBuffer = a.input.Value()
	return a, cmd
}
