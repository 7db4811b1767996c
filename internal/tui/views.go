package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kbrakke/illustrated-primer/internal/session"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	promptStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	storyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

// View renders from a snapshot taken at render time; the render path never
// mutates the session.
func (a *App) View() string {
	snap := a.sess.Snapshot()

	var body string
	switch snap.Mode {
	case session.ModeUserSelect:
		body = a.renderUsers(snap)
	case session.ModeStoryList:
		body = a.renderStories(snap)
	case session.ModeStoryView:
		body = a.renderStory(snap)
	case session.ModeChat:
		body = a.renderChat(snap)
	}
	return body + "\n" + a.renderFooter(snap)
}

func (a *App) renderUsers(snap session.Snapshot) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Who is reading?"))
	b.WriteString("\n\n")
	if len(snap.Users) == 0 {
		b.WriteString(dimStyle.Render("  no readers yet"))
		b.WriteString("\n")
	}
	for i, u := range snap.Users {
		b.WriteString(cursorLine(i == snap.SelectedIndex, u.DisplayName()))
	}
	return b.String()
}

func (a *App) renderStories(snap session.Snapshot) string {
	var b strings.Builder
	reader := ""
	if snap.CurrentUser != nil {
		reader = snap.CurrentUser.DisplayName()
	}
	b.WriteString(titleStyle.Render(fmt.Sprintf("Stories for %s", reader)))
	b.WriteString("\n\n")

	if a.newStory {
		b.WriteString(promptStyle.Render("New story: "))
		b.WriteString(a.titleInput.View())
		b.WriteString("\n\n")
	}

	if len(snap.Stories) == 0 {
		b.WriteString(dimStyle.Render("  no stories yet, press n to begin one"))
		b.WriteString("\n")
	}
	for i, s := range snap.Stories {
		line := fmt.Sprintf("%s  %s", s.Title, dimStyle.Render(s.PageCountDisplay()))
		b.WriteString(cursorLine(!a.newStory && i == snap.SelectedIndex, line))
	}
	return b.String()
}

func (a *App) renderStory(snap session.Snapshot) string {
	var b strings.Builder
	title := ""
	if snap.CurrentStory != nil {
		title = snap.CurrentStory.Title
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	if len(snap.Pages) == 0 {
		b.WriteString(dimStyle.Render("  this story has no pages yet"))
		b.WriteString("\n")
	}
	for i, p := range snap.Pages {
		header := fmt.Sprintf("Page %d", p.PageNum)
		if i == snap.SelectedIndex {
			header = selectedStyle.Render("> " + header)
		} else {
			header = dimStyle.Render("  " + header)
		}
		b.WriteString(header)
		b.WriteString("\n")
		b.WriteString(promptStyle.Render("  You: "))
		b.WriteString(p.Prompt)
		b.WriteString("\n")
		b.WriteString(storyStyle.Render("  " + p.Completion))
		b.WriteString("\n\n")
	}
	return b.String()
}

func (a *App) renderChat(snap session.Snapshot) string {
	var b strings.Builder
	title := ""
	if snap.CurrentStory != nil {
		title = snap.CurrentStory.Title
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	for i := 0; i+1 < len(snap.History); i += 2 {
		b.WriteString(promptStyle.Render("You: "))
		b.WriteString(snap.History[i])
		b.WriteString("\n")
		b.WriteString(storyStyle.Render(snap.History[i+1]))
		b.WriteString("\n\n")
	}

	if snap.GenerationInFlight {
		b.WriteString(a.spin.View())
		b.WriteString(dimStyle.Render(" the story continues..."))
		b.WriteString("\n")
	} else {
		b.WriteString(promptStyle.Render("> "))
		b.WriteString(a.input.View())
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderFooter(snap session.Snapshot) string {
	var keys string
	switch {
	case a.newStory:
		keys = "enter name story · esc cancel"
	case snap.Mode == session.ModeChat:
		keys = "enter send · esc back · ctrl+c quit"
	case snap.Mode == session.ModeStoryList:
		keys = "↑/↓ move · enter open · n new story · esc back · q quit"
	case snap.Mode == session.ModeStoryView:
		keys = "↑/↓ move · enter chat · esc back · q quit"
	default:
		keys = "↑/↓ move · enter select · q quit"
	}

	footer := dimStyle.Render(keys)
	if snap.StatusMessage != "" {
		footer += "\n" + statusStyle.Render(snap.StatusMessage)
	}
	return footer
}

func cursorLine(selected bool, text string) string {
	if selected {
		return selectedStyle.Render("> "+text) + "\n"
	}
	return "  " + text + "\n"
}
