package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"qcm-runner/internal/domain"
)

// Controller is the part of the session the terminal host drives.
type Controller interface {
	View() domain.View
	Start() error
	SubmitIndex(i int) bool
	Next()
	Previous()
	End()
	Restart()
}

// Model renders a quiz session using Bubble Tea.
type Model struct {
	session Controller
	updates <-chan domain.View
	view    domain.View
	noColor bool
	width   int
	cursor  int
}

type Options struct {
	NoColor bool
}

// NewModel builds a model fed by a session subscription.
func NewModel(session Controller, updates <-chan domain.View, opts Options) Model {
	return Model{
		session: session,
		updates: updates,
		view:    session.View(),
		noColor: opts.NoColor,
	}
}

// Init waits for the first view update.
func (m Model) Init() tea.Cmd {
	return waitForView(m.updates)
}

// Update consumes view updates and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = typed.Width
		return m, nil
	case viewMsg:
		m = m.setView(domain.View(typed))
		return m, waitForView(m.updates)
	case tea.KeyMsg:
		next, quit := m.handleKey(typed.String())
		if quit {
			return next, tea.Quit
		}
		return next.setView(next.session.View()), nil
	}
	return m, nil
}

// setView stores a new view and resets the option cursor when the question changes.
func (m Model) setView(v domain.View) Model {
	if questionID(v) != questionID(m.view) {
		m.cursor = 0
	}
	m.view = v
	return m
}

func questionID(v domain.View) string {
	if v.Question == nil {
		return ""
	}
	return v.Question.ID
}

// handleKey maps a key press onto a session command. Option letters win over
// command keys while the current question awaits an answer.
func (m Model) handleKey(key string) (Model, bool) {
	if key == "ctrl+c" || key == "esc" {
		return m, true
	}
	if i, ok := m.optionIndex(key); ok {
		m.session.SubmitIndex(i)
		return m, false
	}
	switch key {
	case "q":
		return m, true
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if q := m.view.Question; q != nil && m.cursor < len(q.Options)-1 {
			m.cursor++
		}
	case " ":
		if m.view.Phase == domain.PhaseRunning {
			m.session.SubmitIndex(m.cursor)
		}
	case "s":
		if m.view.Phase == domain.PhaseReady {
			_ = m.session.Start()
		}
	case "enter", "right", "n":
		m.session.Next()
	case "left", "p":
		m.session.Previous()
	case "e":
		m.session.End()
	case "r":
		m.session.Restart()
	}
	return m, false
}

func (m Model) optionIndex(key string) (int, bool) {
	q := m.view.Question
	if !m.view.Settings.KeyboardShortcuts || m.view.Phase != domain.PhaseRunning || q == nil || q.Answered {
		return 0, false
	}
	if len(key) != 1 {
		return 0, false
	}
	c := strings.ToLower(key)[0]
	if c >= '1' && c <= '9' {
		if i := int(c - '1'); i < len(q.Options) {
			return i, true
		}
		return 0, false
	}
	if c >= 'a' && c <= 'z' {
		if i := int(c - 'a'); i < len(q.Options) {
			return i, true
		}
	}
	return 0, false
}

// View renders the current view model.
func (m Model) View() string {
	parts := []string{renderHeader(m.view, m.noColor)}
	if len(m.view.Warnings) > 0 {
		parts = append(parts, renderWarnings(m.view.Warnings, m.noColor))
	}
	parts = append(parts, renderBody(m.view, m.cursor, m.noColor), renderFooter(m.view, m.noColor))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// viewMsg wraps a session view for Bubble Tea.
type viewMsg domain.View

// waitForView blocks until the session publishes a view.
func waitForView(updates <-chan domain.View) tea.Cmd {
	return func() tea.Msg {
		if updates == nil {
			return nil
		}
		view, ok := <-updates
		if !ok {
			return tea.Quit()
		}
		return viewMsg(view)
	}
}
