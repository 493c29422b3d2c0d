package tui

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"qcm-runner/internal/domain"
)

// Session is a Controller that can also publish view updates.
type Session interface {
	Controller
	Subscribe() (<-chan domain.View, func())
}

// Run drives session in the terminal until the user quits.
func Run(session Session, stdout io.Writer, opts Options) error {
	if stdout == nil {
		stdout = os.Stdout
	}
	updates, cancel := session.Subscribe()
	defer cancel()

	program := tea.NewProgram(NewModel(session, updates, opts), tea.WithOutput(stdout), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
