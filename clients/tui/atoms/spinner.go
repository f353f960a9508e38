// Package atoms provides low-level TUI building blocks.
package atoms

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Spinner is a thin wrapper over bubbles/spinner so callers only deal
// in atoms types.
type Spinner struct {
	Model spinner.Model
}

// NewSpinner creates a dot-pattern spinner tinted with color.
func NewSpinner(color lipgloss.AdaptiveColor) Spinner {
	return Spinner{Model: spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(color)),
	)}
}

// Init returns the spinner tick command.
func (s Spinner) Init() tea.Cmd { return s.Model.Tick }

// Update handles spinner messages.
func (s Spinner) Update(msg tea.Msg) (Spinner, tea.Cmd) {
	var cmd tea.Cmd
	s.Model, cmd = s.Model.Update(msg)
	return s, cmd
}

// View renders the current spinner frame.
func (s Spinner) View() string { return s.Model.View() }
