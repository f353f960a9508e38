// Package molecules provides mid-level TUI components.
package molecules

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SubmitMsg carries a line the user submitted with Enter.
type SubmitMsg struct {
	Content string
}

// recall is the up/down input history. older walks back from the newest
// entry, stashing the in-progress draft so newer can restore it.
type recall struct {
	entries []string
	cursor  int // -1 when not browsing
	draft   string
}

func (r *recall) push(line string) {
	r.entries = append(r.entries, line)
	r.cursor = -1
	r.draft = ""
}

func (r *recall) older(current string) (string, bool) {
	if len(r.entries) == 0 {
		return "", false
	}
	if r.cursor == -1 {
		r.draft = current
		r.cursor = len(r.entries) - 1
	} else if r.cursor > 0 {
		r.cursor--
	}
	return r.entries[r.cursor], true
}

func (r *recall) newer() (string, bool) {
	switch {
	case r.cursor == -1:
		return "", false
	case r.cursor < len(r.entries)-1:
		r.cursor++
		return r.entries[r.cursor], true
	default:
		r.cursor = -1
		return r.draft, true
	}
}

// CommandInput wraps a textarea with Enter-to-submit semantics and an
// up/down recall history.
type CommandInput struct {
	area    textarea.Model
	history  recall
}

// NewCommandInput creates a new input area.
func NewCommandInput() CommandInput {
	ta := textarea.New()
	ta.Placeholder = "Ask Quill anything..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetHeight(1)
	ta.CharLimit = 0
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.Focus()

	return CommandInput{
		area:    ta,
		history:  recall{cursor: -1},
	}
}

// SetWidth sets the input width.
func (c *CommandInput) SetWidth(w int) {
	c.area.SetWidth(w)
}

// Update handles key events. Enter submits, up/down walks the history.
func (c CommandInput) Update(msg tea.Msg) (CommandInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if next, cmd, handled := c.handleKey(key); handled {
			return next, cmd
		}
	}

	var cmd tea.Cmd
	c.area, cmd = c.area.Update(msg)
	return c, cmd
}

func (c CommandInput) handleKey(key tea.KeyMsg) (CommandInput, tea.Cmd, bool) {
	switch key.Type {
	case tea.KeyEnter:
		line := strings.TrimSpace(c.area.Value())
		if line == "" {
			return c, nil, true
		}
		c.history.push(line)
		c.area.Reset()
		return c, func() tea.Msg { return SubmitMsg{Content: line} }, true

	case tea.KeyUp:
		if prev, ok := c.history.older(c.area.Value()); ok {
			c.area.SetValue(prev)
			return c, nil, true
		}

	case tea.KeyDown:
		if next, ok := c.history.newer(); ok {
			c.area.SetValue(next)
			return c, nil, true
		}
	}
	return c, nil, false
}

// View renders the input area.
func (c CommandInput) View() string {
	return c.area.View()
}
