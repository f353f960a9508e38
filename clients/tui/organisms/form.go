package organisms

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quill-sh/quill/internal/events"
)

// FormResponseMsg is sent when the user submits or cancels a form.
type FormResponseMsg struct {
	Token     string
	Cancelled bool
	Value     string
}

// Form renders interactive prompt requests (confirm, select, text,
// password) and turns keypresses into a single FormResponseMsg. Tool
// approval prompts arrive as selects with allow/deny options.
type Form struct {
	active   bool
	prompt   events.PromptRequestPayload
	selected int
	entry    textinput.Model
	style    lipgloss.Style
	hint     lipgloss.Style
}

// NewForm creates an inactive form.
func NewForm(style lipgloss.Style) Form {
	entry := textinput.New()
	entry.CharLimit = 256
	return Form{
		style: style,
		entry: entry,
		hint:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Active reports whether a prompt is being shown.
func (f *Form) Active() bool { return f.active }

// Activate arms the form with a new prompt request.
func (f *Form) Activate(req events.PromptRequestPayload) {
	f.active = true
	f.prompt = req
	f.selected = 0

	f.entry.Reset()
	if req.Placeholder != "" {
		f.entry.Placeholder = req.Placeholder
	}
	f.entry.EchoMode = textinput.EchoNormal
	if req.Type == events.PromptTypePassword {
		f.entry.EchoMode = textinput.EchoPassword
	}
	if f.textual() {
		f.entry.Focus()
	}
}

// Deactivate resets the form.
func (f *Form) Deactivate() {
	f.active = false
	f.entry.Blur()
}

func (f *Form) textual() bool {
	switch f.prompt.Type {
	case events.PromptTypeText, events.PromptTypePassword:
		return true
	}
	return false
}

// submit deactivates the form and emits the response message.
func (f Form) submit(value string) (Form, tea.Cmd) {
	return f.finish(FormResponseMsg{Token: f.prompt.Token, Value: value})
}

// cancel deactivates the form with a cancelled response.
func (f Form) cancel() (Form, tea.Cmd) {
	return f.finish(FormResponseMsg{Token: f.prompt.Token, Cancelled: true})
}

func (f Form) finish(msg FormResponseMsg) (Form, tea.Cmd) {
	f.active = false
	return f, func() tea.Msg { return msg }
}

// Update handles form input.
func (f Form) Update(msg tea.Msg) (Form, tea.Cmd) {
	if !f.active {
		return f, nil
	}

	key, isKey := msg.(tea.KeyMsg)
	if !isKey {
		if !f.textual() {
			return f, nil
		}
		var cmd tea.Cmd
		f.entry, cmd = f.entry.Update(msg)
		return f, cmd
	}

	if key.Type == tea.KeyEsc {
		return f.cancel()
	}

	switch f.prompt.Type {
	case events.PromptTypeConfirm:
		switch strings.ToLower(key.String()) {
		case "y":
			return f.submit("true")
		case "n":
			return f.cancel()
		}
	case events.PromptTypeText, events.PromptTypePassword:
		if key.Type == tea.KeyEnter {
			return f.submit(f.entry.Value())
		}
		var cmd tea.Cmd
		f.entry, cmd = f.entry.Update(key)
		return f, cmd
	case events.PromptTypeSelect:
		return f.pickOption(key)
	}
	return f, nil
}

func (f Form) pickOption(key tea.KeyMsg) (Form, tea.Cmd) {
	options := f.prompt.Options

	// 1-9 choose directly.
	if s := key.String(); len(s) == 1 && s[0] >= '1' && s[0] <= '9' {
		if i := int(s[0] - '1'); i < len(options) {
			return f.submit(options[i].Value)
		}
	}

	switch key.Type {
	case tea.KeyUp:
		if f.selected > 0 {
			f.selected--
		}
	case tea.KeyDown:
		if f.selected < len(options)-1 {
			f.selected++
		}
	case tea.KeyEnter:
		if f.selected < len(options) {
			return f.submit(options[f.selected].Value)
		}
	}
	return f, nil
}

// View renders the active prompt.
func (f Form) View() string {
	if !f.active {
		return ""
	}

	var body string
	switch f.prompt.Type {
	case events.PromptTypeConfirm:
		body = f.prompt.Label + " [Y/n] "
	case events.PromptTypeText, events.PromptTypePassword:
		body = f.prompt.Label + "\n" + f.entry.View()
	case events.PromptTypeSelect:
		body = f.optionList()
	}
	return f.style.Render(body)
}

func (f Form) optionList() string {
	var sb strings.Builder
	sb.WriteString(f.prompt.Label + "\n")
	for i, opt := range f.prompt.Options {
		marker := "  "
		if i == f.selected {
			marker = "> "
		}
		fmt.Fprintf(&sb, "%s%d. %s", marker, i+1, opt.Label)
		if opt.Description != "" {
			sb.WriteString("\n    " + f.hint.Render(opt.Description))
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(f.hint.Render("  (Enter/number: choose, Esc: deny)"))
	return sb.String()
}
