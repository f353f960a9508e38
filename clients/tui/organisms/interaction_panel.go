package organisms

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quill-sh/quill/clients/tui/molecules"
	"github.com/quill-sh/quill/internal/events"
)

// InteractionPanel owns the bottom input row. It is the command input
// most of the time; while the agent is asking a question it becomes the
// prompt form instead. Messages typed during a stream are parked in
// pending until the stream ends.
type InteractionPanel struct {
	editor  molecules.CommandInput
	dialog  Form
	pending []string
}

// NewInteractionPanel creates a new interaction panel.
func NewInteractionPanel(formStyle lipgloss.Style) InteractionPanel {
	return InteractionPanel{
		editor: molecules.NewCommandInput(),
		dialog: NewForm(formStyle),
	}
}

func (p *InteractionPanel) SetWidth(w int)   { p.editor.SetWidth(w) }
func (p *InteractionPanel) FormActive() bool { return p.dialog.Active() }

// ActivateForm swaps the input row for the prompt form.
func (p *InteractionPanel) ActivateForm(req events.PromptRequestPayload) {
	p.dialog.Activate(req)
}

// DeactivateForm restores the command input.
func (p *InteractionPanel) DeactivateForm() {
	p.dialog.Deactivate()
}

// BufferMessage parks a message typed during streaming.
func (p *InteractionPanel) BufferMessage(content string) {
	p.pending = append(p.pending, content)
}

// DrainPending returns and clears all parked messages.
func (p *InteractionPanel) DrainPending() []string {
	msgs := p.pending
	p.pending = nil
	return msgs
}

// UpdateForm routes a message to the form.
func (p InteractionPanel) UpdateForm(msg tea.Msg) (InteractionPanel, tea.Cmd) {
	var cmd tea.Cmd
	p.dialog, cmd = p.dialog.Update(msg)
	return p, cmd
}

// Update routes a message to whichever sub-component is showing.
func (p InteractionPanel) Update(msg tea.Msg) (InteractionPanel, tea.Cmd) {
	if p.dialog.Active() {
		return p.UpdateForm(msg)
	}
	var cmd tea.Cmd
	p.editor, cmd = p.editor.Update(msg)
	return p, cmd
}

// View renders the form if active, otherwise the input.
func (p InteractionPanel) View() string {
	if p.dialog.Active() {
		return p.dialog.View()
	}
	return p.editor.View()
}
