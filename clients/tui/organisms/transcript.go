package organisms

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// ContentBlock is one renderable unit of conversation: a message, a tool
// call, or a subagent panel.
type ContentBlock interface {
	View() string
	IsComplete() bool
}

// Transcript is the scrollable conversation history. It stays pinned to
// the newest block unless the user has scrolled away from the bottom.
type Transcript struct {
	view   viewport.Model
	blocks []ContentBlock
}

// NewTranscript creates an empty transcript.
func NewTranscript(width, height int) Transcript {
	vp := viewport.New(width, height)
	// The textarea owns the keyboard; scrolling goes through the explicit
	// PageUp/PageDown bindings in the main model.
	vp.KeyMap = viewport.KeyMap{}
	vp.MouseWheelEnabled = false
	return Transcript{view: vp}
}

// SetSize updates the visible dimensions and re-renders.
func (t *Transcript) SetSize(width, height int) {
	t.view.Width = width
	t.view.Height = height
	t.render()
}

// Append adds a block to the end of the conversation.
func (t *Transcript) Append(block ContentBlock) {
	t.blocks = append(t.blocks, block)
	t.render()
}

// Len returns the number of blocks.
func (t *Transcript) Len() int {
	return len(t.blocks)
}

// FindLast returns the newest block matching the predicate, or nil.
// Lifecycle updates (tool results, panel snapshots) target the most
// recent block for their key, so the search runs newest-first.
func (t *Transcript) FindLast(match func(ContentBlock) bool) ContentBlock {
	for i := len(t.blocks) - 1; i >= 0; i-- {
		if match(t.blocks[i]) {
			return t.blocks[i]
		}
	}
	return nil
}

// PageUp scrolls up by one page.
func (t *Transcript) PageUp() { t.view.PageUp() }

// PageDown scrolls down by one page.
func (t *Transcript) PageDown() { t.view.PageDown() }

// Refresh re-renders after a block mutated in place.
func (t *Transcript) Refresh() { t.render() }

func (t *Transcript) render() {
	pinned := t.view.AtBottom()
	views := make([]string, len(t.blocks))
	for i, block := range t.blocks {
		views[i] = block.View()
	}
	t.view.SetContent(strings.Join(views, "\n"))
	if pinned {
		t.view.GotoBottom()
	}
}

// Update forwards messages to the underlying viewport.
func (t Transcript) Update(msg tea.Msg) (Transcript, tea.Cmd) {
	var cmd tea.Cmd
	t.view, cmd = t.view.Update(msg)
	return t, cmd
}

// View renders the visible window of the transcript.
func (t Transcript) View() string {
	return t.view.View()
}
