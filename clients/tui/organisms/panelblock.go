package organisms

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/quill-sh/quill/clients/tui/atoms"
	"github.com/quill-sh/quill/clients/tui/molecules"
	"github.com/quill-sh/quill/internal/panels"
)

// textTailLines bounds how much subagent output a panel block shows inline.
const textTailLines = 2

// PanelBlock renders one background subagent inline in the conversation:
// a title line with a live elapsed clock, the most recent tool invocations,
// and the tail of the subagent's text output. Once the panel finalizes the
// rendering freezes and becomes a durable part of the transcript.
type PanelBlock struct {
	panel   panels.Panel
	spinner atoms.Spinner
	style   lipgloss.Style
	cached  string
}

// NewPanelBlock creates a block for a freshly mounted panel.
func NewPanelBlock(p panels.Panel, style lipgloss.Style) *PanelBlock {
	return &PanelBlock{
		panel:   p,
		spinner: atoms.NewSpinner(lipgloss.AdaptiveColor{Light: "#92400E", Dark: "#FBBF24"}),
		style:   style,
	}
}

// Apply replaces the block's snapshot with a newer one.
func (pb *PanelBlock) Apply(p panels.Panel) {
	pb.panel = p
	pb.cached = ""
}

// Key returns the panel's namespace key for lookup.
func (pb *PanelBlock) Key() string {
	return pb.panel.Namespace.Key()
}

// IsComplete returns whether the panel reached a terminal state.
func (pb *PanelBlock) IsComplete() bool {
	return pb.panel.Finalized()
}

// View renders the panel block.
func (pb *PanelBlock) View() string {
	if pb.panel.Finalized() && pb.cached != "" {
		return pb.cached
	}

	var b strings.Builder

	icon := pb.spinner.View()
	switch pb.panel.Status {
	case panels.PanelCompleted:
		icon = "✓"
	case panels.PanelFailed:
		icon = "✗"
	case panels.PanelCancelled:
		icon = "⊘"
	}

	title := fmt.Sprintf("%s %s (%s)", icon, pb.panel.Title,
		pb.panel.Elapsed().Truncate(100*time.Millisecond))
	b.WriteString(title)

	for _, call := range pb.panel.ToolCalls {
		b.WriteString("\n  " + molecules.ToolLine(call, pb.spinner.View()))
	}

	if tail := textTail(pb.panel.Text); tail != "" {
		b.WriteString("\n  " + tail)
	}

	if pb.panel.Err != "" {
		b.WriteString(fmt.Sprintf("\n  Error: %s", pb.panel.Err))
	}

	result := pb.style.Render(b.String())
	if pb.panel.Finalized() {
		pb.cached = result
	}
	return result
}

// textTail returns the last non-empty lines of the subagent's output,
// flattened to a short single-line preview.
func textTail(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	var kept []string
	for i := len(lines) - 1; i >= 0 && len(kept) < textTailLines; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			kept = append([]string{line}, kept...)
		}
	}
	tail := strings.Join(kept, " ")
	if len(tail) > 120 {
		tail = tail[:117] + "..."
	}
	return tail
}
