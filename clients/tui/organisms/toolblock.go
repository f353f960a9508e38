package organisms

import (
	"encoding/json"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/quill-sh/quill/clients/tui/atoms"
	"github.com/quill-sh/quill/clients/tui/molecules"
)

// ToolBlock is a tool invocation in the transcript. It renders as a
// single header line while collapsed; expanding it reveals the full
// arguments and the (clipped) result or error.
type ToolBlock struct {
	name      string
	callID    string
	phase     string
	arguments map[string]any
	result    string
	failure   string
	spinner   atoms.Spinner
	collapsed bool
	style     lipgloss.Style

	// rendered caches the styled output once the call is terminal;
	// any mutation clears it.
	rendered string
}

var toolSpinnerColor = lipgloss.AdaptiveColor{Light: "#065F46", Dark: "#7EE2B8"}

// NewToolBlock creates a tool block from a started tool call.
func NewToolBlock(name, callID string, arguments map[string]any, style lipgloss.Style) *ToolBlock {
	tb := &ToolBlock{name: name, callID: callID, arguments: arguments, style: style}
	tb.phase = "started"
	tb.collapsed = true
	tb.spinner = atoms.NewSpinner(toolSpinnerColor)
	return tb
}

// UpdateStatus records completion or failure of the call.
func (tb *ToolBlock) UpdateStatus(phase, result, failure string) {
	tb.phase = phase
	tb.result = result
	tb.failure = failure
	tb.rendered = ""
}

// ToggleCollapsed flips between the header-only and expanded views.
func (tb *ToolBlock) ToggleCollapsed() {
	tb.collapsed = !tb.collapsed
	tb.rendered = ""
}

// Name returns the tool name.
func (tb *ToolBlock) Name() string { return tb.name }

// CallID returns the tool call identifier, if the agent provided one.
func (tb *ToolBlock) CallID() string { return tb.callID }

// IsComplete reports whether the call reached a terminal phase.
func (tb *ToolBlock) IsComplete() bool {
	return tb.phase == "completed" || tb.phase == "failed"
}

// View renders the tool block.
func (tb *ToolBlock) View() string {
	if tb.rendered != "" {
		return tb.rendered
	}

	body := molecules.ToolHeader(tb.phase, tb.name, tb.spinner.View(), tb.arguments, tb.result, tb.failure)
	if !tb.collapsed {
		body += tb.detail()
	}

	out := tb.style.Render(body)
	if tb.IsComplete() {
		tb.rendered = out
	}
	return out
}

// detail renders the expanded section below the header.
func (tb *ToolBlock) detail() string {
	var sb strings.Builder
	if len(tb.arguments) > 0 {
		if argsJSON, err := json.MarshalIndent(tb.arguments, "  ", "  "); err == nil {
			sb.WriteString("\n  Args: " + string(argsJSON))
		}
	}
	if tb.result != "" {
		sb.WriteString("\n  Result: " + molecules.Clip(tb.result, 500))
	}
	if tb.failure != "" {
		sb.WriteString("\n  Error: " + tb.failure)
	}
	return sb.String()
}
