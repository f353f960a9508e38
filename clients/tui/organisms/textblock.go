// Package organisms provides high-level TUI components.
package organisms

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/quill-sh/quill/clients/tui/atoms"
)

var streamSpinnerColor = lipgloss.AdaptiveColor{Light: "#6B21A8", Dark: "#D8A6FF"}

// TextBlock is one message in the transcript. While streaming it shows
// the raw text with a trailing spinner; once complete it renders the
// accumulated markdown and caches the result.
type TextBlock struct {
	role     string
	style    lipgloss.Style
	spinner  atoms.Spinner
	width    int
	text     strings.Builder
	complete bool
	rendered string
}

// NewTextBlock creates a text block for a given role.
func NewTextBlock(role string, style lipgloss.Style, width int) *TextBlock {
	tb := &TextBlock{role: role, style: style, width: width}
	tb.spinner = atoms.NewSpinner(streamSpinnerColor)
	return tb
}

// AppendDelta adds a streaming content chunk.
func (tb *TextBlock) AppendDelta(content string) { tb.text.WriteString(content) }

// SetComplete marks the block as finished.
func (tb *TextBlock) SetComplete() { tb.complete = true }

// IsComplete reports whether the block is finalized.
func (tb *TextBlock) IsComplete() bool { return tb.complete }

// Content returns the accumulated text.
func (tb *TextBlock) Content() string { return tb.text.String() }

// Role returns the block's role.
func (tb *TextBlock) Role() string { return tb.role }

// View renders the block. Completed blocks render markdown exactly once.
func (tb *TextBlock) View() string {
	if tb.complete {
		if tb.rendered == "" {
			tb.rendered = tb.header() + renderMarkdown(tb.text.String(), tb.wrapWidth())
		}
		return tb.rendered
	}
	if tb.text.Len() == 0 {
		return tb.header() + tb.spinner.View()
	}
	return tb.header() + tb.text.String() + tb.spinner.View()
}

func (tb *TextBlock) header() string {
	return tb.style.Render(tb.role) + " "
}

// wrapWidth leaves room for the role label and padding.
func (tb *TextBlock) wrapWidth() int {
	return max(tb.width-6, 20)
}

// renderMarkdown renders text through glamour, falling back to the raw
// text when the renderer is unavailable.
func renderMarkdown(text string, wrap int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return text
	}
	out, err := renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}
