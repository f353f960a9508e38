package molecules

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/quill-sh/quill/internal/stream"
)

var (
	toolNameStyle = lipgloss.NewStyle().Bold(true)
	checkStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#065F46", Dark: "#7EE2B8"})
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#FF6B6B"})
	resultStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"})
)

// Clip shortens s to at most max bytes, ellipsized.
func Clip(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}

// ToolHeader renders a tool call header line:
//
//	"⠋ tool_name(args...)" | "✓ tool_name(args...) → result" | "✗ tool_name: error"
func ToolHeader(status, name, spinnerView string, args map[string]any, result, errMsg string) string {
	title := toolNameStyle.Render(name)
	switch status {
	case "started":
		return fmt.Sprintf("%s %s(%s)", spinnerView, title, argsPreview(args, 60))
	case "completed":
		line := fmt.Sprintf("%s %s(%s)", checkStyle.Render("✓"), title, argsPreview(args, 40))
		if result != "" {
			line += resultStyle.Render(" → " + firstLine(result, 60))
		}
		return line
	case "failed":
		return fmt.Sprintf("%s %s: %s", failStyle.Render("✗"), title, Clip(errMsg, 80))
	default:
		return title
	}
}

// ToolLine renders one subagent tool invocation as a compact line:
//
//	"⠋ web_search" | "✓ web_search" | "✗ read_file: no such file"
func ToolLine(call stream.ToolCall, spinnerView string) string {
	switch call.State {
	case stream.ToolSucceededState:
		return fmt.Sprintf("%s %s", checkStyle.Render("✓"), call.Tool)
	case stream.ToolFailedState:
		return fmt.Sprintf("%s %s: %s", failStyle.Render("✗"), call.Tool, Clip(call.Err, 60))
	default:
		return fmt.Sprintf("%s %s", spinnerView, call.Tool)
	}
}

// argsPreview flattens the argument map into a short inline preview.
func argsPreview(args map[string]any, max int) string {
	if len(args) == 0 {
		return ""
	}
	s := fmt.Sprintf("%v", args)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "map["), "]")
	return Clip(s, max)
}

// firstLine trims the result to its first line, ellipsized.
func firstLine(s string, max int) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	return Clip(strings.TrimSpace(s), max)
}
