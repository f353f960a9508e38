// Package tui renders the Quill chat interface on top of the event bus.
package tui

import "github.com/charmbracelet/lipgloss"

// Adaptive colors (light/dark terminal detection).
var (
	ColorUser      = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#8AB4F8"}
	ColorAssistant = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#C4A7FF"}
	ColorTool      = lipgloss.AdaptiveColor{Light: "#065F46", Dark: "#7EE2B8"}
	ColorTask      = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FCD34D"}
	ColorError     = lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#FF6B6B"}
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	ColorStatusBg  = lipgloss.AdaptiveColor{Light: "#EEF2F7", Dark: "#111827"}
	ColorStatusFg  = lipgloss.AdaptiveColor{Light: "#374151", Dark: "#D1D5DB"}
	ColorBorder    = lipgloss.AdaptiveColor{Light: "#E5E7EB", Dark: "#374151"}
)

func bordered(c lipgloss.AdaptiveColor) lipgloss.Style {
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c).Padding(0, 1)
}

// Component styles.
var (
	UserStyle      = lipgloss.NewStyle().Foreground(ColorUser).Bold(true)
	AssistantStyle = lipgloss.NewStyle().Foreground(ColorAssistant).Bold(true)
	ErrorStyle     = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	MutedStyle     = lipgloss.NewStyle().Foreground(ColorMuted)

	StatusBarStyle = lipgloss.NewStyle().
			Background(ColorStatusBg).
			Foreground(ColorStatusFg).
			Padding(0, 1)

	ToolBorderStyle   = bordered(ColorBorder)
	TaskBorderStyle   = bordered(ColorTask)
	PromptBorderStyle = bordered(ColorAssistant)
)
