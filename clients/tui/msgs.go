package tui

import (
	"github.com/quill-sh/quill/internal/events"
	"github.com/quill-sh/quill/internal/panels"
)

// StreamStartMsg signals the beginning of a streaming response.
type StreamStartMsg struct{}

// StreamDeltaMsg carries an incremental text chunk.
type StreamDeltaMsg struct {
	Content string
}

// StreamEndMsg signals the end of streaming.
type StreamEndMsg struct {
	Error string
}

// AssistantMessageMsg carries a complete assistant response.
type AssistantMessageMsg struct {
	Content string
	Error   string
}

// ToolCallMsg represents a tool call lifecycle event in the primary
// conversation.
type ToolCallMsg struct {
	Status    string
	CallID    string
	Name      string
	Arguments map[string]any
	Result    string
	Error     string
}

// PromptRequestMsg asks the user for interactive input.
type PromptRequestMsg struct {
	Request events.PromptRequestPayload
}

// TaskMsg signals a background task lifecycle change.
type TaskMsg struct {
	TaskID   string
	TaskType string
	Status   string
	Error    string
}

// PanelMountedMsg signals a new subagent panel.
type PanelMountedMsg struct {
	Panel panels.Panel
}

// PanelUpdatedMsg carries a refreshed subagent panel snapshot.
type PanelUpdatedMsg struct {
	Panel panels.Panel
}

// PanelFinalizedMsg signals a subagent panel reaching a terminal state.
type PanelFinalizedMsg struct {
	Panel panels.Panel
}

// LLMTelemetryMsg carries token usage from an internal.llm.call event.
type LLMTelemetryMsg struct {
	Model     string
	TokensIn  int
	TokensOut int
}

// busClosedMsg signals the event bus subscription ended.
type busClosedMsg struct{}
