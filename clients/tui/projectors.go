package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/quill-sh/quill/internal/events"
)

// Project converts a bus event into a typed tea.Msg. Returns nil for events
// that don't map to a TUI message. Namespaced stream and tool events belong
// to subagent panels and are rendered through the panel notifier instead.
func Project(e events.Event) tea.Msg {
	switch e.Type {
	case events.EventAssistantStream:
		return projectStream(e)
	case events.EventAssistantMessage:
		return projectAssistantMessage(e)
	case events.EventToolCall:
		return projectToolCall(e)
	case events.EventPromptRequest:
		return projectPromptRequest(e)
	case events.EventTaskLaunched, events.EventTaskCompleted:
		return projectTask(e)
	case events.EventLLMCall:
		return projectLLMCall(e)
	default:
		return nil
	}
}

func projectStream(e events.Event) tea.Msg {
	payload, ok := events.ExtractPayload[events.AssistantStreamPayload](e)
	if !ok || len(payload.Namespace) > 0 {
		return nil
	}
	switch payload.Phase {
	case events.StreamPhaseStart:
		return StreamStartMsg{}
	case events.StreamPhaseDelta:
		return StreamDeltaMsg{Content: payload.Content}
	case events.StreamPhaseEnd:
		return StreamEndMsg{Error: payload.Error}
	default:
		return nil
	}
}

func projectAssistantMessage(e events.Event) tea.Msg {
	payload, ok := events.ExtractPayload[events.AssistantMessagePayload](e)
	if !ok {
		return nil
	}
	return AssistantMessageMsg{Content: payload.Content, Error: payload.Error}
}

func projectToolCall(e events.Event) tea.Msg {
	payload, ok := events.ExtractPayload[events.ToolCallPayload](e)
	if !ok || len(payload.Namespace) > 0 {
		return nil
	}
	return ToolCallMsg{
		Status:    string(payload.Status),
		CallID:    payload.CallID,
		Name:      payload.Name,
		Arguments: payload.Arguments,
		Result:    payload.Result,
		Error:     payload.Error,
	}
}

func projectPromptRequest(e events.Event) tea.Msg {
	payload, ok := events.ExtractPayload[events.PromptRequestPayload](e)
	if !ok {
		return nil
	}
	return PromptRequestMsg{Request: payload}
}

func projectTask(e events.Event) tea.Msg {
	payload, ok := events.ExtractPayload[events.TaskPayload](e)
	if !ok {
		return nil
	}
	return TaskMsg{
		TaskID:   payload.TaskID,
		TaskType: payload.TaskType,
		Status:   payload.Status,
		Error:    payload.Error,
	}
}

func projectLLMCall(e events.Event) tea.Msg {
	payload, ok := events.ExtractPayload[events.LLMCallPayload](e)
	if !ok || payload.Phase != "response" {
		return nil
	}
	return LLMTelemetryMsg{
		Model:     payload.Model,
		TokensIn:  payload.TokensInput,
		TokensOut: payload.TokensOutput,
	}
}
