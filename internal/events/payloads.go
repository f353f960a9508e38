package events

import (
	"encoding/json"
	"time"
)

// EventPayload is the interface all typed payloads implement.
type EventPayload interface {
	EventType() EventType
}

type UserMessagePayload struct {
	Content string `json:"content"`
}

func (UserMessagePayload) EventType() EventType { return EventUserMessage }

type StreamPhase string

const (
	StreamPhaseStart StreamPhase = "start"
	StreamPhaseDelta StreamPhase = "delta"
	StreamPhaseEnd   StreamPhase = "end"
)

// AssistantStreamPayload carries one increment of assistant output.
// Namespace identifies the emitting execution; empty means the primary
// conversation, ["task", "<id>"] a background subagent.
type AssistantStreamPayload struct {
	Phase     StreamPhase `json:"phase"`
	Content   string      `json:"content"`
	Namespace []string    `json:"namespace,omitempty"`
	Error     string      `json:"error,omitempty"`
}

func (AssistantStreamPayload) EventType() EventType { return EventAssistantStream }

type AssistantMessagePayload struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

func (AssistantMessagePayload) EventType() EventType { return EventAssistantMessage }

type ToolStatus string

const (
	ToolStatusStarted   ToolStatus = "started"
	ToolStatusCompleted ToolStatus = "completed"
	ToolStatusFailed    ToolStatus = "failed"
)

type ToolCallPayload struct {
	Status    ToolStatus     `json:"status"`
	CallID    string         `json:"call_id,omitempty"`
	Name      string         `json:"name"`
	Namespace []string       `json:"namespace,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Result    string         `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func (ToolCallPayload) EventType() EventType { return EventToolCall }

// TaskPayload describes a background task lifecycle change.
type TaskPayload struct {
	TaskID   string        `json:"task_id"`
	TaskType string        `json:"task_type"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Elapsed  time.Duration `json:"elapsed,omitempty"`
}

func (p TaskPayload) EventType() EventType {
	if p.Status == "running" || p.Status == "pending" {
		return EventTaskLaunched
	}
	return EventTaskCompleted
}

type PromptRequestPayload struct {
	Type        PromptType     `json:"type"`
	Label       string         `json:"label"`
	Options     []PromptOption `json:"options,omitempty"`
	Required    bool           `json:"required"`
	Default     any            `json:"default,omitempty"`
	Placeholder string         `json:"placeholder,omitempty"`
	Token       string         `json:"token"`
}

func (PromptRequestPayload) EventType() EventType { return EventPromptRequest }

type PromptResponsePayload struct {
	Value     any    `json:"value"`
	Cancelled bool   `json:"cancelled"`
	Token     string `json:"token"`
}

func (PromptResponsePayload) EventType() EventType { return EventPromptResponse }

// LLMCallPayload feeds the usage ledger.
type LLMCallPayload struct {
	Phase        string        `json:"phase"`
	Model        string        `json:"model"`
	Provider     string        `json:"provider,omitempty"`
	TokensInput  int           `json:"tokens_input,omitempty"`
	TokensOutput int           `json:"tokens_output,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
	Error        string        `json:"error,omitempty"`
}

func (LLMCallPayload) EventType() EventType { return EventLLMCall }

// NewTypedEvent builds an Event from a typed payload.
func NewTypedEvent(source EventSource, payload EventPayload) Event {
	return NewEvent(payload.EventType(), source, toMap(payload))
}

// NewTypedEventWithSession builds an Event from a typed payload with session context.
func NewTypedEventWithSession(source EventSource, payload EventPayload, sessionID string) Event {
	e := NewTypedEvent(source, payload)
	e.SessionID = sessionID
	return e
}

// remarshal copies in into out through their JSON representations.
func remarshal(in, out any) bool {
	data, err := json.Marshal(in)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

func toMap(v any) map[string]any {
	var m map[string]any
	if !remarshal(v, &m) {
		return nil
	}
	return m
}

// ExtractPayload decodes an event's payload into a typed struct.
func ExtractPayload[T EventPayload](e Event) (T, bool) {
	var p T
	ok := remarshal(e.Payload, &p)
	return p, ok
}
