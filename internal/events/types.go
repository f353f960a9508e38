package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType names the kind of traffic an Event carries.
type EventType string

const (
	// User → Agent
	EventUserMessage EventType = "user.message"

	// Agent → Client: Assistant
	EventAssistantStream  EventType = "assistant.stream"
	EventAssistantMessage EventType = "assistant.message"

	// Agent → Client: Tools
	EventToolCall EventType = "tool.call"

	// Background tasks
	EventTaskLaunched  EventType = "task.launched"
	EventTaskCompleted EventType = "task.completed"

	// Agent ↔ Client: Prompts
	EventPromptRequest  EventType = "prompt.request"
	EventPromptResponse EventType = "prompt.response"

	// Internal (usage accounting)
	EventLLMCall EventType = "internal.llm.call"

	// Session lifecycle
	EventSessionCreated EventType = "session.created"
	EventSessionClosed  EventType = "session.closed"
)

// EventSource identifies the component that emitted an event.
type EventSource string

const (
	SourceAgent     EventSource = "agent"
	SourceScheduler EventSource = "scheduler"
	SourcePlugin    EventSource = "plugin"
	SourceTUI       EventSource = "tui"
)

// Event is one message on the bus. Payload stays a free-form map on the
// wire; ExtractPayload recovers the typed form.
type Event struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id,omitempty"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    EventSource    `json:"source"`
	Payload   map[string]any `json:"payload"`
}

// NewEvent creates a new event with the current timestamp.
func NewEvent(eventType EventType, source EventSource, payload map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    source,
		Payload:   payload,
	}
}

// NewEventWithSession creates a new event with session context.
func NewEventWithSession(eventType EventType, source EventSource, payload map[string]any, sessionID string) Event {
	e := NewEvent(eventType, source, payload)
	e.SessionID = sessionID
	return e
}
