package stream

import (
	"strings"
	"time"
)

// SinkStatus is the lifecycle state of a per-namespace sink.
type SinkStatus string

const (
	SinkActive    SinkStatus = "active"
	SinkCompleted SinkStatus = "completed"
	SinkFailed    SinkStatus = "failed"
)

// ToolCallState is the display state of one tool invocation within a sink.
type ToolCallState string

const (
	ToolInvokedState   ToolCallState = "invoked"
	ToolSucceededState ToolCallState = "succeeded"
	ToolFailedState    ToolCallState = "failed"
)

// ToolCall is one tool invocation tracked by a sink, in invocation order.
type ToolCall struct {
	CallID string        `json:"call_id"`
	Tool   string        `json:"tool"`
	State  ToolCallState `json:"state"`
	Err    string        `json:"error,omitempty"`
}

// sink accumulates one namespace's portion of the stream. It is owned by the
// Router; external readers only ever see snapshots.
type sink struct {
	namespace Namespace
	status    SinkStatus
	text      strings.Builder // fragments in arrival order; snapshots read it without re-joining
	calls     []ToolCall
	callIndex map[string]int
	errMsg    string
	startedAt time.Time
}

func newSink(ns Namespace) *sink {
	return &sink{
		namespace: ns,
		status:    SinkActive,
		callIndex: make(map[string]int),
		startedAt: time.Now(),
	}
}

func (s *sink) appendText(text string) {
	s.text.WriteString(text)
}

func (s *sink) toolInvoked(callID, tool string) {
	if i, ok := s.callIndex[callID]; ok {
		s.calls[i].State = ToolInvokedState
		return
	}
	s.callIndex[callID] = len(s.calls)
	s.calls = append(s.calls, ToolCall{CallID: callID, Tool: tool, State: ToolInvokedState})
}

func (s *sink) toolResult(callID, tool, errMsg string) {
	i, ok := s.callIndex[callID]
	if !ok {
		// Result without a preceding invocation; track it anyway so the
		// panel shows what happened.
		s.callIndex[callID] = len(s.calls)
		s.calls = append(s.calls, ToolCall{CallID: callID, Tool: tool})
		i = s.callIndex[callID]
	}
	if errMsg != "" {
		s.calls[i].State = ToolFailedState
		s.calls[i].Err = errMsg
	} else {
		s.calls[i].State = ToolSucceededState
	}
}

func (s *sink) finalize(errMsg string) bool {
	if s.status != SinkActive {
		return false
	}
	if errMsg != "" {
		s.status = SinkFailed
		s.errMsg = errMsg
	} else {
		s.status = SinkCompleted
	}
	return true
}

func (s *sink) snapshot() SinkSnapshot {
	calls := make([]ToolCall, len(s.calls))
	copy(calls, s.calls)
	return SinkSnapshot{
		Namespace: append(Namespace(nil), s.namespace...),
		Status:    s.status,
		Text:      s.text.String(),
		ToolCalls: calls,
		Err:       s.errMsg,
		StartedAt: s.startedAt,
	}
}

// SinkSnapshot is an immutable point-in-time view of a sink, handed to
// listeners and display code.
type SinkSnapshot struct {
	Namespace Namespace  `json:"namespace"`
	Status    SinkStatus `json:"status"`
	Text      string     `json:"text"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Err       string     `json:"error,omitempty"`
	StartedAt time.Time  `json:"started_at"`
}

// Active reports whether the sink has not yet seen its terminal marker.
func (s SinkSnapshot) Active() bool {
	return s.Status == SinkActive
}
