// Package stream demultiplexes the single interleaved event sequence produced
// by an agent run into per-namespace sinks. The primary conversation and each
// subagent write to the same ordered stream; the router splits it back apart
// so every origin gets its own accumulator and display panel.
package stream

import "strings"

// Namespace identifies the provenance of an event: the empty path is the
// primary conversation, a non-empty path is a subordinate execution such as
// ["task", "scout-1"]. Namespaces compare structurally.
type Namespace []string

// nsSep is a byte that cannot occur in a namespace segment.
const nsSep = "\x1f"

// Key returns the mapping key for the namespace.
func (ns Namespace) Key() string {
	return strings.Join(ns, nsSep)
}

// IsRoot reports whether the namespace denotes the primary conversation.
func (ns Namespace) IsRoot() bool {
	return len(ns) == 0
}

// Label returns a short human-readable name for display headers.
func (ns Namespace) Label() string {
	if len(ns) == 0 {
		return "main"
	}
	return ns[len(ns)-1]
}

// TaskNamespace builds the namespace under which a background task streams.
func TaskNamespace(taskID string) Namespace {
	return Namespace{"task", taskID}
}

// Kind discriminates stream events.
type Kind string

const (
	KindTextFragment      Kind = "text_fragment"
	KindToolInvoked       Kind = "tool_invoked"
	KindToolResult        Kind = "tool_result"
	KindNamespaceTerminal Kind = "namespace_terminal"
)

// Event is one element of the run's ordered event sequence. Fields beyond
// Namespace and Kind are populated per kind: Text for fragments, CallID and
// Tool for tool events, Err for failed tool results and failed terminals.
type Event struct {
	Namespace Namespace `json:"namespace"`
	Kind      Kind      `json:"kind"`
	Text      string    `json:"text,omitempty"`
	CallID    string    `json:"call_id,omitempty"`
	Tool      string    `json:"tool,omitempty"`
	Err       string    `json:"error,omitempty"`
}

// TextFragment builds an incremental text event.
func TextFragment(ns Namespace, text string) Event {
	return Event{Namespace: ns, Kind: KindTextFragment, Text: text}
}

// ToolInvoked builds a tool-call start event.
func ToolInvoked(ns Namespace, callID, tool string) Event {
	return Event{Namespace: ns, Kind: KindToolInvoked, CallID: callID, Tool: tool}
}

// ToolResult builds a tool-call completion event. A non-empty errMsg marks
// the call as failed.
func ToolResult(ns Namespace, callID, tool, errMsg string) Event {
	return Event{Namespace: ns, Kind: KindToolResult, CallID: callID, Tool: tool, Err: errMsg}
}

// Terminal builds the end-of-stream marker for a namespace. A non-empty
// errMsg finalizes the sink as failed.
func Terminal(ns Namespace, errMsg string) Event {
	return Event{Namespace: ns, Kind: KindNamespaceTerminal, Err: errMsg}
}
