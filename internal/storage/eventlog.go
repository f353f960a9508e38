// Package storage persists harness telemetry: a JSONL event log per session
// and a SQLite ledger of token usage.
package storage

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/quill-sh/quill/internal/events"
)

// EventLogger appends bus events to JSONL files, one file per session.
// Stream deltas are skipped; the final assistant message carries the same
// content without the noise.
type EventLogger struct {
	dir         string
	unsubscribe func()
}

// NewEventLogger subscribes to the bus and writes into dir.
func NewEventLogger(dir string, bus *events.Bus) *EventLogger {
	el := &EventLogger{dir: dir}
	el.unsubscribe = bus.Subscribe(func(e events.Event) {
		if e.Type == events.EventAssistantStream {
			return
		}
		if err := el.append(e); err != nil {
			slog.Debug("event log write failed", "type", e.Type, "error", err)
		}
	})
	return el
}

// Close detaches the logger from the bus.
func (el *EventLogger) Close() {
	if el.unsubscribe != nil {
		el.unsubscribe()
	}
}

// append serializes the event onto the session's log file.
func (el *EventLogger) append(e events.Event) error {
	name := "_global.jsonl"
	if e.SessionID != "" {
		name = e.SessionID + ".jsonl"
	}
	path := filepath.Join(el.dir, name)

	if err := os.MkdirAll(el.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = f.Write(append(line, '\n'))
	return err
}
