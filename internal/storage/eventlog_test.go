package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quill-sh/quill/internal/events"
)

func waitForFile(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("file %s never appeared", path)
}

func TestEventLoggerWritesPerSession(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(16)
	defer bus.Close()

	el := NewEventLogger(dir, bus)
	defer el.Close()

	bus.Publish(events.NewTypedEventWithSession(events.SourceAgent, events.UserMessagePayload{
		Content: "hello",
	}, "sess-1"))

	path := filepath.Join(dir, "sess-1.jsonl")
	waitForFile(t, path)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		t.Fatal("log file is empty")
	}
	var logged events.Event
	if err := json.Unmarshal(scanner.Bytes(), &logged); err != nil {
		t.Fatalf("invalid JSONL: %v", err)
	}
	if logged.Type != events.EventUserMessage || logged.SessionID != "sess-1" {
		t.Errorf("logged = %+v", logged)
	}
}

func TestEventLoggerSkipsStreamDeltas(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(16)
	defer bus.Close()

	el := NewEventLogger(dir, bus)
	defer el.Close()

	bus.Publish(events.NewTypedEventWithSession(events.SourceAgent, events.AssistantStreamPayload{
		Phase:   events.StreamPhaseDelta,
		Content: "noise",
	}, "sess-2"))
	bus.Publish(events.NewTypedEventWithSession(events.SourceAgent, events.AssistantMessagePayload{
		Content: "final",
	}, "sess-2"))

	path := filepath.Join(dir, "sess-2.jsonl")
	waitForFile(t, path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var logged events.Event
	if err := json.Unmarshal(data[:len(data)-1], &logged); err != nil {
		t.Fatalf("expected exactly one line, got %q", data)
	}
	if logged.Type != events.EventAssistantMessage {
		t.Errorf("type = %s", logged.Type)
	}
}

func TestEventLoggerGlobalFileForSessionless(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(16)
	defer bus.Close()

	el := NewEventLogger(dir, bus)
	defer el.Close()

	bus.Publish(events.NewTypedEvent(events.SourceScheduler, events.TaskPayload{
		TaskID: "research-1",
		Status: "completed",
	}))

	waitForFile(t, filepath.Join(dir, "_global.jsonl"))
}
