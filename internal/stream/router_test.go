package stream

import (
	"context"
	"log/slog"
	"sync"
	"testing"
)

type recordingListener struct {
	mu        sync.Mutex
	mounted   []string
	updated   []string
	finalized []SinkSnapshot
}

func (l *recordingListener) SinkMounted(snap SinkSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mounted = append(l.mounted, snap.Namespace.Key())
}

func (l *recordingListener) SinkUpdated(snap SinkSnapshot, ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.updated = append(l.updated, snap.Namespace.Key())
}

func (l *recordingListener) SinkFinalized(snap SinkSnapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finalized = append(l.finalized, snap)
}

func TestFragmentsPreserveOrder(t *testing.T) {
	r := NewRouter(slog.Default())
	ns := TaskNamespace("scout-1")

	r.Dispatch(TextFragment(ns, "Look"))
	r.Dispatch(TextFragment(ns, "ing..."))
	r.Dispatch(TextFragment(ns, "done"))

	snap, ok := r.Sink(ns)
	if !ok {
		t.Fatal("expected sink for scout-1")
	}
	if snap.Text != "Looking...done" {
		t.Fatalf("expected %q, got %q", "Looking...done", snap.Text)
	}
	if snap.Status != SinkActive {
		t.Errorf("expected active, got %s", snap.Status)
	}
}

func TestInterleavedNamespaces(t *testing.T) {
	r := NewRouter(slog.Default())
	a := TaskNamespace("scout-1")
	b := TaskNamespace("scout-2")

	r.Dispatch(TextFragment(a, "A1"))
	r.Dispatch(TextFragment(b, "B1"))
	r.Dispatch(TextFragment(a, "A2"))
	r.Dispatch(TextFragment(b, "B2"))
	r.Dispatch(TextFragment(a, "A3"))

	sa, _ := r.Sink(a)
	sb, _ := r.Sink(b)
	if sa.Text != "A1A2A3" {
		t.Errorf("scout-1: expected A1A2A3, got %q", sa.Text)
	}
	if sb.Text != "B1B2" {
		t.Errorf("scout-2: expected B1B2, got %q", sb.Text)
	}
}

func TestRootSinkAlwaysPresent(t *testing.T) {
	r := NewRouter(slog.Default())

	snap, ok := r.Sink(nil)
	if !ok {
		t.Fatal("expected primary sink to exist from construction")
	}
	if !snap.Namespace.IsRoot() {
		t.Error("expected root namespace")
	}

	l := &recordingListener{}
	r.AddListener(l)
	r.Dispatch(TextFragment(nil, "hello"))

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.mounted) != 0 {
		t.Errorf("primary sink must not re-mount, got mounts %v", l.mounted)
	}
	if len(l.updated) != 1 {
		t.Errorf("expected 1 update, got %d", len(l.updated))
	}
}

func TestMountSignalOnFirstEvent(t *testing.T) {
	r := NewRouter(slog.Default())
	l := &recordingListener{}
	r.AddListener(l)
	ns := TaskNamespace("scout-1")

	r.Dispatch(TextFragment(ns, "x"))
	r.Dispatch(TextFragment(ns, "y"))

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.mounted) != 1 || l.mounted[0] != ns.Key() {
		t.Fatalf("expected exactly one mount for scout-1, got %v", l.mounted)
	}
	if len(l.updated) != 2 {
		t.Errorf("expected 2 updates, got %d", len(l.updated))
	}
}

func TestInstantTerminal(t *testing.T) {
	r := NewRouter(slog.Default())
	l := &recordingListener{}
	r.AddListener(l)
	ns := TaskNamespace("scout-1")

	r.Dispatch(Terminal(ns, ""))

	snap, ok := r.Sink(ns)
	if !ok {
		t.Fatal("terminal-only namespace must still produce a sink")
	}
	if snap.Status != SinkCompleted {
		t.Errorf("expected completed, got %s", snap.Status)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.mounted) != 1 {
		t.Errorf("expected mount signal, got %d", len(l.mounted))
	}
	if len(l.finalized) != 1 {
		t.Errorf("expected finalize signal, got %d", len(l.finalized))
	}
}

func TestTerminalWithError(t *testing.T) {
	r := NewRouter(slog.Default())
	ns := TaskNamespace("scout-1")

	r.Dispatch(TextFragment(ns, "partial"))
	r.Dispatch(Terminal(ns, "model timeout"))

	snap, _ := r.Sink(ns)
	if snap.Status != SinkFailed {
		t.Fatalf("expected failed, got %s", snap.Status)
	}
	if snap.Err != "model timeout" {
		t.Errorf("expected error kept, got %q", snap.Err)
	}
	if snap.Text != "partial" {
		t.Errorf("text lost on failure: %q", snap.Text)
	}
}

func TestDuplicateTerminalIsNoop(t *testing.T) {
	r := NewRouter(slog.Default())
	l := &recordingListener{}
	r.AddListener(l)
	ns := TaskNamespace("scout-1")

	r.Dispatch(Terminal(ns, ""))
	r.Dispatch(Terminal(ns, "late failure"))

	snap, _ := r.Sink(ns)
	if snap.Status != SinkCompleted {
		t.Errorf("second terminal mutated status to %s", snap.Status)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.finalized) != 1 {
		t.Errorf("expected exactly one finalize, got %d", len(l.finalized))
	}
}

func TestSinkSurvivesFinalization(t *testing.T) {
	r := NewRouter(slog.Default())
	ns := TaskNamespace("scout-1")

	r.Dispatch(TextFragment(ns, "record"))
	r.Dispatch(Terminal(ns, ""))

	snap, ok := r.Sink(ns)
	if !ok {
		t.Fatal("sink removed after finalization")
	}
	if snap.Text != "record" {
		t.Errorf("accumulated text lost: %q", snap.Text)
	}

	all := r.Sinks()
	if len(all) != 2 {
		t.Errorf("expected primary + scout-1 listed, got %d", len(all))
	}
}

func TestToolCallLifecycle(t *testing.T) {
	r := NewRouter(slog.Default())
	ns := TaskNamespace("scout-1")

	r.Dispatch(ToolInvoked(ns, "call-1", "internet_search"))
	r.Dispatch(ToolInvoked(ns, "call-2", "read_file"))

	snap, _ := r.Sink(ns)
	if len(snap.ToolCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(snap.ToolCalls))
	}
	if snap.ToolCalls[0].State != ToolInvokedState {
		t.Errorf("expected invoked, got %s", snap.ToolCalls[0].State)
	}

	r.Dispatch(ToolResult(ns, "call-1", "internet_search", ""))
	r.Dispatch(ToolResult(ns, "call-2", "read_file", "no such file"))

	snap, _ = r.Sink(ns)
	if snap.ToolCalls[0].State != ToolSucceededState {
		t.Errorf("call-1: expected succeeded, got %s", snap.ToolCalls[0].State)
	}
	if snap.ToolCalls[1].State != ToolFailedState {
		t.Errorf("call-2: expected failed, got %s", snap.ToolCalls[1].State)
	}
	if snap.ToolCalls[1].Err != "no such file" {
		t.Errorf("call-2: error not kept: %q", snap.ToolCalls[1].Err)
	}
}

func TestUnknownKindSkipped(t *testing.T) {
	r := NewRouter(slog.Default())
	ns := TaskNamespace("scout-1")

	r.Dispatch(Event{Namespace: ns, Kind: "telemetry_blob"})

	if _, ok := r.Sink(ns); ok {
		t.Error("unknown kind must not create a sink")
	}

	// The stream keeps flowing afterwards.
	r.Dispatch(TextFragment(ns, "still here"))
	snap, ok := r.Sink(ns)
	if !ok || snap.Text != "still here" {
		t.Errorf("stream aborted after malformed event: %+v", snap)
	}
}

func TestActiveNamespaces(t *testing.T) {
	r := NewRouter(slog.Default())

	r.Dispatch(TextFragment(TaskNamespace("scout-1"), "a"))
	r.Dispatch(TextFragment(TaskNamespace("scout-2"), "b"))
	r.Dispatch(TextFragment(nil, "primary text"))

	if n := r.ActiveNamespaces(); n != 2 {
		t.Fatalf("expected 2 active, got %d", n)
	}

	r.Dispatch(Terminal(TaskNamespace("scout-1"), ""))
	if n := r.ActiveNamespaces(); n != 1 {
		t.Fatalf("expected 1 active after terminal, got %d", n)
	}
}

func TestRunConsumesChannel(t *testing.T) {
	r := NewRouter(slog.Default())
	ns := TaskNamespace("scout-1")

	events := make(chan Event, 4)
	events <- TextFragment(ns, "a")
	events <- TextFragment(ns, "b")
	events <- Terminal(ns, "")
	close(events)

	r.Run(context.Background(), events)

	snap, _ := r.Sink(ns)
	if snap.Text != "ab" || snap.Status != SinkCompleted {
		t.Fatalf("unexpected sink after run: %+v", snap)
	}
}

func TestNamespaceHelpers(t *testing.T) {
	ns := TaskNamespace("scout-1")
	if ns.IsRoot() {
		t.Error("task namespace must not be root")
	}
	if ns.Label() != "scout-1" {
		t.Errorf("expected label scout-1, got %s", ns.Label())
	}
	if Namespace(nil).Label() != "main" {
		t.Error("root label should be main")
	}
	if ns.Key() == TaskNamespace("scout-2").Key() {
		t.Error("distinct namespaces must have distinct keys")
	}
}

func TestSnapshotTextStableAcrossAppends(t *testing.T) {
	s := newSink(TaskNamespace("scout-1"))

	s.appendText("first")
	early := s.snapshot()

	s.appendText(" second")
	late := s.snapshot()

	// Earlier snapshots must not observe later appends.
	if early.Text != "first" {
		t.Fatalf("early snapshot mutated: %q", early.Text)
	}
	if late.Text != "first second" {
		t.Fatalf("late snapshot = %q", late.Text)
	}
}
