package panels

import (
	"sync"
	"testing"
	"time"

	"github.com/quill-sh/quill/internal/background"
	"github.com/quill-sh/quill/internal/stream"
)

type recordingNotifier struct {
	mu        sync.Mutex
	mounted   []Panel
	updated   []Panel
	finalized []Panel
}

func (n *recordingNotifier) PanelMounted(p Panel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mounted = append(n.mounted, p)
}

func (n *recordingNotifier) PanelUpdated(p Panel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updated = append(n.updated, p)
}

func (n *recordingNotifier) PanelFinalized(p Panel) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.finalized = append(n.finalized, p)
}

func sinkSnap(ns stream.Namespace, status stream.SinkStatus, text string) stream.SinkSnapshot {
	return stream.SinkSnapshot{
		Namespace: ns,
		Status:    status,
		Text:      text,
		StartedAt: time.Now(),
	}
}

func TestMountAndUpdate(t *testing.T) {
	n := &recordingNotifier{}
	m := NewManager(n, nil)
	ns := stream.TaskNamespace("scout-1")

	m.SinkMounted(sinkSnap(ns, stream.SinkActive, ""))
	m.SinkUpdated(sinkSnap(ns, stream.SinkActive, "Looking..."), stream.TextFragment(ns, "Looking..."))

	p, ok := m.Get(ns)
	if !ok {
		t.Fatal("expected panel mounted")
	}
	if p.Text != "Looking..." {
		t.Errorf("expected text kept, got %q", p.Text)
	}
	if p.Title != "scout-1" {
		t.Errorf("expected title scout-1, got %s", p.Title)
	}
	if p.Finalized() {
		t.Error("panel should still be running")
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.mounted) != 1 || len(n.updated) != 1 {
		t.Errorf("expected 1 mount and 1 update, got %d/%d", len(n.mounted), len(n.updated))
	}
}

func TestRootNamespaceIgnored(t *testing.T) {
	n := &recordingNotifier{}
	m := NewManager(n, nil)

	m.SinkMounted(sinkSnap(nil, stream.SinkActive, ""))
	m.SinkUpdated(sinkSnap(nil, stream.SinkActive, "hi"), stream.TextFragment(nil, "hi"))

	if len(m.List()) != 0 {
		t.Error("primary conversation must not get a panel")
	}
}

func TestFinalizeFromStreamThenScheduler(t *testing.T) {
	n := &recordingNotifier{}
	m := NewManager(n, nil)
	ns := stream.TaskNamespace("scout-1")

	m.SinkMounted(sinkSnap(ns, stream.SinkActive, ""))
	m.SinkFinalized(sinkSnap(ns, stream.SinkCompleted, "all done"))

	// Scheduler callback lands after the stream already finalized.
	m.OnTaskComplete(background.Task{ID: "scout-1", Status: background.StatusCompleted})

	p, _ := m.Get(ns)
	if p.Status != PanelCompleted {
		t.Errorf("expected completed, got %s", p.Status)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.finalized) != 1 {
		t.Fatalf("expected exactly one finalize, got %d", len(n.finalized))
	}
}

func TestFinalizeFromSchedulerThenStream(t *testing.T) {
	n := &recordingNotifier{}
	m := NewManager(n, nil)
	ns := stream.TaskNamespace("scout-1")

	m.SinkMounted(sinkSnap(ns, stream.SinkActive, ""))
	m.OnTaskComplete(background.Task{ID: "scout-1", Status: background.StatusFailed, Error: "boom"})
	m.SinkFinalized(sinkSnap(ns, stream.SinkCompleted, ""))

	p, _ := m.Get(ns)
	if p.Status != PanelFailed {
		t.Errorf("first signal wins; expected failed, got %s", p.Status)
	}
	if p.Err != "boom" {
		t.Errorf("expected error kept, got %q", p.Err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.finalized) != 1 {
		t.Fatalf("expected exactly one finalize, got %d", len(n.finalized))
	}
}

func TestTaskWithoutStreamStillGetsPanel(t *testing.T) {
	n := &recordingNotifier{}
	m := NewManager(n, nil)

	m.OnTaskComplete(background.Task{ID: "scout-3", Status: background.StatusCancelled})

	p, ok := m.Get(stream.TaskNamespace("scout-3"))
	if !ok {
		t.Fatal("silent task must still produce a finalized panel")
	}
	if p.Status != PanelCancelled {
		t.Errorf("expected cancelled, got %s", p.Status)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.mounted) != 1 || len(n.finalized) != 1 {
		t.Errorf("expected mount then finalize, got %d/%d", len(n.mounted), len(n.finalized))
	}
}

func TestElapsedFreezesOnFinalize(t *testing.T) {
	m := NewManager(nil, nil)
	ns := stream.TaskNamespace("scout-1")

	m.SinkMounted(sinkSnap(ns, stream.SinkActive, ""))
	m.SinkFinalized(sinkSnap(ns, stream.SinkCompleted, ""))

	p, _ := m.Get(ns)
	first := p.Elapsed()
	time.Sleep(15 * time.Millisecond)
	p, _ = m.Get(ns)
	if p.Elapsed() != first {
		t.Errorf("elapsed kept growing after finalize: %s vs %s", first, p.Elapsed())
	}
}

func TestToolCallsTrimmedToRecent(t *testing.T) {
	m := NewManager(nil, nil)
	ns := stream.TaskNamespace("scout-1")

	snap := sinkSnap(ns, stream.SinkActive, "")
	for i := 0; i < 10; i++ {
		snap.ToolCalls = append(snap.ToolCalls, stream.ToolCall{
			CallID: string(rune('a' + i)),
			Tool:   "read_file",
			State:  stream.ToolSucceededState,
		})
	}
	m.SinkUpdated(snap, stream.ToolResult(ns, "j", "read_file", ""))

	p, _ := m.Get(ns)
	if len(p.ToolCalls) != recentToolLines {
		t.Fatalf("expected %d recent calls, got %d", recentToolLines, len(p.ToolCalls))
	}
	if p.ToolCalls[0].CallID != "e" {
		t.Errorf("expected oldest kept call to be e, got %s", p.ToolCalls[0].CallID)
	}
}

func TestActiveCount(t *testing.T) {
	m := NewManager(nil, nil)

	m.SinkMounted(sinkSnap(stream.TaskNamespace("a-1"), stream.SinkActive, ""))
	m.SinkMounted(sinkSnap(stream.TaskNamespace("b-1"), stream.SinkActive, ""))

	if n := m.ActiveCount(); n != 2 {
		t.Fatalf("expected 2 active, got %d", n)
	}

	m.SinkFinalized(sinkSnap(stream.TaskNamespace("a-1"), stream.SinkCompleted, ""))
	if n := m.ActiveCount(); n != 1 {
		t.Fatalf("expected 1 active, got %d", n)
	}
}

func TestUpdateAfterFinalizeKeepsStatus(t *testing.T) {
	m := NewManager(nil, nil)
	ns := stream.TaskNamespace("scout-1")

	m.SinkFinalized(sinkSnap(ns, stream.SinkFailed, ""))
	m.SinkUpdated(sinkSnap(ns, stream.SinkFailed, "late flush"), stream.TextFragment(ns, "late flush"))

	p, _ := m.Get(ns)
	if p.Status != PanelFailed {
		t.Errorf("late update changed status to %s", p.Status)
	}
	if p.Text != "late flush" {
		t.Errorf("late text not recorded: %q", p.Text)
	}
}
