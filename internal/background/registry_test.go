package background

import (
	"errors"
	"testing"
)

func TestGenerateIDSequence(t *testing.T) {
	reg := NewRegistry()

	if id := reg.GenerateID("research"); id != "research-1" {
		t.Fatalf("expected research-1, got %s", id)
	}
	if id := reg.GenerateID("research"); id != "research-2" {
		t.Fatalf("expected research-2, got %s", id)
	}
	if id := reg.GenerateID("critique"); id != "critique-1" {
		t.Fatalf("expected critique-1, got %s", id)
	}
}

func TestRecordRunningDuplicate(t *testing.T) {
	reg := NewRegistry()

	if err := reg.RecordRunning("research-1", "research", nil); err != nil {
		t.Fatalf("first record: %v", err)
	}

	err := reg.RecordRunning("research-1", "research", nil)
	var dup *DuplicateTaskError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateTaskError, got %v", err)
	}
	if dup.ID != "research-1" {
		t.Errorf("expected id research-1 in error, got %s", dup.ID)
	}
}

func TestRecordTerminal(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RecordRunning("research-1", "research", "req"); err != nil {
		t.Fatal(err)
	}

	task, err := reg.RecordTerminal("research-1", StatusCompleted, "done", nil)
	if err != nil {
		t.Fatalf("record terminal: %v", err)
	}
	if task.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", task.Status)
	}
	if task.Result != "done" {
		t.Errorf("expected result done, got %v", task.Result)
	}
	if task.FinishedAt.IsZero() {
		t.Error("expected FinishedAt to be set")
	}
}

func TestRecordTerminalUnknown(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.RecordTerminal("ghost-1", StatusCompleted, nil, nil)
	var unknown *UnknownTaskError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownTaskError, got %v", err)
	}
}

func TestRecordTerminalTwice(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RecordRunning("research-1", "research", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.RecordTerminal("research-1", StatusCompleted, nil, nil); err != nil {
		t.Fatal(err)
	}

	_, err := reg.RecordTerminal("research-1", StatusFailed, nil, errors.New("boom"))
	var already *AlreadyTerminalError
	if !errors.As(err, &already) {
		t.Fatalf("expected AlreadyTerminalError, got %v", err)
	}
	if already.Status != StatusCompleted {
		t.Errorf("expected recorded status completed, got %s", already.Status)
	}
}

func TestRecordTerminalRejectsNonTerminalStatus(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RecordRunning("research-1", "research", nil); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.RecordTerminal("research-1", StatusRunning, nil, nil); err == nil {
		t.Fatal("expected error for non-terminal status")
	}
}

func TestListAllPreservesCreationOrder(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"a-1", "b-1", "a-2"} {
		if err := reg.RecordRunning(id, "x", nil); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := reg.RecordTerminal("b-1", StatusFailed, nil, errors.New("boom")); err != nil {
		t.Fatal(err)
	}

	all := reg.ListAll()
	if len(all) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(all))
	}
	want := []string{"a-1", "b-1", "a-2"}
	for i, t2 := range all {
		if t2.ID != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], t2.ID)
		}
	}
	if all[1].Error != "boom" {
		t.Errorf("expected stored error on b-1, got %q", all[1].Error)
	}
}

func TestRunningCount(t *testing.T) {
	reg := NewRegistry()
	_ = reg.RecordRunning("a-1", "a", nil)
	_ = reg.RecordRunning("a-2", "a", nil)

	if n := reg.RunningCount(); n != 2 {
		t.Fatalf("expected 2 running, got %d", n)
	}
	if _, err := reg.RecordTerminal("a-1", StatusCancelled, nil, nil); err != nil {
		t.Fatal(err)
	}
	if n := reg.RunningCount(); n != 1 {
		t.Fatalf("expected 1 running, got %d", n)
	}
}

func TestGetSnapshotIsolation(t *testing.T) {
	reg := NewRegistry()
	_ = reg.RecordRunning("a-1", "a", nil)

	snap, ok := reg.Get("a-1")
	if !ok {
		t.Fatal("expected task to exist")
	}
	snap.Status = StatusFailed

	again, _ := reg.Get("a-1")
	if again.Status != StatusRunning {
		t.Errorf("snapshot mutation leaked into registry: %s", again.Status)
	}
}
