package molecules

import (
	"testing"
)

func TestRecallWalksNewestFirst(t *testing.T) {
	r := recall{cursor: -1}
	r.push("first")
	r.push("second")

	line, ok := r.older("")
	if !ok || line != "second" {
		t.Fatalf("older = %q, %v", line, ok)
	}
	line, ok = r.older("")
	if !ok || line != "first" {
		t.Fatalf("older = %q, %v", line, ok)
	}
	// Walking past the oldest entry stays put.
	line, ok = r.older("")
	if !ok || line != "first" {
		t.Fatalf("older past start = %q, %v", line, ok)
	}
}

func TestRecallRestoresDraft(t *testing.T) {
	r := recall{cursor: -1}
	r.push("sent earlier")

	line, ok := r.older("half-typed message")
	if !ok || line != "sent earlier" {
		t.Fatalf("older = %q, %v", line, ok)
	}
	line, ok = r.newer()
	if !ok || line != "half-typed message" {
		t.Fatalf("newer should restore the draft, got %q, %v", line, ok)
	}
	if _, ok := r.newer(); ok {
		t.Fatal("newer while not browsing should report false")
	}
}

func TestRecallEmptyHistory(t *testing.T) {
	r := recall{cursor: -1}
	if _, ok := r.older("draft"); ok {
		t.Fatal("older on empty history should report false")
	}
	if _, ok := r.newer(); ok {
		t.Fatal("newer on empty history should report false")
	}
}

func TestRecallPushResetsCursor(t *testing.T) {
	r := recall{cursor: -1}
	r.push("one")
	if _, ok := r.older(""); !ok {
		t.Fatal("older failed")
	}
	r.push("two")
	line, ok := r.older("")
	if !ok || line != "two" {
		t.Fatalf("older after push = %q, %v, want newest entry", line, ok)
	}
}
