// Package background runs subagent executions concurrently with the primary
// conversation loop. The Registry is the single source of truth for task
// identity and terminal outcomes; the Scheduler owns the concurrency model on
// top of it.
package background

import (
	"fmt"
	"sync"
	"time"
)

// Status is the lifecycle state of a background task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"

	// StatusUnknown is reported by Check for ids never launched. Racing a
	// check against a launch is an expected caller pattern, so this is a
	// snapshot value rather than an error.
	StatusUnknown Status = "unknown"
)

// Terminal reports whether no further transition can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Task is one background execution unit. The Registry owns the canonical
// record for the task's entire life; everything handed out is a copy.
type Task struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Status     Status    `json:"status"`
	Request    any       `json:"-"`
	Result     any       `json:"-"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

// Registry tracks identity, status, and result of every background execution.
type Registry struct {
	mu       sync.Mutex
	counters map[string]int
	tasks    map[string]*Task
	order    []string
}

// NewRegistry creates an empty registry. Each session owns its own instance;
// there is no package-level state.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]int),
		tasks:    make(map[string]*Task),
	}
}

// GenerateID returns a fresh "<type>-<ordinal>" id. Ordinals increment per
// type and are never reused within the process lifetime.
func (r *Registry) GenerateID(taskType string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[taskType]++
	return fmt.Sprintf("%s-%d", taskType, r.counters[taskType])
}

// RecordRunning registers a task as live. It fails with *DuplicateTaskError
// when the id is already tracked and not terminal.
func (r *Registry) RecordRunning(id, taskType string, request any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.tasks[id]; ok && !existing.Status.Terminal() {
		return &DuplicateTaskError{ID: id}
	}
	if _, ok := r.tasks[id]; !ok {
		r.order = append(r.order, id)
	}
	r.tasks[id] = &Task{
		ID:        id,
		Type:      taskType,
		Status:    StatusRunning,
		Request:   request,
		CreatedAt: time.Now(),
	}
	return nil
}

// RecordTerminal transitions a task to a terminal status exactly once and
// returns a snapshot of the finished task. A second call for the same id
// fails with *AlreadyTerminalError: idempotent re-delivery must be filtered
// upstream, a double completion here means a scheduler bug.
func (r *Registry) RecordTerminal(id string, status Status, result any, taskErr error) (Task, error) {
	if !status.Terminal() {
		return Task{}, fmt.Errorf("record terminal: %q is not a terminal status", status)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return Task{}, &UnknownTaskError{ID: id}
	}
	if t.Status.Terminal() {
		return Task{}, &AlreadyTerminalError{ID: id, Status: t.Status}
	}

	t.Status = status
	t.Result = result
	t.FinishedAt = time.Now()
	if taskErr != nil {
		t.Error = taskErr.Error()
	}
	return *t, nil
}

// Get returns a snapshot of the task, never a live reference.
func (r *Registry) Get(id string) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// ListAll returns snapshots of every tracked task in creation order.
func (r *Registry) ListAll() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Task, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.tasks[id])
	}
	return out
}

// RunningCount returns the number of tasks not yet terminal.
func (r *Registry) RunningCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tasks {
		if !t.Status.Terminal() {
			n++
		}
	}
	return n
}
