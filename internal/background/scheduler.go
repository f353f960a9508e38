package background

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Handler executes one subordinate task. The scheduler never inspects the
// request beyond passing it through; the return value becomes the task
// result. Handlers must observe ctx cancellation at their next blocking
// point.
type Handler func(ctx context.Context, request any) (any, error)

// Snapshot is a point-in-time view of a task for poll/list callers.
type Snapshot struct {
	ID      string        `json:"id"`
	Type    string        `json:"type"`
	Status  Status        `json:"status"`
	Result  any           `json:"-"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

// liveTask is the concurrent handle for a running task. It is discarded once
// the task is terminal; the Registry keeps the durable record.
type liveTask struct {
	cancel context.CancelFunc
	done   chan struct{} // closed after the terminal status is recorded
}

// Scheduler launches subordinate executions as goroutines and exposes
// fire-and-forget, non-blocking poll, and blocking wait access patterns. All
// handler failures are contained here and turned into terminal task state;
// they never reach the primary loop.
type Scheduler struct {
	reg *Registry

	mu        sync.Mutex
	live      map[string]*liveTask
	callbacks []func(Task)
}

// NewScheduler creates a scheduler over the given registry.
func NewScheduler(reg *Registry) *Scheduler {
	return &Scheduler{
		reg:  reg,
		live: make(map[string]*liveTask),
	}
}

// Launch allocates an id, starts handler(request) on its own goroutine, and
// returns the id immediately. The task is running from the caller's point of
// view as soon as Launch returns.
func (s *Scheduler) Launch(taskType string, request any, handler Handler) string {
	id := s.reg.GenerateID(taskType)
	if err := s.reg.RecordRunning(id, taskType, request); err != nil {
		// Unreachable with a freshly generated id; if it happens the
		// registry caught a real bug, so make it visible.
		slog.Error("background: record running", "task_id", id, "error", err)
		return id
	}

	ctx, cancel := context.WithCancel(ContextWithTaskID(context.Background(), id))
	lt := &liveTask{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.live[id] = lt
	s.mu.Unlock()

	go s.run(ctx, id, request, handler, lt)
	return id
}

// run executes the handler, records the terminal state exactly once, and
// fans out completion callbacks. It must not let anything escape: a handler
// panic becomes a failed task, never a crashed process.
func (s *Scheduler) run(ctx context.Context, id string, request any, handler Handler, lt *liveTask) {
	defer lt.cancel()

	result, err := invoke(ctx, request, handler)

	status := StatusCompleted
	switch {
	case errors.Is(err, context.Canceled) || (ctx.Err() != nil && err != nil):
		status = StatusCancelled
		if err != nil && !errors.Is(err, context.Canceled) {
			// A cancel raced a real failure; keep the cause visible.
			err = fmt.Errorf("task was cancelled: %w", err)
		} else {
			err = errors.New("task was cancelled")
		}
	case errors.Is(err, ErrApprovalRequired):
		status = StatusFailed
		err = fmt.Errorf("subagent requires interactive approval — run task %q again with wait_for_task instead", id)
	case err != nil:
		status = StatusFailed
	}

	task, recErr := s.reg.RecordTerminal(id, status, result, err)
	if recErr != nil {
		// Invariant violation (double completion or unknown id). Surface
		// loudly rather than silently dropping it, and release the live
		// handle either way.
		slog.Error("background: record terminal", "task_id", id, "status", status, "error", recErr)
		s.mu.Lock()
		delete(s.live, id)
		s.mu.Unlock()
		close(lt.done)
		return
	}

	s.mu.Lock()
	delete(s.live, id)
	callbacks := make([]func(Task), len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.mu.Unlock()

	// Waiters may proceed as soon as the registry holds the terminal state.
	close(lt.done)

	for _, cb := range callbacks {
		notify(cb, task)
	}
}

// invoke runs the handler with panic containment.
func invoke(ctx context.Context, request any, handler Handler) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return handler(ctx, request)
}

// notify invokes one completion observer, isolating its panics so a broken
// observer cannot take down the notifying goroutine.
func notify(cb func(Task), task Task) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("background: completion callback panic", "task_id", task.ID, "panic", p)
		}
	}()
	cb(task)
}

// Check returns the current status without blocking. Ids never seen yield a
// StatusUnknown snapshot rather than an error.
func (s *Scheduler) Check(id string) Snapshot {
	t, ok := s.reg.Get(id)
	if !ok {
		return Snapshot{ID: id, Status: StatusUnknown}
	}
	return snapshot(t)
}

// Wait blocks the calling goroutine until the task reaches a terminal state,
// then returns the stored result or an error describing the failure. Already
// terminal tasks return immediately; the handler is never re-invoked. An id
// that was never launched fails with *UnknownTaskError.
func (s *Scheduler) Wait(ctx context.Context, id string) (any, error) {
	s.mu.Lock()
	lt, live := s.live[id]
	s.mu.Unlock()

	t, ok := s.reg.Get(id)
	if !ok {
		return nil, &UnknownTaskError{ID: id}
	}

	if !t.Status.Terminal() {
		if !live {
			// Terminal state was recorded between the two lookups; the
			// registry read below will see it.
		} else {
			select {
			case <-lt.done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		t, _ = s.reg.Get(id)
	}

	switch t.Status {
	case StatusCompleted:
		return t.Result, nil
	case StatusCancelled:
		if t.Error != "" {
			return nil, fmt.Errorf("task %q: %s", id, t.Error)
		}
		return nil, fmt.Errorf("task %q was cancelled", id)
	default:
		return nil, fmt.Errorf("task %q failed: %s", id, t.Error)
	}
}

// ListTasks returns snapshots of all tasks in creation order.
func (s *Scheduler) ListTasks() []Snapshot {
	all := s.reg.ListAll()
	out := make([]Snapshot, 0, len(all))
	for _, t := range all {
		out = append(out, snapshot(t))
	}
	return out
}

// Cancel requests cancellation of a running task. It is a no-op, not an
// error, when the task is already terminal or unknown.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	lt, ok := s.live[id]
	s.mu.Unlock()
	if ok {
		lt.cancel()
	}
}

// OnComplete registers an observer invoked with the finished task whenever
// any task reaches a terminal state. Observer panics are caught and logged.
func (s *Scheduler) OnComplete(cb func(Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

// RunningCount returns how many tasks are currently running.
func (s *Scheduler) RunningCount() int {
	return s.reg.RunningCount()
}

// Cleanup cancels every running task. Safe to call when nothing is running;
// used at session boundaries.
func (s *Scheduler) Cleanup() {
	s.mu.Lock()
	lts := make([]*liveTask, 0, len(s.live))
	for _, lt := range s.live {
		lts = append(lts, lt)
	}
	s.mu.Unlock()

	for _, lt := range lts {
		lt.cancel()
	}
}

func snapshot(t Task) Snapshot {
	snap := Snapshot{
		ID:     t.ID,
		Type:   t.Type,
		Status: t.Status,
		Result: t.Result,
		Error:  t.Error,
	}
	if t.Status.Terminal() {
		snap.Elapsed = t.FinishedAt.Sub(t.CreatedAt)
	} else {
		snap.Elapsed = time.Since(t.CreatedAt)
	}
	return snap
}
