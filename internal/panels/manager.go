// Package panels keeps the display state of subagent panels. The Manager
// listens to two unsynchronized terminal signals for each task, the stream's
// end-of-namespace marker and the scheduler's completion callback, and
// guarantees each panel finalizes exactly once no matter which arrives first.
package panels

import (
	"log/slog"
	"sync"
	"time"

	"github.com/quill-sh/quill/internal/background"
	"github.com/quill-sh/quill/internal/stream"
)

// recentToolLines bounds how many tool invocations a panel shows.
const recentToolLines = 6

// PanelStatus is the display state of one panel.
type PanelStatus string

const (
	PanelRunning   PanelStatus = "running"
	PanelCompleted PanelStatus = "completed"
	PanelFailed    PanelStatus = "failed"
	PanelCancelled PanelStatus = "cancelled"
)

// Panel is an immutable display snapshot handed to the notifier.
type Panel struct {
	Namespace  stream.Namespace
	Title      string
	Status     PanelStatus
	Text       string
	ToolCalls  []stream.ToolCall
	Err        string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Elapsed returns the panel's runtime, frozen once finalized.
func (p Panel) Elapsed() time.Duration {
	if !p.FinishedAt.IsZero() {
		return p.FinishedAt.Sub(p.StartedAt)
	}
	return time.Since(p.StartedAt)
}

// Finalized reports whether the panel reached a terminal display state.
func (p Panel) Finalized() bool {
	return p.Status != PanelRunning
}

// Notifier receives panel lifecycle changes. The TUI bridges these into its
// own message loop; tests use a recording implementation.
type Notifier interface {
	PanelMounted(p Panel)
	PanelUpdated(p Panel)
	PanelFinalized(p Panel)
}

type panel struct {
	ns         stream.Namespace
	title      string
	status     PanelStatus
	text       string
	calls      []stream.ToolCall
	errMsg     string
	startedAt  time.Time
	finishedAt time.Time
	finalized  bool
}

func (p *panel) snapshot() Panel {
	calls := make([]stream.ToolCall, len(p.calls))
	copy(calls, p.calls)
	return Panel{
		Namespace:  append(stream.Namespace(nil), p.ns...),
		Title:      p.title,
		Status:     p.status,
		Text:       p.text,
		ToolCalls:  calls,
		Err:        p.errMsg,
		StartedAt:  p.startedAt,
		FinishedAt: p.finishedAt,
	}
}

// Manager owns the panel table. It implements stream.Listener for router
// signals and exposes OnTaskComplete for the scheduler's callback.
type Manager struct {
	mu       sync.Mutex
	panels   map[string]*panel
	order    []string
	notifier Notifier
	logger   *slog.Logger
}

// NewManager creates a manager delivering lifecycle changes to notifier.
// A nil notifier is valid; state is still tracked and queryable.
func NewManager(notifier Notifier, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		panels:   make(map[string]*panel),
		notifier: notifier,
		logger:   logger,
	}
}

// SinkMounted mounts a panel for a new subagent namespace. The primary
// conversation is rendered by the chat view, never as a panel.
func (m *Manager) SinkMounted(snap stream.SinkSnapshot) {
	if snap.Namespace.IsRoot() {
		return
	}

	m.mu.Lock()
	key := snap.Namespace.Key()
	if _, ok := m.panels[key]; ok {
		m.mu.Unlock()
		return
	}
	p := m.mount(snap.Namespace, snap.StartedAt)
	view := p.snapshot()
	m.mu.Unlock()

	m.notifyMounted(view)
}

// SinkUpdated refreshes a panel with the sink's latest accumulated state.
// Updates after finalization still land; a late text fragment belongs to the
// durable record even though the status no longer changes.
func (m *Manager) SinkUpdated(snap stream.SinkSnapshot, ev stream.Event) {
	if snap.Namespace.IsRoot() {
		return
	}

	m.mu.Lock()
	key := snap.Namespace.Key()
	p, ok := m.panels[key]
	if !ok {
		p = m.mount(snap.Namespace, snap.StartedAt)
	}
	p.text = snap.Text
	p.calls = tail(snap.ToolCalls, recentToolLines)
	view := p.snapshot()
	m.mu.Unlock()

	if !ok {
		m.notifyMounted(view)
	}
	m.notifyUpdated(view)
}

// SinkFinalized finalizes the panel from the stream's terminal marker.
func (m *Manager) SinkFinalized(snap stream.SinkSnapshot) {
	if snap.Namespace.IsRoot() {
		return
	}
	status := PanelCompleted
	if snap.Status == stream.SinkFailed {
		status = PanelFailed
	}
	m.finalize(snap.Namespace, status, snap.Err, snap.Text, snap.ToolCalls)
}

// OnTaskComplete finalizes the panel from the scheduler's completion
// callback. A task that finished before emitting any stream event still gets
// a panel, mounted and finalized in one step.
func (m *Manager) OnTaskComplete(task background.Task) {
	ns := stream.TaskNamespace(task.ID)

	var status PanelStatus
	switch task.Status {
	case background.StatusCompleted:
		status = PanelCompleted
	case background.StatusCancelled:
		status = PanelCancelled
	default:
		status = PanelFailed
	}
	m.finalize(ns, status, task.Error, "", nil)
}

// finalize applies a terminal display state exactly once per panel. The
// second of the two upstream terminal signals is a no-op.
func (m *Manager) finalize(ns stream.Namespace, status PanelStatus, errMsg, text string, calls []stream.ToolCall) {
	m.mu.Lock()
	key := ns.Key()
	p, ok := m.panels[key]
	mounted := false
	if !ok {
		p = m.mount(ns, time.Now())
		mounted = true
	}
	if p.finalized {
		m.mu.Unlock()
		m.logger.Debug("panels: duplicate finalize ignored", "namespace", key)
		return
	}
	p.finalized = true
	p.status = status
	p.finishedAt = time.Now()
	if errMsg != "" {
		p.errMsg = errMsg
	}
	if text != "" {
		p.text = text
	}
	if len(calls) > 0 {
		p.calls = tail(calls, recentToolLines)
	}
	view := p.snapshot()
	m.mu.Unlock()

	if mounted {
		m.notifyMounted(view)
	}
	m.notifyFinalized(view)
}

// mount creates the panel entry; callers hold m.mu.
func (m *Manager) mount(ns stream.Namespace, startedAt time.Time) *panel {
	p := &panel{
		ns:        append(stream.Namespace(nil), ns...),
		title:     ns.Label(),
		status:    PanelRunning,
		startedAt: startedAt,
	}
	m.panels[ns.Key()] = p
	m.order = append(m.order, ns.Key())
	return p
}

// Get returns the panel snapshot for ns, if one exists.
func (m *Manager) Get(ns stream.Namespace) (Panel, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.panels[ns.Key()]
	if !ok {
		return Panel{}, false
	}
	return p.snapshot(), true
}

// List returns all panels in mount order.
func (m *Manager) List() []Panel {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Panel, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, m.panels[key].snapshot())
	}
	return out
}

// ActiveCount returns how many panels have not finalized yet.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.panels {
		if !p.finalized {
			n++
		}
	}
	return n
}

func (m *Manager) notifyMounted(p Panel) {
	if m.notifier != nil {
		m.notifier.PanelMounted(p)
	}
}

func (m *Manager) notifyUpdated(p Panel) {
	if m.notifier != nil {
		m.notifier.PanelUpdated(p)
	}
}

func (m *Manager) notifyFinalized(p Panel) {
	if m.notifier != nil {
		m.notifier.PanelFinalized(p)
	}
}

func tail(calls []stream.ToolCall, n int) []stream.ToolCall {
	if len(calls) > n {
		calls = calls[len(calls)-n:]
	}
	out := make([]stream.ToolCall, len(calls))
	copy(out, calls)
	return out
}
