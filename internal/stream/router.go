package stream

import (
	"context"
	"log/slog"
	"sync"
)

// Listener receives sink lifecycle signals from the Router. Mounted fires
// once per namespace on its first event, Updated on every subsequent change,
// Finalized exactly once when the terminal marker lands. All three receive a
// snapshot taken after the triggering event was applied.
type Listener interface {
	SinkMounted(snap SinkSnapshot)
	SinkUpdated(snap SinkSnapshot, ev Event)
	SinkFinalized(snap SinkSnapshot)
}

// Router owns the sink table and delivers each event of the run's single
// ordered sequence to the sink matching its namespace. The primary sink (the
// empty namespace) always exists; subagent sinks are created on first sight
// and kept after finalization so panels remain visible as a durable record.
type Router struct {
	mu        sync.Mutex
	sinks     map[string]*sink
	order     []string
	listeners []Listener
	logger    *slog.Logger
}

// NewRouter creates a router with its primary sink already mounted.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		sinks:  make(map[string]*sink),
		logger: logger,
	}
	root := Namespace(nil)
	r.sinks[root.Key()] = newSink(root)
	r.order = append(r.order, root.Key())
	return r
}

// AddListener registers a lifecycle listener. Not safe to call concurrently
// with Dispatch; register listeners before the run starts.
func (r *Router) AddListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Run consumes events until the channel closes or ctx is cancelled. The
// router is the sequence's single reader; arrival order within a namespace is
// preserved exactly.
func (r *Router) Run(ctx context.Context, events <-chan Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.Dispatch(ev)
		}
	}
}

// Dispatch applies one event to its sink and notifies listeners. Malformed
// events are logged and skipped; they never abort the stream.
func (r *Router) Dispatch(ev Event) {
	switch ev.Kind {
	case KindTextFragment, KindToolInvoked, KindToolResult, KindNamespaceTerminal:
	default:
		r.logger.Warn("stream: skipping event with unknown kind",
			"kind", string(ev.Kind), "namespace", ev.Namespace.Key())
		return
	}

	r.mu.Lock()
	key := ev.Namespace.Key()
	s, ok := r.sinks[key]
	mounted := false
	if !ok {
		s = newSink(ev.Namespace)
		r.sinks[key] = s
		r.order = append(r.order, key)
		mounted = true
	}

	finalized := false
	switch ev.Kind {
	case KindTextFragment:
		s.appendText(ev.Text)
	case KindToolInvoked:
		s.toolInvoked(ev.CallID, ev.Tool)
	case KindToolResult:
		s.toolResult(ev.CallID, ev.Tool, ev.Err)
	case KindNamespaceTerminal:
		finalized = s.finalize(ev.Err)
	}

	snap := s.snapshot()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()

	// Listeners run outside the lock so a slow consumer cannot stall
	// unrelated dispatches issued from other goroutines.
	for _, l := range listeners {
		if mounted {
			l.SinkMounted(snap)
		}
		switch {
		case finalized:
			l.SinkFinalized(snap)
		case ev.Kind == KindNamespaceTerminal:
			// Duplicate terminal marker; already finalized, nothing to say.
		default:
			l.SinkUpdated(snap, ev)
		}
	}
}

// Sink returns a snapshot of the sink for ns, if one exists.
func (r *Router) Sink(ns Namespace) (SinkSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sinks[ns.Key()]
	if !ok {
		return SinkSnapshot{}, false
	}
	return s.snapshot(), true
}

// Sinks returns snapshots of all sinks in creation order, primary first.
func (r *Router) Sinks() []SinkSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SinkSnapshot, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.sinks[key].snapshot())
	}
	return out
}

// ActiveNamespaces returns how many non-primary sinks have not yet seen
// their terminal marker.
func (r *Router) ActiveNamespaces() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.sinks {
		if !s.namespace.IsRoot() && s.status == SinkActive {
			n++
		}
	}
	return n
}
