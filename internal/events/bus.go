// Package events carries quill's internal pub/sub traffic: user messages
// into the agent runtime, assistant and task activity out to the TUI,
// prompt round-trips, and LLM telemetry for the usage ledger.
package events

import (
	"sync"
)

// Subscriber receives events, one at a time, in publish order.
type Subscriber func(Event)

// subscriber owns a delivery queue so a slow consumer only ever loses its
// own events, and each consumer sees them in the order they were published.
type subscriber struct {
	types map[EventType]struct{} // nil means every type
	queue chan Event
}

func (s *subscriber) wants(t EventType) bool {
	if s.types == nil {
		return true
	}
	_, ok := s.types[t]
	return ok
}

func typeSet(types []EventType) map[EventType]struct{} {
	if len(types) == 0 {
		return nil
	}
	set := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return set
}

// Bus is quill's in-process event bus. Publishing never blocks: when the
// intake or a subscriber queue is full the event is dropped for that path.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	intake chan Event
	done   chan struct{}
	closed bool
}

// NewBus starts a bus whose intake holds bufferSize pending events.
func NewBus(bufferSize int) *Bus {
	b := &Bus{
		subs:   make(map[uint64]*subscriber),
		intake: make(chan Event, bufferSize),
		done:   make(chan struct{}),
	}
	go b.fanOut()
	return b
}

func (b *Bus) fanOut() {
	for {
		select {
		case evt := <-b.intake:
			b.mu.Lock()
			for _, sub := range b.subs {
				if !sub.wants(evt.Type) {
					continue
				}
				select {
				case sub.queue <- evt:
				default: // consumer is behind, drop
				}
			}
			b.mu.Unlock()
		case <-b.done:
			return
		}
	}
}

// Publish enqueues an event. Events published after Close, or while the
// intake is full, are dropped.
func (b *Bus) Publish(evt Event) {
	select {
	case <-b.done:
		return
	default:
	}
	select {
	case b.intake <- evt:
	default:
	}
}

// Subscribe registers a handler for the given event types (all types when
// none are given) and returns an unsubscribe function. The handler runs on
// its own goroutine and is never called concurrently with itself.
func (b *Bus) Subscribe(handler Subscriber, types ...EventType) func() {
	ch, cancel := b.SubscribeChan(64, types...)
	go func() {
		for evt := range ch {
			handler(evt)
		}
	}()
	return cancel
}

// SubscribeChan registers a subscriber and returns its delivery channel.
// The returned cancel func detaches the subscriber and closes the channel;
// it is safe to call more than once.
func (b *Bus) SubscribeChan(bufSize int, types ...EventType) (<-chan Event, func()) {
	sub := &subscriber{
		types: typeSet(types),
		queue: make(chan Event, bufSize),
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	if b.closed {
		// Already shut down; hand back a closed channel.
		close(sub.queue)
	} else {
		b.subs[id] = sub
	}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub.queue)
			}
			b.mu.Unlock()
		})
	}
	return sub.queue, cancel
}

// Close shuts the bus down and closes every subscriber channel. Idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.queue)
	}
}
