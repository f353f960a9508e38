package events

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func collect(t *testing.T, bus *Bus, types ...EventType) func() []Event {
	t.Helper()
	var mu sync.Mutex
	var got []Event
	cancel := bus.Subscribe(func(e Event) {
		mu.Lock()
		got = append(got, e)
		mu.Unlock()
	}, types...)
	t.Cleanup(cancel)
	return func() []Event {
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		defer mu.Unlock()
		return append([]Event(nil), got...)
	}
}

func TestBusFiltersByType(t *testing.T) {
	bus := NewBus(64)
	defer bus.Close()

	drain := collect(t, bus, EventUserMessage)

	bus.Publish(NewTypedEvent("test", UserMessagePayload{Content: "hello"}))
	bus.Publish(NewTypedEvent("test", AssistantStreamPayload{Phase: StreamPhaseStart}))

	got := drain()
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Type != EventUserMessage {
		t.Errorf("expected user.message, got %s", got[0].Type)
	}
}

func TestBusSubscribeAllTypes(t *testing.T) {
	bus := NewBus(64)
	defer bus.Close()

	drain := collect(t, bus)

	bus.Publish(NewTypedEvent("test", UserMessagePayload{Content: "hello"}))
	bus.Publish(NewTypedEvent("test", TaskPayload{TaskID: "scout-1", Status: "completed"}))

	if got := drain(); len(got) != 2 {
		t.Errorf("expected 2 events, got %d", len(got))
	}
}

func TestBusDeliversInPublishOrder(t *testing.T) {
	bus := NewBus(64)
	defer bus.Close()

	drain := collect(t, bus, EventUserMessage)

	for i := 0; i < 20; i++ {
		bus.Publish(NewTypedEvent("test", UserMessagePayload{Content: fmt.Sprintf("m%d", i)}))
	}

	got := drain()
	if len(got) != 20 {
		t.Fatalf("expected 20 events, got %d", len(got))
	}
	for i, e := range got {
		payload, ok := ExtractPayload[UserMessagePayload](e)
		if !ok || payload.Content != fmt.Sprintf("m%d", i) {
			t.Fatalf("event %d out of order: %+v", i, e.Payload)
		}
	}
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(64)
	defer bus.Close()

	var mu sync.Mutex
	count := 0
	cancel := bus.Subscribe(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	bus.Publish(NewTypedEvent("test", UserMessagePayload{Content: "one"}))
	time.Sleep(50 * time.Millisecond)
	cancel()
	cancel() // second call is a no-op
	bus.Publish(NewTypedEvent("test", UserMessagePayload{Content: "two"}))
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("expected 1 event after unsubscribe, got %d", count)
	}
}

func TestBusSubscribeChan(t *testing.T) {
	bus := NewBus(64)
	defer bus.Close()

	ch, cancel := bus.SubscribeChan(4, EventPromptResponse)
	defer cancel()

	bus.Publish(NewTypedEvent("test", PromptResponsePayload{Token: "t-1", Value: true}))

	select {
	case e := <-ch:
		payload, ok := ExtractPayload[PromptResponsePayload](e)
		if !ok || payload.Token != "t-1" {
			t.Fatalf("unexpected payload: %+v", e.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestBusCloseReleasesSubscribers(t *testing.T) {
	bus := NewBus(8)
	ch, cancel := bus.SubscribeChan(4)
	defer cancel()

	bus.Close()
	bus.Close() // idempotent

	select {
	case _, open := <-ch:
		if open {
			t.Fatal("expected channel closed after bus shutdown")
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber channel not closed on bus shutdown")
	}

	// Publishing and subscribing after shutdown must not panic.
	bus.Publish(NewTypedEvent("test", UserMessagePayload{Content: "dropped"}))
	late, lateCancel := bus.SubscribeChan(1)
	if _, open := <-late; open {
		t.Fatal("late subscriber should get a closed channel")
	}
	lateCancel()
}
