package callbacks

import (
	"context"
	"testing"
	"time"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/quill-sh/quill/internal/events"
)

func waitForEvent(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
		return events.Event{}
	}
}

func TestTelemetryHandlerPublishesUsage(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()

	ch, unsubscribe := bus.SubscribeChan(4, events.EventLLMCall)
	defer unsubscribe()

	handler := NewTelemetryHandler(bus, "claude-sonnet-4")
	info := &einocb.RunInfo{Name: "claude-sonnet-4", Component: components.ComponentOfChatModel}

	handler.OnEnd(context.Background(), info, &model.CallbackOutput{
		Message: &schema.Message{
			Role: schema.Assistant,
			ResponseMeta: &schema.ResponseMeta{
				Usage: &schema.TokenUsage{PromptTokens: 42, CompletionTokens: 7},
			},
		},
	})

	evt := waitForEvent(t, ch)
	payload, ok := events.ExtractPayload[events.LLMCallPayload](evt)
	if !ok {
		t.Fatal("expected LLMCall payload")
	}
	if payload.Phase != "response" {
		t.Fatalf("expected phase response, got %q", payload.Phase)
	}
	if payload.TokensInput != 42 || payload.TokensOutput != 7 {
		t.Fatalf("unexpected token counts: in=%d out=%d", payload.TokensInput, payload.TokensOutput)
	}
	if payload.Model != "claude-sonnet-4" {
		t.Fatalf("unexpected model %q", payload.Model)
	}
}

func TestTelemetryHandlerFallbackModel(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()

	ch, unsubscribe := bus.SubscribeChan(4, events.EventLLMCall)
	defer unsubscribe()

	handler := NewTelemetryHandler(bus, "fallback-model")
	info := &einocb.RunInfo{Component: components.ComponentOfChatModel}

	handler.OnError(context.Background(), info, context.DeadlineExceeded)

	evt := waitForEvent(t, ch)
	payload, ok := events.ExtractPayload[events.LLMCallPayload](evt)
	if !ok {
		t.Fatal("expected LLMCall payload")
	}
	if payload.Phase != "error" {
		t.Fatalf("expected phase error, got %q", payload.Phase)
	}
	if payload.Model != "fallback-model" {
		t.Fatalf("expected fallback model, got %q", payload.Model)
	}
	if payload.Error == "" {
		t.Fatal("expected error message in payload")
	}
}

func TestTelemetryHandlerCarriesSession(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()

	ch, unsubscribe := bus.SubscribeChan(4, events.EventLLMCall)
	defer unsubscribe()

	handler := NewTelemetryHandler(bus, "m")
	info := &einocb.RunInfo{Name: "m", Component: components.ComponentOfChatModel}
	ctx := events.ContextWithSessionID(context.Background(), "session-9")

	handler.OnStart(ctx, info, &model.CallbackInput{})

	evt := waitForEvent(t, ch)
	if evt.SessionID != "session-9" {
		t.Fatalf("expected session-9, got %q", evt.SessionID)
	}
}
