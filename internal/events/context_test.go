package events

import (
	"context"
	"testing"
)

func TestSessionIDContext(t *testing.T) {
	ctx := context.Background()
	if SessionIDFromContext(ctx) != "" {
		t.Error("expected empty session id on bare context")
	}

	ctx = ContextWithSessionID(ctx, "sess-42")
	if got := SessionIDFromContext(ctx); got != "sess-42" {
		t.Errorf("expected sess-42, got %s", got)
	}
}

func TestBackgroundContext(t *testing.T) {
	ctx := context.Background()
	if IsBackgroundContext(ctx) {
		t.Error("bare context should not be background")
	}

	ctx = ContextWithBackground(ctx)
	if !IsBackgroundContext(ctx) {
		t.Error("expected background marker")
	}
}
