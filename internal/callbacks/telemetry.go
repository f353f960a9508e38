// Package callbacks bridges Eino model callbacks to the event bus.
package callbacks

import (
	"context"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	ub "github.com/cloudwego/eino/utils/callbacks"

	"github.com/quill-sh/quill/internal/events"
)

// NewTelemetryHandler creates a callback handler that publishes one
// LLMCall event per model request, response, and error. The usage
// ledger and the status bar token counters feed off these events.
// fallbackModel is reported when the run info carries no name.
func NewTelemetryHandler(bus *events.Bus, fallbackModel string) callbacks.Handler {
	publish := func(ctx context.Context, payload events.LLMCallPayload) {
		if payload.Model == "" {
			payload.Model = fallbackModel
		}
		if sid := events.SessionIDFromContext(ctx); sid != "" {
			bus.Publish(events.NewTypedEventWithSession(events.SourceAgent, payload, sid))
		} else {
			bus.Publish(events.NewTypedEvent(events.SourceAgent, payload))
		}
	}

	modelHandler := &ub.ModelCallbackHandler{
		OnStart: func(ctx context.Context, _ *callbacks.RunInfo, _ *model.CallbackInput) context.Context {
			publish(ctx, events.LLMCallPayload{Phase: "request"})
			return ctx
		},
		OnEnd: func(ctx context.Context, info *callbacks.RunInfo, output *model.CallbackOutput) context.Context {
			payload := events.LLMCallPayload{
				Phase: "response",
				Model: runName(info),
			}
			if output.Message != nil && output.Message.ResponseMeta != nil && output.Message.ResponseMeta.Usage != nil {
				payload.TokensInput = output.Message.ResponseMeta.Usage.PromptTokens
				payload.TokensOutput = output.Message.ResponseMeta.Usage.CompletionTokens
			}
			publish(ctx, payload)
			return ctx
		},
		OnError: func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			publish(ctx, events.LLMCallPayload{
				Phase: "error",
				Model: runName(info),
				Error: err.Error(),
			})
			return ctx
		},
	}

	return ub.NewHandlerHelper().
		ChatModel(modelHandler).
		Handler()
}

func runName(info *callbacks.RunInfo) string {
	if info == nil {
		return ""
	}
	return info.Name
}
