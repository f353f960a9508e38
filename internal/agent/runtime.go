package agent

import (
	"context"
	"log/slog"
	"sync"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/quill-sh/quill/internal/events"
	"github.com/quill-sh/quill/internal/plugins"
	"github.com/quill-sh/quill/internal/stream"
)

// RunnerFactory builds a fresh ADK runner per turn. Eino freezes a runner's
// tool set after its first Run call, so reusing one across turns would pin
// the tools of the first turn forever.
type RunnerFactory struct {
	chatModel   model.ToolCallingChatModel
	persona     string
	middlewares []adk.AgentMiddleware
}

// NewRunnerFactory creates a factory for the given model and persona.
func NewRunnerFactory(chatModel model.ToolCallingChatModel, persona string, middlewares []adk.AgentMiddleware) *RunnerFactory {
	return &RunnerFactory{chatModel: chatModel, persona: persona, middlewares: middlewares}
}

// Streaming builds a streaming runner with the given tools.
func (f *RunnerFactory) Streaming(ctx context.Context, tools []tool.InvokableTool) (*adk.Runner, error) {
	return NewAgent(ctx, f.chatModel, f.persona, tools, f.middlewares)
}

// Buffered builds a non-streaming runner with the given tools.
func (f *RunnerFactory) Buffered(ctx context.Context, persona string, tools []tool.InvokableTool) (*adk.Runner, error) {
	return NewAgentBuffered(ctx, f.chatModel, persona, tools, nil)
}

// RuntimeConfig wires a Runtime together.
type RuntimeConfig struct {
	Factory    *RunnerFactory
	Registry   *plugins.ToolRegistry
	Bus        *events.Bus
	SessionID  string
	Compressor *Compressor // nil disables history compression
}

// Runtime drives the primary conversation. It listens for user messages on
// the bus, runs the agent, and fans the output out two ways: lifecycle
// events on the bus for the transcript, and stream events on the router
// channel under the root namespace. Subagents share the same channel under
// their task namespaces.
type Runtime struct {
	factory    *RunnerFactory
	registry   *plugins.ToolRegistry
	bus        *events.Bus
	sessionID  string
	compressor *Compressor

	out chan stream.Event

	mu       sync.Mutex
	running  bool
	messages []*schema.Message
	summary  string

	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
}

// NewRuntime creates a runtime and subscribes it to user messages.
func NewRuntime(cfg RuntimeConfig) *Runtime {
	ctx, cancel := context.WithCancel(context.Background())
	ctx = events.ContextWithSessionID(ctx, cfg.SessionID)

	rt := &Runtime{
		factory:    cfg.Factory,
		registry:   cfg.Registry,
		bus:        cfg.Bus,
		sessionID:  cfg.SessionID,
		compressor: cfg.Compressor,
		out:        make(chan stream.Event, 256),
		ctx:        ctx,
		cancel:     cancel,
	}

	rt.unsubscribe = cfg.Bus.Subscribe(rt.handleEvent, events.EventUserMessage)
	return rt
}

// Events is the stream consumed by the router.
func (rt *Runtime) Events() <-chan stream.Event { return rt.out }

// Emit places an event on the router channel. Subagent handlers use it to
// publish under their task namespace.
func (rt *Runtime) Emit(ev stream.Event) {
	select {
	case rt.out <- ev:
	case <-rt.ctx.Done():
	}
}

func (rt *Runtime) handleEvent(event events.Event) {
	if event.Type != events.EventUserMessage {
		return
	}
	if payload, ok := events.ExtractPayload[events.UserMessagePayload](event); ok && payload.Content != "" {
		go rt.processMessage(payload.Content)
	}
}

func (rt *Runtime) processMessage(content string) {
	rt.mu.Lock()
	if rt.running {
		rt.mu.Unlock()
		return
	}
	rt.running = true
	rt.mu.Unlock()

	defer func() {
		rt.mu.Lock()
		rt.running = false
		rt.mu.Unlock()
	}()

	rt.messages = append(rt.messages, &schema.Message{Role: schema.User, Content: content})
	rt.compressIfNeeded()

	rt.emitPhase(events.StreamPhaseStart, "")
	final, err := rt.runTurn()
	if err != nil {
		slog.Error("agent turn failed", "error", err)
		rt.emitPhase(events.StreamPhaseEnd, "")
		rt.bus.Publish(events.NewTypedEventWithSession(events.SourceAgent, events.AssistantMessagePayload{
			Error: err.Error(),
		}, rt.sessionID))
		return
	}

	if final != "" {
		rt.messages = append(rt.messages, &schema.Message{Role: schema.Assistant, Content: final})
	}
	rt.emitPhase(events.StreamPhaseEnd, "")
	rt.bus.Publish(events.NewTypedEventWithSession(events.SourceAgent, events.AssistantMessagePayload{
		Content: final,
	}, rt.sessionID))
}

func (rt *Runtime) runTurn() (string, error) {
	runner, err := rt.factory.Streaming(rt.ctx, rt.registry.Tools())
	if err != nil {
		return "", err
	}

	iter := runner.Run(rt.ctx, rt.history(), adk.WithCheckPointID(uuid.NewString()))
	root := stream.Namespace(nil)

	return consumeIterator(iter, root, func(ev stream.Event) {
		rt.Emit(ev)
		rt.publishStreamEvent(ev)
	})
}

// history returns the messages for the next run, with the rolling summary
// (when present) injected ahead of the retained tail.
func (rt *Runtime) history() []*schema.Message {
	if rt.summary == "" {
		return rt.messages
	}
	out := make([]*schema.Message, 0, len(rt.messages)+1)
	out = append(out, &schema.Message{
		Role:    schema.System,
		Content: "## Earlier Conversation (summarized)\n\n" + rt.summary,
	})
	return append(out, rt.messages...)
}

func (rt *Runtime) compressIfNeeded() {
	if rt.compressor == nil {
		return
	}
	result := rt.compressor.Compress(rt.ctx, rt.summary, rt.messages, rt.summarize)
	if result.Compressed {
		rt.messages = result.Messages
		rt.summary = result.Summary
		slog.Info("conversation history compressed", "kept_messages", len(rt.messages))
	}
}

// summarize performs one buffered model call for history compression.
func (rt *Runtime) summarize(ctx context.Context, prompt string) (string, error) {
	runner, err := rt.factory.Buffered(ctx, "You summarize conversations accurately and concisely.", nil)
	if err != nil {
		return "", err
	}
	iter := runner.Run(ctx, []*schema.Message{{Role: schema.User, Content: prompt}})
	return consumeIterator(iter, nil, func(stream.Event) {})
}

// publishStreamEvent mirrors root-namespace stream events onto the bus for
// the transcript view.
func (rt *Runtime) publishStreamEvent(ev stream.Event) {
	switch ev.Kind {
	case stream.KindTextFragment:
		rt.emitPhase(events.StreamPhaseDelta, ev.Text)
	case stream.KindToolInvoked:
		rt.bus.Publish(events.NewTypedEventWithSession(events.SourceAgent, events.ToolCallPayload{
			Status: events.ToolStatusStarted,
			CallID: ev.CallID,
			Name:   ev.Tool,
		}, rt.sessionID))
	case stream.KindToolResult:
		status := events.ToolStatusCompleted
		if ev.Err != "" {
			status = events.ToolStatusFailed
		}
		rt.bus.Publish(events.NewTypedEventWithSession(events.SourceAgent, events.ToolCallPayload{
			Status: status,
			CallID: ev.CallID,
			Name:   ev.Tool,
			Error:  ev.Err,
		}, rt.sessionID))
	}
}

func (rt *Runtime) emitPhase(phase events.StreamPhase, content string) {
	rt.bus.Publish(events.NewTypedEventWithSession(events.SourceAgent, events.AssistantStreamPayload{
		Phase:   phase,
		Content: content,
	}, rt.sessionID))
}

// Close stops the runtime and detaches it from the bus.
func (rt *Runtime) Close() {
	rt.cancel()
	if rt.unsubscribe != nil {
		rt.unsubscribe()
	}
}
