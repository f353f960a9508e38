package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/adk"
	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/google/uuid"

	"github.com/quill-sh/quill/internal/agent"
	"github.com/quill-sh/quill/internal/background"
	"github.com/quill-sh/quill/internal/callbacks"
	"github.com/quill-sh/quill/internal/config"
	"github.com/quill-sh/quill/internal/events"
	"github.com/quill-sh/quill/internal/mcp"
	"github.com/quill-sh/quill/internal/models"
	"github.com/quill-sh/quill/internal/panels"
	"github.com/quill-sh/quill/internal/plugins"
	"github.com/quill-sh/quill/internal/storage"
	"github.com/quill-sh/quill/internal/stream"
)

// defaultContextWindow is the token budget used for history compression
// when the provider config doesn't say otherwise.
const defaultContextWindow = 120_000

// app holds the wired-together pieces shared by the interactive commands.
type app struct {
	cfg       *config.Config
	bus       *events.Bus
	scheduler *background.Scheduler
	router    *stream.Router
	panels    *panels.Manager
	registry  *plugins.ToolRegistry
	perms     *plugins.ToolPermissions
	connector *mcp.Connector
	runtime   *agent.Runtime
	subagents *agent.SubagentManager
	eventLog  *storage.EventLogger
	ledger    *storage.UsageLedger
	sessionID string
	modelName string

	cancelRouter context.CancelFunc
}

// buildApp assembles the full agent stack: bus, model, tools, scheduler,
// router, panels, subagents, runtime, and storage. The notifier may be nil
// for non-TUI frontends.
func buildApp(ctx context.Context, cfg *config.Config, notifier panels.Notifier) (*app, error) {
	a := &app{
		cfg:       cfg,
		sessionID: uuid.NewString(),
	}

	a.bus = events.NewBus(cfg.Events.BufferSize)

	modelRegistry := models.NewRegistry(cfg.Models)
	chatModel, err := modelRegistry.Default(ctx)
	if err != nil {
		a.bus.Close()
		return nil, fmt.Errorf("init default model: %w", err)
	}
	a.modelName = modelRegistry.DefaultName()

	// Token usage flows to the ledger and the status bar through
	// model callbacks; runners pick up global handlers on creation.
	einocb.AppendGlobalHandlers(callbacks.NewTelemetryHandler(a.bus, a.modelName))

	a.scheduler = background.NewScheduler(background.NewRegistry())
	a.panels = panels.NewManager(notifier, slog.Default())

	// Tool registry without task tools; those need the subagent manager,
	// which in turn needs the registry.
	registry, perms, err := plugins.SetupToolRegistry(ctx, cfg, a.bus, a.scheduler, nil)
	if err != nil {
		a.bus.Close()
		return nil, fmt.Errorf("setup tools: %w", err)
	}
	a.registry = registry
	a.perms = perms

	// External MCP servers.
	a.connector = mcp.NewConnector()
	if remote := a.connector.ConnectAll(ctx, cfg.MCP.Servers); len(remote) > 0 {
		if err := mcp.RegisterRemoteTools(registry, remote); err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("register mcp tools: %w", err)
		}
	}

	persona := agent.LoadPersona()
	factory := agent.NewRunnerFactory(chatModel, persona,
		[]adk.AgentMiddleware{agent.NewInstructionMiddleware(cfg.Agent.SystemPrompt)})

	a.runtime = agent.NewRuntime(agent.RuntimeConfig{
		Factory:   factory,
		Registry:  registry,
		Bus:       a.bus,
		SessionID: a.sessionID,
		Compressor: agent.NewCompressor(agent.CompressorConfig{
			ContextWindow: defaultContextWindow,
		}),
	})

	roles, err := agent.LoadRoles(cfg.Agent.RolesDir)
	if err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("load roles: %w", err)
	}
	a.subagents = agent.NewSubagentManager(factory, registry, roles, a.runtime.Emit)

	if err := registry.RegisterNative(
		plugins.TaskManifest(a.subagents.RoleNames()),
		plugins.NewTaskTools(a.scheduler, a.subagents),
	); err != nil {
		a.Close(ctx)
		return nil, fmt.Errorf("register task tools: %w", err)
	}

	// Stream router feeds panels from the runtime's event channel.
	a.router = stream.NewRouter(slog.Default())
	a.router.AddListener(a.panels)
	routerCtx, cancelRouter := context.WithCancel(ctx)
	a.cancelRouter = cancelRouter
	go a.router.Run(routerCtx, a.runtime.Events())

	// Scheduler completion reaches the panels and the bus.
	a.scheduler.OnComplete(a.panels.OnTaskComplete)
	a.scheduler.OnComplete(func(t background.Task) {
		a.bus.Publish(events.NewTypedEventWithSession(events.SourceScheduler, events.TaskPayload{
			TaskID:   t.ID,
			TaskType: t.Type,
			Status:   string(t.Status),
			Error:    t.Error,
		}, a.sessionID))
	})

	// Persistence.
	a.eventLog = storage.NewEventLogger(cfg.Storage.EventLogDir, a.bus)
	ledger, err := storage.OpenUsageLedger(cfg.Storage.UsageDB, a.bus)
	if err != nil {
		slog.Warn("usage ledger unavailable", "error", err)
	} else {
		a.ledger = ledger
	}

	return a, nil
}

// Close tears the stack down in reverse dependency order.
func (a *app) Close(ctx context.Context) {
	if a.scheduler != nil {
		a.scheduler.Cleanup()
	}
	if a.cancelRouter != nil {
		a.cancelRouter()
	}
	if a.runtime != nil {
		a.runtime.Close()
	}
	if a.ledger != nil {
		a.ledger.Close()
	}
	if a.eventLog != nil {
		a.eventLog.Close()
	}
	if a.connector != nil {
		a.connector.Close()
	}
	if a.registry != nil {
		a.registry.Close(ctx)
	}
	if a.bus != nil {
		a.bus.Close()
	}
}
