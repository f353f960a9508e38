package plugins

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/tool"

	"github.com/quill-sh/quill/internal/background"
	"github.com/quill-sh/quill/internal/config"
	"github.com/quill-sh/quill/internal/events"
)

// SetupToolRegistry builds the full tool registry: native tools, web tools,
// task companions, and WASM plugins from the configured plugins directory.
// Dangerous tools come back wrapped behind confirmation.
func SetupToolRegistry(
	ctx context.Context,
	cfg *config.Config,
	bus *events.Bus,
	scheduler *background.Scheduler,
	runner SubagentRunner,
) (*ToolRegistry, *ToolPermissions, error) {
	runtime := NewExtismRuntime(bus)
	registry := NewToolRegistry(runtime)

	if err := registry.RegisterNative(RunCommandManifest(), map[string]tool.InvokableTool{
		"run_command": NewRunCommandTool(),
	}); err != nil {
		return nil, nil, err
	}

	if err := registry.RegisterNative(FilesManifest(), NewFileTools()); err != nil {
		return nil, nil, err
	}

	if runner != nil {
		if err := registry.RegisterNative(TaskManifest(runner.RoleNames()), NewTaskTools(scheduler, runner)); err != nil {
			return nil, nil, err
		}
	}

	if err := RegisterWebTools(ctx, registry, cfg.Tools.Web); err != nil {
		// search provider misconfiguration should not take the agent down
		slog.Warn("web tools unavailable", "error", err)
	}

	if err := registry.LoadPluginsDir(ctx, cfg.Plugins.Dir, cfg.Plugins.Enabled); err != nil {
		return nil, nil, fmt.Errorf("load plugins: %w", err)
	}

	perms := NewToolPermissions(cfg.Plugins.AllowedDangerous)
	if err := WrapRegistryDangerous(registry, bus, perms); err != nil {
		return nil, nil, err
	}

	return registry, perms, nil
}

// RegisterWebTools registers web_search and web_fetch.
func RegisterWebTools(ctx context.Context, registry *ToolRegistry, cfg config.WebConfig) error {
	search, err := NewWebSearchTool(ctx, cfg)
	if err != nil {
		return err
	}
	if err := registry.RegisterNative(WebSearchManifest(), map[string]tool.InvokableTool{
		"web_search": search,
	}); err != nil {
		return err
	}
	return registry.RegisterNative(WebFetchManifest(), map[string]tool.InvokableTool{
		"web_fetch": NewWebFetchTool(),
	})
}

// WrapRegistryDangerous wraps every tool whose spec marks it dangerous
// behind the confirmation flow.
func WrapRegistryDangerous(registry *ToolRegistry, bus *events.Bus, perms *ToolPermissions) error {
	for _, name := range registry.ToolNames() {
		spec := registry.Spec(name)
		if spec == nil || !spec.Dangerous {
			continue
		}
		inner, ok := registry.Tool(name)
		if !ok {
			continue
		}
		if err := registry.ReplaceTool(name, WrapDangerous(name, inner, bus, perms)); err != nil {
			return err
		}
	}
	return nil
}
