package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cloudwego/eino/components/tool"
)

// registration ties a tool name to its implementation, its spec, and the
// manifest it came from.
type registration struct {
	tool     tool.InvokableTool
	spec     *ToolSpec
	manifest *PluginManifest
	native   bool
}

// ToolRegistry holds every tool the agent can call, native and WASM alike,
// keyed by tool name.
type ToolRegistry struct {
	runtime *ExtismRuntime

	mu      sync.RWMutex
	entries map[string]*registration
}

// NewToolRegistry creates an empty registry backed by runtime.
func NewToolRegistry(runtime *ExtismRuntime) *ToolRegistry {
	return &ToolRegistry{
		runtime: runtime,
		entries: make(map[string]*registration),
	}
}

// add inserts under r.mu, rejecting duplicate names.
func (r *ToolRegistry) add(name string, reg *registration) error {
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.entries[name] = reg
	return nil
}

// RegisterNative adds an in-process tool described by manifest.
func (r *ToolRegistry) RegisterNative(manifest *PluginManifest, tools map[string]tool.InvokableTool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range manifest.Tools {
		spec := &manifest.Tools[i]
		t, ok := tools[spec.Name]
		if !ok {
			return fmt.Errorf("native plugin %q: no implementation for tool %q", manifest.Name, spec.Name)
		}
		if err := r.add(spec.Name, &registration{tool: t, spec: spec, manifest: manifest, native: true}); err != nil {
			return err
		}
	}
	return nil
}

// LoadWasmPlugin loads a single WASM plugin from its manifest file. A
// relative wasm_path resolves against the manifest's directory.
func (r *ToolRegistry) LoadWasmPlugin(ctx context.Context, manifestPath string) error {
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return err
	}

	if manifest.WasmPath != "" && !filepath.IsAbs(manifest.WasmPath) {
		manifest.WasmPath = filepath.Join(filepath.Dir(manifestPath), manifest.WasmPath)
	}

	tools, err := r.runtime.Load(ctx, manifest)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range tools {
		if err := r.add(t.spec.Name, &registration{tool: t, spec: t.spec, manifest: manifest}); err != nil {
			return err
		}
	}
	return nil
}

// LoadPluginsDir scans dir for plugin manifests (one subdirectory per
// plugin, each with a manifest.jsonc) and loads the enabled ones. An empty
// enabled list loads everything found. Individual plugin failures are
// logged, not fatal.
func (r *ToolRegistry) LoadPluginsDir(ctx context.Context, dir string, enabled []string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "*/manifest.jsonc")
	if err != nil {
		return fmt.Errorf("scan plugins dir %s: %w", dir, err)
	}

	wanted := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		wanted[name] = true
	}

	for _, rel := range matches {
		pluginName := filepath.Dir(rel)
		if len(wanted) > 0 && !wanted[pluginName] {
			slog.Debug("plugin skipped, not enabled", "name", pluginName)
			continue
		}
		if err := r.LoadWasmPlugin(ctx, filepath.Join(dir, rel)); err != nil {
			slog.Error("plugin load failed", "name", pluginName, "error", err)
		}
	}
	return nil
}

// Tool returns the registered tool with the given name.
func (r *ToolRegistry) Tool(name string) (tool.InvokableTool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return reg.tool, true
}

// Tools returns all registered tools, ordered by name.
func (r *ToolRegistry) Tools() []tool.InvokableTool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]tool.InvokableTool, 0, len(r.entries))
	for _, name := range r.sortedNamesLocked() {
		out = append(out, r.entries[name].tool)
	}
	return out
}

// ToolsByNames returns the named tools, erroring on the first unknown name.
func (r *ToolRegistry) ToolsByNames(names []string) ([]tool.InvokableTool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]tool.InvokableTool, 0, len(names))
	for _, name := range names {
		reg, ok := r.entries[name]
		if !ok {
			return nil, fmt.Errorf("unknown tool %q", name)
		}
		out = append(out, reg.tool)
	}
	return out, nil
}

// ToolNames returns all registered tool names, sorted.
func (r *ToolRegistry) ToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedNamesLocked()
}

// NativeToolNames returns the names of in-process tools, sorted.
func (r *ToolRegistry) NativeToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, reg := range r.entries {
		if reg.native {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// AllToolDescriptions returns a "name: description" line per tool, for the
// system prompt.
func (r *ToolRegistry) AllToolDescriptions() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var sb strings.Builder
	for _, name := range r.sortedNamesLocked() {
		fmt.Fprintf(&sb, "%s: %s\n", name, r.entries[name].spec.Description)
	}
	return sb.String()
}

// Manifest returns the manifest owning the named tool.
func (r *ToolRegistry) Manifest(toolName string) *PluginManifest {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if reg, ok := r.entries[toolName]; ok {
		return reg.manifest
	}
	return nil
}

// Spec returns the ToolSpec for the named tool.
func (r *ToolRegistry) Spec(toolName string) *ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if reg, ok := r.entries[toolName]; ok {
		return reg.spec
	}
	return nil
}

// ReplaceTool swaps the implementation behind an already registered name.
// Used to wrap dangerous tools after registration.
func (r *ToolRegistry) ReplaceTool(name string, t tool.InvokableTool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	reg, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("unknown tool %q", name)
	}
	reg.tool = t
	return nil
}

// Close shuts down the WASM runtime.
func (r *ToolRegistry) Close(ctx context.Context) {
	r.runtime.Close(ctx)
}

func (r *ToolRegistry) sortedNamesLocked() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
