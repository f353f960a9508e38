package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	extism "github.com/extism/go-sdk"

	"github.com/quill-sh/quill/internal/events"
)

// instance holds a live Extism plugin and its per-plugin state.
type instance struct {
	manifest *PluginManifest
	plugin   *extism.Plugin
	kv       *KVStore
}

// ExtismRuntime owns the lifecycle of all loaded WASM plugins.
type ExtismRuntime struct {
	bus *events.Bus

	mu        sync.Mutex
	instances map[string]*instance
}

// NewExtismRuntime creates a runtime that publishes plugin events to bus.
func NewExtismRuntime(bus *events.Bus) *ExtismRuntime {
	return &ExtismRuntime{bus: bus, instances: make(map[string]*instance)}
}

// Load instantiates a WASM plugin from its manifest and returns one
// WasmTool per ToolSpec, all sharing the same plugin instance.
func (r *ExtismRuntime) Load(ctx context.Context, manifest *PluginManifest) ([]*WasmTool, error) {
	switch {
	case manifest.Provider != "extism":
		return nil, fmt.Errorf("plugin %q: unsupported provider %q", manifest.Name, manifest.Provider)
	case manifest.WasmPath == "":
		return nil, fmt.Errorf("plugin %q: wasm_path is required", manifest.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.instances[manifest.Name]; exists {
		return nil, fmt.Errorf("plugin %q already loaded", manifest.Name)
	}

	inst, err := r.instantiate(ctx, manifest)
	if err != nil {
		return nil, err
	}

	tools, err := inst.bindTools()
	if err != nil {
		inst.plugin.Close(ctx)
		return nil, err
	}

	r.instances[manifest.Name] = inst
	slog.Info("plugin loaded", "name", manifest.Name, "tools", len(tools))
	return tools, nil
}

func (r *ExtismRuntime) instantiate(ctx context.Context, manifest *PluginManifest) (*instance, error) {
	kv := NewKVStore()
	hostFns := newHostEnv(manifest.Name, r.bus, kv, manifest.Config).functions()

	plugin, err := extism.NewPlugin(ctx, manifest.Sandbox(), extism.PluginConfig{EnableWasi: true}, hostFns)
	if err != nil {
		return nil, fmt.Errorf("plugin %q: instantiate: %w", manifest.Name, err)
	}
	return &instance{manifest: manifest, plugin: plugin, kv: kv}, nil
}

// bindTools wraps each exported tool entrypoint, verifying the WASM module
// actually exports it.
func (inst *instance) bindTools() ([]*WasmTool, error) {
	tools := make([]*WasmTool, 0, len(inst.manifest.Tools))
	for i := range inst.manifest.Tools {
		spec := &inst.manifest.Tools[i]
		if !inst.plugin.FunctionExists(spec.Func) {
			return nil, fmt.Errorf("plugin %q: wasm module does not export %q", inst.manifest.Name, spec.Func)
		}
		tools = append(tools, &WasmTool{
			spec:       spec,
			plugin:     inst.plugin,
			pluginName: inst.manifest.Name,
		})
	}
	return tools, nil
}

// Manifest returns the manifest of a loaded plugin, or nil.
func (r *ExtismRuntime) Manifest(name string) *PluginManifest {
	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.instances[name]; ok {
		return inst.manifest
	}
	return nil
}

// Close shuts down all loaded plugins.
func (r *ExtismRuntime) Close(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, inst := range r.instances {
		inst.plugin.Close(ctx)
		delete(r.instances, name)
	}
}
