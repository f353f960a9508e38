// Package plugins provides the Quill tool system: WASM plugins loaded
// through Extism plus the built-in native tools.
package plugins

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// PluginManifest describes a plugin's metadata, capabilities, and tools.
type PluginManifest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Provider    string `json:"provider"`  // "extism" or "native"
	WasmPath    string `json:"wasm_path"` // path to .wasm file (extism only)

	// Dangerous marks every tool of the plugin as requiring user
	// confirmation; individual tools may also set it themselves.
	Dangerous bool `json:"dangerous"`

	Capabilities CapabilitySet     `json:"capabilities"`
	Tools        []ToolSpec        `json:"tools"` // 1..N tools per plugin
	Config       map[string]string `json:"config"`
}

// ToolSpec describes a single tool interface exposed by a plugin.
type ToolSpec struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Parameters  map[string]ParamSpec `json:"parameters"`
	Func        string               `json:"func,omitempty"` // WASM export name (default: "handle")
	Dangerous   bool                 `json:"dangerous"`      // per-tool override
}

// ParamSpec describes a single tool parameter.
type ParamSpec struct {
	Type        string               `json:"type"` // "string", "number", "boolean", "integer", "array", "object"
	Description string               `json:"description"`
	Required    bool                 `json:"required"`
	Enum        []string             `json:"enum,omitempty"`
	Default     any                  `json:"default,omitempty"`
	Items       *ParamSpec           `json:"items,omitempty"`      // element schema for arrays
	Properties  map[string]ParamSpec `json:"properties,omitempty"` // sub-properties for objects
}

// LoadManifest reads and parses a JSONC manifest file.
func LoadManifest(path string) (*PluginManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	var m PluginManifest
	if err := json.Unmarshal(standardized, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	if err := m.normalize(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

// normalize validates required fields and fills per-tool defaults.
func (m *PluginManifest) normalize() error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(m.Tools) == 0 {
		return fmt.Errorf("at least one tool is required")
	}

	for i := range m.Tools {
		t := &m.Tools[i]
		if t.Func == "" {
			t.Func = "handle"
		}
		if t.Name == "" {
			// A single anonymous tool inherits the plugin's name.
			if len(m.Tools) > 1 {
				return fmt.Errorf("tool at index %d must have a name", i)
			}
			t.Name = m.Name
		}
		if m.Dangerous {
			t.Dangerous = true
		}
	}
	return nil
}
