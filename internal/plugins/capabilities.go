package plugins

import (
	extism "github.com/extism/go-sdk"
)

// CapabilitySet lists what a plugin may touch. Everything is denied unless
// the manifest grants it.
type CapabilitySet struct {
	HTTP       *HTTPCapability `json:"http,omitempty"`
	KV         bool            `json:"kv"`
	Log        bool            `json:"log"`
	Filesystem *FSCapability   `json:"filesystem,omitempty"`
	Exec       bool            `json:"exec"`
	Memory     *MemoryLimit    `json:"memory,omitempty"`
	Timeout    int             `json:"timeout,omitempty"` // milliseconds
}

// HTTPCapability allows network access to specific hosts.
type HTTPCapability struct {
	AllowedHosts []string `json:"allowed_hosts"`
}

// FSCapability allows filesystem access to specific paths.
type FSCapability struct {
	AllowedPaths map[string]string `json:"allowed_paths"` // host path → guest path
	ReadOnly     bool              `json:"read_only"`
}

// MemoryLimit constrains WASM memory usage.
type MemoryLimit struct {
	MaxPages uint32 `json:"max_pages"` // 1 page = 64 KiB
}

// Sandbox translates the manifest's capability grants into the runtime
// manifest the plugin is instantiated under.
func (m *PluginManifest) Sandbox() extism.Manifest {
	em := extism.Manifest{
		Wasm:   []extism.Wasm{extism.WasmFile{Path: m.WasmPath}},
		Config: m.Config,
	}
	m.Capabilities.apply(&em)
	return em
}

// apply copies each granted capability onto em; ungranted ones leave the
// runtime's deny-by-default settings in place.
func (c CapabilitySet) apply(em *extism.Manifest) {
	if c.HTTP != nil {
		em.AllowedHosts = append(em.AllowedHosts, c.HTTP.AllowedHosts...)
	}
	if c.Filesystem != nil {
		em.AllowedPaths = c.Filesystem.AllowedPaths
	}
	if c.Memory != nil && c.Memory.MaxPages > 0 {
		em.Memory = &extism.ManifestMemory{MaxPages: c.Memory.MaxPages}
	}
	if c.Timeout > 0 {
		em.Timeout = uint64(c.Timeout)
	}
}
