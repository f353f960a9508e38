package plugins

import (
	"testing"
)

func TestSandboxDeniesByDefault(t *testing.T) {
	m := &PluginManifest{
		Name:     "bare",
		WasmPath: "/plugins/bare.wasm",
	}

	em := m.Sandbox()
	if len(em.AllowedHosts) != 0 {
		t.Errorf("no HTTP grant but AllowedHosts = %v", em.AllowedHosts)
	}
	if len(em.AllowedPaths) != 0 {
		t.Errorf("no FS grant but AllowedPaths = %v", em.AllowedPaths)
	}
	if em.Memory != nil {
		t.Errorf("no memory grant but Memory = %+v", em.Memory)
	}
	if em.Timeout != 0 {
		t.Errorf("no timeout grant but Timeout = %d", em.Timeout)
	}
}

func TestSandboxAppliesGrants(t *testing.T) {
	m := &PluginManifest{
		Name:     "granted",
		WasmPath: "/plugins/granted.wasm",
		Config:   map[string]string{"region": "eu"},
		Capabilities: CapabilitySet{
			HTTP:       &HTTPCapability{AllowedHosts: []string{"api.example.com"}},
			Filesystem: &FSCapability{AllowedPaths: map[string]string{"/tmp/quill": "/data"}},
			Memory:     &MemoryLimit{MaxPages: 32},
			Timeout:    2500,
		},
	}

	em := m.Sandbox()
	if len(em.AllowedHosts) != 1 || em.AllowedHosts[0] != "api.example.com" {
		t.Errorf("AllowedHosts = %v", em.AllowedHosts)
	}
	if em.AllowedPaths["/tmp/quill"] != "/data" {
		t.Errorf("AllowedPaths = %v", em.AllowedPaths)
	}
	if em.Memory == nil || em.Memory.MaxPages != 32 {
		t.Errorf("Memory = %+v", em.Memory)
	}
	if em.Timeout != 2500 {
		t.Errorf("Timeout = %d", em.Timeout)
	}
	if em.Config["region"] != "eu" {
		t.Errorf("Config = %v", em.Config)
	}
}

func TestKVStoreIsolation(t *testing.T) {
	kv := NewKVStore()

	if _, ok := kv.Get("notes"); ok {
		t.Fatal("empty store reported a value")
	}
	kv.Set("notes", []byte(`{"next_id":1}`))
	got, ok := kv.Get("notes")
	if !ok || string(got) != `{"next_id":1}` {
		t.Fatalf("Get = %q, %v", got, ok)
	}

	other := NewKVStore()
	if _, ok := other.Get("notes"); ok {
		t.Fatal("stores share state across plugins")
	}
}
