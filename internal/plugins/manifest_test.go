package plugins

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.jsonc")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestLoadManifestWithComments(t *testing.T) {
	path := writeManifest(t, `{
		// plugin metadata
		"name": "greeter",
		"provider": "extism",
		"wasm_path": "greeter.wasm",
		"tools": [
			{"name": "greet", "description": "Say hello", "parameters": {
				"who": {"type": "string", "required": true},
			}},
		],
	}`)

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Name != "greeter" {
		t.Errorf("name = %q, want greeter", m.Name)
	}
	if len(m.Tools) != 1 || m.Tools[0].Name != "greet" {
		t.Fatalf("tools = %+v", m.Tools)
	}
	if m.Tools[0].Func != "handle" {
		t.Errorf("func default = %q, want handle", m.Tools[0].Func)
	}
}

func TestLoadManifestRequiresName(t *testing.T) {
	path := writeManifest(t, `{"tools": [{"name": "x"}]}`)
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for missing name")
	}
}

func TestLoadManifestRequiresTools(t *testing.T) {
	path := writeManifest(t, `{"name": "empty"}`)
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for missing tools")
	}
}

func TestLoadManifestSingleToolNameDefaults(t *testing.T) {
	path := writeManifest(t, `{"name": "solo", "tools": [{"description": "only tool"}]}`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Tools[0].Name != "solo" {
		t.Errorf("tool name = %q, want solo", m.Tools[0].Name)
	}
}

func TestLoadManifestDangerousPropagates(t *testing.T) {
	path := writeManifest(t, `{
		"name": "risky",
		"dangerous": true,
		"tools": [{"name": "a"}, {"name": "b"}]
	}`)
	m, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	for _, tool := range m.Tools {
		if !tool.Dangerous {
			t.Errorf("tool %q should inherit dangerous", tool.Name)
		}
	}
}

func TestLoadManifestMultiToolNeedsNames(t *testing.T) {
	path := writeManifest(t, `{"name": "multi", "tools": [{"name": "a"}, {"description": "no name"}]}`)
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected error for unnamed tool in multi-tool plugin")
	}
}
