package agent

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRolesMissingDir(t *testing.T) {
	roles, err := LoadRoles(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if _, ok := roles["general-purpose"]; !ok {
		t.Error("general-purpose role should always exist")
	}
}

func TestLoadRolesFromYAML(t *testing.T) {
	dir := t.TempDir()
	content := `name: research
description: Web research
prompt: You dig things up.
tools: [web_search, web_fetch]
`
	if err := os.WriteFile(filepath.Join(dir, "research.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	roles, err := LoadRoles(dir)
	if err != nil {
		t.Fatalf("LoadRoles: %v", err)
	}
	role, ok := roles["research"]
	if !ok {
		t.Fatal("research role not loaded")
	}
	if len(role.Tools) != 2 || role.Tools[0] != "web_search" {
		t.Errorf("tools = %v", role.Tools)
	}
}

func TestLoadRolesNameDefaultsToFilename(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "coder.yml"), []byte("prompt: You write code.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	roles, err := LoadRoles(dir)
	if err != nil {
		t.Fatalf("LoadRoles: %v", err)
	}
	if _, ok := roles["coder"]; !ok {
		t.Errorf("role name should default to filename, got %v", RoleNames(roles))
	}
}

func TestLoadRolesRequiresPrompt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: bad\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRoles(dir); err == nil {
		t.Fatal("expected error for role without prompt")
	}
}

func TestRoleNamesSorted(t *testing.T) {
	roles := map[string]Role{
		"zeta":  {Name: "zeta"},
		"alpha": {Name: "alpha"},
	}
	names := RoleNames(roles)
	if len(names) != 2 || names[0] != "alpha" || names[1] != "zeta" {
		t.Errorf("names = %v", names)
	}
}
