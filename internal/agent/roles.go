package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Role defines a subagent: its prompt and the tools it may call. Roles are
// YAML files in the configured roles directory, one file per role.
type Role struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Prompt      string   `yaml:"prompt"`
	Tools       []string `yaml:"tools"` // empty = every non-task tool
}

// GeneralRole is always available, even with an empty roles directory.
var GeneralRole = Role{
	Name:        "general-purpose",
	Description: "General research and execution subagent",
	Prompt: `You are a focused task execution agent. Accomplish the task you were given using your tools, then report the outcome.

- Actually call the tools; never just describe what you would do.
- Inspect before you modify: list_dir and read_file first, write_file and run_command after.
- Finish with a concise summary of what you did and found.`,
}

// LoadRoles reads every *.yaml and *.yml file in dir and returns the roles
// keyed by name, always including the built-in general-purpose role. A
// missing directory is not an error.
func LoadRoles(dir string) (map[string]Role, error) {
	roles := map[string]Role{GeneralRole.Name: GeneralRole}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return roles, nil
		}
		return nil, fmt.Errorf("read roles dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		role, err := loadRoleFile(path)
		if err != nil {
			return nil, err
		}
		roles[role.Name] = role
	}
	return roles, nil
}

func loadRoleFile(path string) (Role, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Role{}, fmt.Errorf("read role %s: %w", path, err)
	}
	var role Role
	if err := yaml.Unmarshal(data, &role); err != nil {
		return Role{}, fmt.Errorf("parse role %s: %w", path, err)
	}
	if role.Name == "" {
		role.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if role.Prompt == "" {
		return Role{}, fmt.Errorf("role %s: prompt is required", path)
	}
	return role, nil
}

// RoleNames returns the sorted names of the given roles.
func RoleNames(roles map[string]Role) []string {
	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
