package config

import (
	"os"
	"path/filepath"
)

// EnvQuillPath relocates the whole Quill data directory.
const EnvQuillPath = "QUILL_PATH"

// QuillPath returns the root directory for Quill data: $QUILL_PATH when
// set, otherwise ~/.quill. Everything the harness persists (config,
// secrets, roles, plugins, transcripts, usage ledger) lives under this
// one root.
func QuillPath() string {
	if v := os.Getenv(EnvQuillPath); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// No resolvable home; a relative dir keeps bare environments
		// (containers, CI) working.
		return ".quill"
	}
	return filepath.Join(home, ".quill")
}

// Well-known locations under QuillPath.

// ConfigPath is the JSONC config file.
func ConfigPath() string { return filepath.Join(QuillPath(), "config.jsonc") }

// DotenvPath is the .env file holding plain and ENC[age:...] entries.
func DotenvPath() string { return filepath.Join(QuillPath(), ".env") }

// LogsDir holds the TUI-mode log files.
func LogsDir() string { return filepath.Join(QuillPath(), "logs") }

// RolesDir is the default location for subagent role definitions.
func RolesDir() string { return filepath.Join(QuillPath(), "roles") }

// PluginsDir is the default WASM plugin directory.
func PluginsDir() string { return filepath.Join(QuillPath(), "plugins") }

// HistoryDir is the default per-session transcript directory.
func HistoryDir() string { return filepath.Join(QuillPath(), "history") }

// UsageDBPath is the default SQLite usage ledger.
func UsageDBPath() string { return filepath.Join(QuillPath(), "usage.db") }

// PersonaPath is the optional SOUL.md persona override.
func PersonaPath() string { return filepath.Join(QuillPath(), "SOUL.md") }
