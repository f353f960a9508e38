package config

import (
	"strconv"
	"time"
)

// Config is the root configuration for Quill.
type Config struct {
	Models  ModelsConfig  `json:"models"`
	Events  EventsConfig  `json:"events"`
	Agent   AgentConfig   `json:"agent"`
	Plugins PluginsConfig `json:"plugins"`
	Tools   ToolsConfig   `json:"tools"`
	MCP     MCPConfig     `json:"mcp"`
	Storage StorageConfig `json:"storage"`
}

// ModelsConfig holds model provider configuration.
type ModelsConfig struct {
	Default   string                    `json:"default"`
	Providers map[string]ProviderConfig `json:"providers"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Driver    string         `json:"driver"` // "anthropic", "openai", "google", "ollama"
	Model     string         `json:"model"`
	BaseURL   string         `json:"base_url,omitempty"`
	Auth      AuthConfig     `json:"auth"`
	MaxTokens int            `json:"max_tokens,omitempty"`
	Timeout   Duration       `json:"timeout,omitempty"`
	Options   map[string]any `json:"options,omitempty"`
}

// AuthConfig configures API key resolution.
type AuthConfig struct {
	APIKey string `json:"api_key,omitempty"` // Direct API key or ${VAR} env reference
	Token  string `json:"token,omitempty"`   // OAuth/Bearer token
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int    `json:"buffer_size"`
	LogLevel   string `json:"log_level"`
}

// AgentConfig holds agent settings.
type AgentConfig struct {
	SystemPrompt string `json:"system_prompt,omitempty"`
	RolesDir     string `json:"roles_dir,omitempty"` // subagent role definitions (default: $QUILL_PATH/roles)
}

// PluginsConfig configures the WASM plugin system.
type PluginsConfig struct {
	Dir     string   `json:"dir"`     // plugin directory (default: $QUILL_PATH/plugins)
	Enabled []string `json:"enabled"` // enabled plugin names (empty = all)

	// Dangerous tools approved without prompting, e.g. "run_command".
	AllowedDangerous []string `json:"allowed_dangerous,omitempty"`
}

// ToolsConfig configures built-in tools.
type ToolsConfig struct {
	Web WebConfig `json:"web"`
}

// WebConfig selects and configures the web search provider.
type WebConfig struct {
	Provider   string `json:"provider"` // "duckduckgo" (default), "google", "bing"
	APIKey     string `json:"api_key,omitempty"`
	GoogleCX   string `json:"google_cx,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

// MCPConfig configures external MCP tool servers.
type MCPConfig struct {
	Servers map[string]MCPServerConfig `json:"servers"`
}

// MCPServerConfig describes one stdio MCP server.
type MCPServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// StorageConfig configures local persistence.
type StorageConfig struct {
	EventLogDir string `json:"event_log_dir,omitempty"` // default: $QUILL_PATH/history
	UsageDB     string `json:"usage_db,omitempty"`      // default: $QUILL_PATH/usage.db
}

// Duration wraps time.Duration so config files can say "30s" or "2m".
type Duration time.Duration

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalJSON(b []byte) error {
	raw := string(b)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = unquoted
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, time.Duration(d).String()), nil
}
