package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/tailscale/hujson"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a JSONC config file, strips comments, expands ${{ .Env.VAR }}
// templates, unmarshals it into Config, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variable templates before stripping comments,
	// since templates live inside string values.
	expanded := expandEnvTemplates(string(data))

	standardized, err := hujson.Standardize([]byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadOrDefault loads the config from path, falling back to a default
// configuration when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg, nil
	}
	return Load(path)
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Events.BufferSize == 0 {
		cfg.Events.BufferSize = 1024
	}
	if cfg.Events.LogLevel == "" {
		cfg.Events.LogLevel = "info"
	}
	if cfg.Agent.RolesDir == "" {
		cfg.Agent.RolesDir = RolesDir()
	}
	if cfg.Plugins.Dir == "" {
		cfg.Plugins.Dir = PluginsDir()
	}
	if cfg.Tools.Web.Provider == "" {
		cfg.Tools.Web.Provider = "duckduckgo"
	}
	if cfg.Tools.Web.MaxResults == 0 {
		cfg.Tools.Web.MaxResults = 5
	}
	if cfg.Storage.EventLogDir == "" {
		cfg.Storage.EventLogDir = HistoryDir()
	}
	if cfg.Storage.UsageDB == "" {
		cfg.Storage.UsageDB = UsageDBPath()
	}
}
