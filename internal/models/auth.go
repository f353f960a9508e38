package models

import (
	"fmt"
	"os"
	"strings"

	"github.com/quill-sh/quill/internal/config"
)

// AuthKind distinguishes between API key and Bearer token auth.
type AuthKind int

const (
	AuthAPIKey AuthKind = iota
	AuthBearerToken
)

// ResolvedAuth holds the resolved credentials and their kind.
type ResolvedAuth struct {
	Kind  AuthKind
	Value string
}

// envDefaults lists the environment variables consulted per driver when the
// config carries no credentials of its own.
var envDefaults = map[string][]string{
	"anthropic": {"ANTHROPIC_API_KEY"},
	"openai":    {"OPENAI_API_KEY"},
	"google":    {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
}

// expandEnvRef trims v and expands a ${VAR} reference against the
// environment; any other value passes through as-is.
func expandEnvRef(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "${") && strings.HasSuffix(v, "}") {
		return os.Getenv(v[2 : len(v)-1])
	}
	return v
}

// ResolveAuth resolves the credentials for a provider.
// Resolution order: direct token → direct api_key → ${VAR} env reference →
// driver default env var.
func ResolveAuth(cfg config.ProviderConfig) (ResolvedAuth, error) {
	if token := expandEnvRef(cfg.Auth.Token); token != "" {
		return ResolvedAuth{Kind: AuthBearerToken, Value: token}, nil
	}
	if apiKey := expandEnvRef(cfg.Auth.APIKey); apiKey != "" {
		return ResolvedAuth{Kind: AuthAPIKey, Value: apiKey}, nil
	}

	vars, ok := envDefaults[strings.ToLower(cfg.Driver)]
	if !ok {
		return ResolvedAuth{}, fmt.Errorf("unknown driver %q: cannot resolve auth", cfg.Driver)
	}
	for _, env := range vars {
		if key := os.Getenv(env); key != "" {
			return ResolvedAuth{Kind: AuthAPIKey, Value: key}, nil
		}
	}
	return ResolvedAuth{}, fmt.Errorf("%s not set", vars[0])
}
