package models

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	einoclaude "github.com/cloudwego/eino-ext/components/model/claude"
	einogemini "github.com/cloudwego/eino-ext/components/model/gemini"
	einoollama "github.com/cloudwego/eino-ext/components/model/ollama"
	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/quill-sh/quill/internal/config"
)

const (
	defaultClaudeModel     = "claude-sonnet-4-20250514"
	defaultClaudeMaxTokens = 4096
	defaultGeminiModel     = "gemini-2.0-flash"
	defaultOllamaBaseURL   = "http://localhost:11434"
)

// driver binds a config driver name to its chat model constructor.
type driver struct {
	needsAuth bool
	build     func(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.ToolCallingChatModel, error)
}

var drivers = map[string]driver{
	"anthropic": {needsAuth: true, build: buildClaude},
	"openai":    {needsAuth: true, build: buildOpenAI},
	"google":    {needsAuth: true, build: buildGemini},
	"ollama":    {build: buildOllama},
}

// CreateModel builds a chat model for the provider config.
func CreateModel(ctx context.Context, cfg config.ProviderConfig) (model.ToolCallingChatModel, error) {
	d, ok := drivers[strings.ToLower(cfg.Driver)]
	if !ok {
		return nil, fmt.Errorf("unknown driver: %s", cfg.Driver)
	}

	var auth ResolvedAuth
	if d.needsAuth {
		var err error
		auth, err = ResolveAuth(cfg)
		if err != nil {
			return nil, fmt.Errorf("resolve auth: %w", err)
		}
	}
	return d.build(ctx, cfg, auth)
}

// knobs reads typed values out of the free-form provider options block.
// JSON numbers arrive as float64 regardless of the target type.
type knobs map[string]any

func (k knobs) float32(key string) (float32, bool) {
	v, ok := k[key].(float64)
	return float32(v), ok
}

func (k knobs) float32Ptr(key string) *float32 {
	if v, ok := k.float32(key); ok {
		return &v
	}
	return nil
}

func (k knobs) int(key string) (int, bool) {
	v, ok := k[key].(float64)
	return int(v), ok
}

func timeoutOr(cfg config.ProviderConfig, fallback time.Duration) time.Duration {
	if d := cfg.Timeout.Duration(); d > 0 {
		return d
	}
	return fallback
}

func buildClaude(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.ToolCallingChatModel, error) {
	mc := &einoclaude.Config{
		APIKey:    auth.Value,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	}
	if mc.Model == "" {
		mc.Model = defaultClaudeModel
	}
	if mc.MaxTokens == 0 {
		mc.MaxTokens = defaultClaudeMaxTokens
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		mc.BaseURL = &base
	}

	opts := knobs(cfg.Options)
	mc.Temperature = opts.float32Ptr("temperature")
	mc.TopP = opts.float32Ptr("top_p")

	return einoclaude.NewChatModel(ctx, mc)
}

func buildOpenAI(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.ToolCallingChatModel, error) {
	mc := &einoopenai.ChatModelConfig{
		APIKey:  auth.Value,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Timeout: timeoutOr(cfg, 60*time.Second),
	}
	if cfg.MaxTokens > 0 {
		max := cfg.MaxTokens
		mc.MaxCompletionTokens = &max
	}
	mc.Temperature = knobs(cfg.Options).float32Ptr("temperature")

	return einoopenai.NewChatModel(ctx, mc)
}

func buildGemini(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.ToolCallingChatModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  auth.Value,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	mc := &einogemini.Config{
		Client: client,
		Model:  cfg.Model,
	}
	if mc.Model == "" {
		mc.Model = defaultGeminiModel
	}
	if cfg.MaxTokens > 0 {
		max := cfg.MaxTokens
		mc.MaxTokens = &max
	}

	opts := knobs(cfg.Options)
	mc.Temperature = opts.float32Ptr("temperature")
	mc.TopP = opts.float32Ptr("top_p")

	return einogemini.NewChatModel(ctx, mc)
}

func buildOllama(ctx context.Context, cfg config.ProviderConfig, _ ResolvedAuth) (model.ToolCallingChatModel, error) {
	timeout := timeoutOr(cfg, 300*time.Second)
	mc := &einoollama.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: timeout,
	}
	if mc.BaseURL == "" {
		mc.BaseURL = defaultOllamaBaseURL
	}

	opts := knobs(cfg.Options)
	oo := &einoollama.Options{NumPredict: cfg.MaxTokens}
	if v, ok := opts.float32("temperature"); ok {
		oo.Temperature = v
	}
	if v, ok := opts.float32("top_p"); ok {
		oo.TopP = v
	}
	if v, ok := opts.int("top_k"); ok {
		oo.TopK = v
	}
	if v, ok := opts.int("num_ctx"); ok {
		oo.NumCtx = v
	}
	if v, ok := opts.int("num_predict"); ok {
		oo.NumPredict = v
	}
	mc.Options = oo

	// Validating transport: some reverse proxies answer with plain text
	// ("no available server") that would otherwise surface as a JSON parse
	// error deep inside the SDK.
	mc.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: &jsonOnlyTransport{inner: http.DefaultTransport, provider: "ollama"},
	}

	return einoollama.NewChatModel(ctx, mc)
}

// jsonOnlyTransport rejects non-JSON responses so backend failures become
// ErrModelUnavailable instead of SDK parse errors.
type jsonOnlyTransport struct {
	inner    http.RoundTripper
	provider string
}

func (t *jsonOnlyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, &ErrModelUnavailable{Provider: t.provider, Cause: err}
	}

	ct := resp.Header.Get("Content-Type")
	badType := ct != "" && !strings.Contains(ct, "json") && !strings.Contains(ct, "ndjson")
	if resp.StatusCode >= 400 || badType {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &ErrModelUnavailable{
			Provider: t.provider,
			Body:     strings.TrimSpace(string(body)),
		}
	}
	return resp, nil
}
