package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/quill-sh/quill/internal/config"
)

// webManifest builds the manifest shared shape of the native web tools:
// one tool per manifest, unrestricted HTTP.
func webManifest(name, desc string, dangerous bool, toolDesc string, params map[string]ParamSpec) *PluginManifest {
	return &PluginManifest{
		Name:        name,
		Description: desc,
		Provider:    "native",
		Dangerous:   dangerous,
		Capabilities: CapabilitySet{
			HTTP: &HTTPCapability{AllowedHosts: []string{"*"}},
		},
		Tools: []ToolSpec{{
			Name:        name,
			Description: toolDesc,
			Dangerous:   dangerous,
			Parameters:  params,
		}},
	}
}

// searchBackends maps provider names from config to their constructors.
// DuckDuckGo is keyless and serves as the default.
var searchBackends = map[string]func(context.Context, config.WebConfig) (tool.InvokableTool, error){
	"duckduckgo": newDuckDuckGoSearch,
	"google":     newGoogleSearch,
	"bing": newBingSearch,
}

// WebSearchTool wraps the configured eino-ext search provider behind one
// stable tool name.
type WebSearchTool struct {
	inner tool.InvokableTool
}

// NewWebSearchTool creates a web search tool for the configured provider.
func NewWebSearchTool(ctx context.Context, cfg config.WebConfig) (*WebSearchTool, error) {
	name := cfg.Provider
	if name == "" {
		name = "duckduckgo"
	}
	build, ok := searchBackends[name]
	if !ok {
		return nil, fmt.Errorf("web_search: unknown provider %q", name)
	}
	inner, err := build(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("web_search: init %s: %w", name, err)
	}
	return &WebSearchTool{inner: inner}, nil
}

func (t *WebSearchTool) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return t.inner.Info(ctx)
}

func (t *WebSearchTool) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	return t.inner.InvokableRun(ctx, argumentsInJSON, opts...)
}

// WebSearchManifest returns the manifest for web_search.
func WebSearchManifest() *PluginManifest {
	return webManifest(
		"web_search",
		"Search the web using the configured search provider",
		false,
		"Search the web for current information. Returns titles, URLs, and snippets.",
		map[string]ParamSpec{
			"query": {Type: "string", Description: "The search query", Required: true},
		},
	)
}

const (
	webFetchTimeout   = 30 * time.Second
	webFetchMaxBytes  = 512 * 1024
	webFetchUserAgent = "Quill/1.0 (web_fetch)"
)

// WebFetchTool fetches a URL and returns its page text.
type WebFetchTool struct {
	client *http.Client
}

// NewWebFetchTool creates the web_fetch tool.
func NewWebFetchTool() *WebFetchTool {
	return &WebFetchTool{client: &http.Client{Timeout: webFetchTimeout}}
}

type fetchRequest struct {
	URL string `json:"url"`
}

type fetchResult struct {
	URL     string `json:"url"`
	Status  int    `json:"status"`
	Content string `json:"content"`
}

func (t *WebFetchTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return WebFetchManifest().Tools[0].einoInfo(), nil
}

func (t *WebFetchTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var req fetchRequest
	if err := json.Unmarshal([]byte(argumentsInJSON), &req); err != nil {
		return "", fmt.Errorf("web_fetch: parse input: %w", err)
	}
	if req.URL == "" {
		return "", fmt.Errorf("web_fetch: url is required")
	}

	res, err := t.fetch(ctx, upgradeScheme(req.URL))
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("web_fetch: marshal result: %w", err)
	}
	return string(out), nil
}

// upgradeScheme rewrites plain-HTTP URLs to HTTPS; credentials must not
// travel unencrypted.
func upgradeScheme(url string) string {
	if rest, ok := strings.CutPrefix(url, "http://"); ok {
		return "https://" + rest
	}
	return url
}

func (t *WebFetchTool) fetch(ctx context.Context, url string) (*fetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("web_fetch: create request: %w", err)
	}
	req.Header.Set("User-Agent", webFetchUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain,*/*")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web_fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, webFetchMaxBytes))
	if err != nil {
		return nil, fmt.Errorf("web_fetch: read body: %w", err)
	}

	content := htmlToText(string(body))
	if len(content) > webFetchMaxBytes {
		content = content[:webFetchMaxBytes]
	}
	return &fetchResult{URL: url, Status: resp.StatusCode, Content: content}, nil
}

// WebFetchManifest returns the manifest for web_fetch.
func WebFetchManifest() *PluginManifest {
	return webManifest(
		"web_fetch",
		"Fetch a web page and extract its text content",
		true,
		"Fetch a URL and return its text content. HTTP URLs are upgraded to HTTPS; large pages are truncated.",
		map[string]ParamSpec{
			"url": {Type: "string", Description: "The URL to fetch", Required: true},
		},
	)
}

var (
	_ tool.InvokableTool = (*WebSearchTool)(nil)
	_ tool.InvokableTool = (*WebFetchTool)(nil)
)
