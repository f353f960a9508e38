package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudwego/eino-ext/components/tool/bingsearch"
	duckduckgo "github.com/cloudwego/eino-ext/components/tool/duckduckgo/v2"
	"github.com/cloudwego/eino-ext/components/tool/googlesearch"
	"github.com/cloudwego/eino/components/tool"

	"github.com/quill-sh/quill/internal/config"
)

const webSearchTimeout = 15 * time.Second

func newDuckDuckGoSearch(ctx context.Context, cfg config.WebConfig) (tool.InvokableTool, error) {
	slog.Info("web_search: using DuckDuckGo provider")
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	return duckduckgo.NewTextSearchTool(ctx, &duckduckgo.Config{
		ToolName:   "web_search",
		ToolDesc:   "Search the web using DuckDuckGo. Returns titles, URLs, and summaries.",
		MaxResults: maxResults,
		Timeout:    webSearchTimeout,
	})
}

func newGoogleSearch(ctx context.Context, cfg config.WebConfig) (tool.InvokableTool, error) {
	if cfg.APIKey == "" || cfg.GoogleCX == "" {
		return nil, fmt.Errorf("google provider requires api_key and google_cx")
	}
	slog.Info("web_search: using Google provider")
	num := cfg.MaxResults
	if num <= 0 {
		num = 10
	}
	return googlesearch.NewTool(ctx, &googlesearch.Config{
		APIKey:         cfg.APIKey,
		SearchEngineID: cfg.GoogleCX,
		Num:            num,
		ToolName:       "web_search",
		ToolDesc:       "Search the web using Google. Returns titles, URLs, and snippets.",
	})
}

func newBingSearch(ctx context.Context, cfg config.WebConfig) (tool.InvokableTool, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("bing provider requires api_key")
	}
	slog.Info("web_search: using Bing provider")
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	return bingsearch.NewTool(ctx, &bingsearch.Config{
		APIKey:     cfg.APIKey,
		MaxResults: maxResults,
		ToolName:   "web_search",
		ToolDesc:   "Search the web using Bing. Returns titles, URLs, and descriptions.",
		Timeout:    webSearchTimeout,
	})
}
