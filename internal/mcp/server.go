package mcp

import (
	"context"
	"log/slog"
	"sort"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quill-sh/quill/internal/plugins"
)

// NewServer creates an MCP server exposing tools from the registry. A
// non-empty filter limits exposure to the named tool or plugin.
func NewServer(registry *plugins.ToolRegistry, filter string) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "quill",
		Version: "0.1.0",
	}, nil)

	for _, name := range registry.ToolNames() {
		if filter != "" && !matchesFilter(registry, name, filter) {
			continue
		}
		spec := registry.Spec(name)
		if spec == nil {
			continue
		}
		invokable, ok := registry.Tool(name)
		if !ok {
			continue
		}
		toolName := name

		server.AddTool(specToMCPTool(spec), func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			result, err := invokable.InvokableRun(ctx, string(req.Params.Arguments))
			if err != nil {
				slog.Debug("mcp tool error", "tool", toolName, "error", err)
				return &mcpsdk.CallToolResult{
					IsError: true,
					Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
				}, nil
			}
			return &mcpsdk.CallToolResult{
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: result}},
			}, nil
		})
	}

	return server
}

// matchesFilter accepts an exact tool name or the name of the plugin that
// owns the tool.
func matchesFilter(registry *plugins.ToolRegistry, toolName, filter string) bool {
	if toolName == filter {
		return true
	}
	if m := registry.Manifest(toolName); m != nil && m.Name == filter {
		return true
	}
	return false
}

// specToMCPTool converts a plugins.ToolSpec into an MCP tool declaration
// with a JSON Schema input.
func specToMCPTool(spec *plugins.ToolSpec) *mcpsdk.Tool {
	schema := map[string]any{"type": "object"}

	properties := make(map[string]any, len(spec.Parameters))
	var required []string
	for name, p := range spec.Parameters {
		properties[name] = paramSchema(p)
		if p.Required {
			required = append(required, name)
		}
	}
	schema["properties"] = properties
	if len(required) > 0 {
		sort.Strings(required)
		schema["required"] = required
	}

	return &mcpsdk.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		InputSchema: schema,
	}
}

func paramSchema(p plugins.ParamSpec) map[string]any {
	schema := map[string]any{
		"type":        p.Type,
		"description": p.Description,
	}
	if len(p.Enum) > 0 {
		schema["enum"] = p.Enum
	}
	if p.Default != nil {
		schema["default"] = p.Default
	}
	return schema
}
