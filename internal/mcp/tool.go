package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// RemoteTool adapts a tool advertised by an MCP server to Eino's
// tool.InvokableTool interface. Names are prefixed with the server name to
// avoid collisions between servers.
type RemoteTool struct {
	server  string
	session *mcpsdk.ClientSession
	name    string
	info    *schema.ToolInfo
}

func newRemoteTool(server string, session *mcpsdk.ClientSession, t *mcpsdk.Tool) *RemoteTool {
	return &RemoteTool{
		server:  server,
		session: session,
		name:    t.Name,
		info: &schema.ToolInfo{
			Name:        server + "__" + t.Name,
			Desc:        t.Description,
			ParamsOneOf: schemaToParams(t.InputSchema),
		},
	}
}

// Name returns the prefixed tool name used for registration.
func (t *RemoteTool) Name() string { return t.info.Name }

func (t *RemoteTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return t.info, nil
}

func (t *RemoteTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var args map[string]any
	if argumentsInJSON != "" {
		if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
			return "", fmt.Errorf("mcp tool %s: parse arguments: %w", t.info.Name, err)
		}
	}

	result, err := t.session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      t.name,
		Arguments: args,
	})
	if err != nil {
		return "", fmt.Errorf("mcp tool %s: %w", t.info.Name, err)
	}

	text := contentText(result.Content)
	if result.IsError {
		return "", fmt.Errorf("mcp tool %s: %s", t.info.Name, text)
	}
	return text, nil
}

func contentText(content []mcpsdk.Content) string {
	var parts []string
	for _, c := range content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// inputSchema is the subset of JSON Schema that MCP tools declare and that
// maps onto Eino parameter info.
type inputSchema struct {
	Properties map[string]propertySchema `json:"properties"`
	Required   []string                  `json:"required"`
}

type propertySchema struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Enum        []string `json:"enum"`
}

// schemaToParams converts an advertised input schema into Eino params.
// Unknown or unparseable schemas yield nil, which Eino treats as a tool
// without declared parameters.
func schemaToParams(raw any) *schema.ParamsOneOf {
	if raw == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var in inputSchema
	if err := json.Unmarshal(data, &in); err != nil || len(in.Properties) == 0 {
		return nil
	}

	required := make(map[string]bool, len(in.Required))
	for _, name := range in.Required {
		required[name] = true
	}

	params := make(map[string]*schema.ParameterInfo, len(in.Properties))
	for name, p := range in.Properties {
		params[name] = &schema.ParameterInfo{
			Type:     jsonTypeToDataType(p.Type),
			Desc:     p.Description,
			Required: required[name],
			Enum:     p.Enum,
		}
	}
	return schema.NewParamsOneOfByParams(params)
}

func jsonTypeToDataType(t string) schema.DataType {
	switch t {
	case "number":
		return schema.Number
	case "integer":
		return schema.Integer
	case "boolean":
		return schema.Boolean
	case "array":
		return schema.Array
	case "object":
		return schema.Object
	default:
		return schema.String
	}
}

var _ tool.InvokableTool = (*RemoteTool)(nil)
