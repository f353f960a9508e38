package mcp

import (
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quill-sh/quill/internal/plugins"
)

func TestSpecToMCPTool(t *testing.T) {
	spec := &plugins.ToolSpec{
		Name:        "web_search",
		Description: "Search the web",
		Parameters: map[string]plugins.ParamSpec{
			"query": {Type: "string", Description: "the query", Required: true},
			"limit": {Type: "integer", Description: "max results", Default: 10},
		},
	}

	tool := specToMCPTool(spec)
	if tool.Name != "web_search" {
		t.Errorf("name = %q", tool.Name)
	}

	schema, ok := tool.InputSchema.(map[string]any)
	if !ok {
		t.Fatalf("input schema type %T", tool.InputSchema)
	}
	props := schema["properties"].(map[string]any)
	if len(props) != 2 {
		t.Errorf("properties = %v", props)
	}
	required, _ := schema["required"].([]string)
	if len(required) != 1 || required[0] != "query" {
		t.Errorf("required = %v", required)
	}
	limit := props["limit"].(map[string]any)
	if limit["default"] != 10 {
		t.Errorf("default = %v", limit["default"])
	}
}

func TestSchemaToParams(t *testing.T) {
	raw := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string", "description": "file path"},
			"verbose": map[string]any{"type": "boolean"},
		},
		"required": []any{"path"},
	}

	params := schemaToParams(raw)
	if params == nil {
		t.Fatal("expected params")
	}
}

func TestSchemaToParamsEmpty(t *testing.T) {
	if schemaToParams(nil) != nil {
		t.Error("nil schema should yield nil params")
	}
	if schemaToParams(map[string]any{"type": "object"}) != nil {
		t.Error("schema without properties should yield nil params")
	}
	if schemaToParams(make(chan int)) != nil {
		t.Error("unmarshalable schema should yield nil params")
	}
}

func TestContentText(t *testing.T) {
	content := []mcpsdk.Content{
		&mcpsdk.TextContent{Text: "one"},
		&mcpsdk.TextContent{Text: "two"},
	}
	if got := contentText(content); got != "one\ntwo" {
		t.Errorf("got %q", got)
	}
}

func TestJSONTypeToDataType(t *testing.T) {
	cases := map[string]string{
		"string":  "string",
		"number":  "number",
		"integer": "integer",
		"boolean": "boolean",
		"array":   "array",
		"object":  "object",
		"":        "string",
	}
	for in, want := range cases {
		if got := string(jsonTypeToDataType(in)); got != want {
			t.Errorf("%q: got %q, want %q", in, got, want)
		}
	}
}
