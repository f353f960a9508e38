package plugins

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	extism "github.com/extism/go-sdk"
)

// WasmTool adapts an Extism WASM plugin to Eino's tool.InvokableTool interface.
// Each WasmTool references a specific ToolSpec; multiple WasmTools may share
// the same extism.Plugin when a plugin exports multiple functions.
type WasmTool struct {
	spec       *ToolSpec
	plugin     *extism.Plugin
	pluginName string
}

var _ tool.InvokableTool = (*WasmTool)(nil)

// Info returns the ToolInfo for Eino registration.
func (t *WasmTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return t.spec.einoInfo(), nil
}

// InvokableRun calls the WASM export named in spec.Func.
func (t *WasmTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	_, output, err := t.plugin.Call(t.spec.Func, []byte(argumentsInJSON))
	if err != nil {
		return "", fmt.Errorf("plugin %q func %q: %w", t.pluginName, t.spec.Func, err)
	}
	return string(output), nil
}

// dataTypes maps manifest parameter type names to Eino types. Unknown
// names fall back to string.
var dataTypes = map[string]schema.DataType{
	"string":  schema.String,
	"number":  schema.Number,
	"integer": schema.Integer,
	"boolean": schema.Boolean,
	"array":   schema.Array,
	"object":  schema.Object,
}

// einoInfo converts the spec to an Eino schema.ToolInfo.
func (spec *ToolSpec) einoInfo() *schema.ToolInfo {
	info := &schema.ToolInfo{
		Name: spec.Name,
		Desc: spec.Description,
	}
	if len(spec.Parameters) == 0 {
		return info
	}

	params := make(map[string]*schema.ParameterInfo, len(spec.Parameters))
	for name, p := range spec.Parameters {
		dt, ok := dataTypes[p.Type]
		if !ok {
			dt = schema.String
		}
		params[name] = &schema.ParameterInfo{
			Type:     dt,
			Desc:     p.Description,
			Required: p.Required,
			Enum:     p.Enum,
		}
	}
	info.ParamsOneOf = schema.NewParamsOneOfByParams(params)
	return info
}
