package mcp

import (
	"github.com/cloudwego/eino/components/tool"

	"github.com/quill-sh/quill/internal/plugins"
)

// RegisterRemoteTools adds MCP remote tools to the tool registry under a
// synthetic manifest per server, so the agent sees them alongside native
// and WASM tools.
func RegisterRemoteTools(registry *plugins.ToolRegistry, tools []*RemoteTool) error {
	byServer := make(map[string][]*RemoteTool)
	for _, t := range tools {
		byServer[t.server] = append(byServer[t.server], t)
	}

	for server, serverTools := range byServer {
		manifest := &plugins.PluginManifest{
			Name:        "mcp:" + server,
			Description: "Tools from MCP server " + server,
			Provider:    "mcp",
		}
		impls := make(map[string]tool.InvokableTool, len(serverTools))
		for _, t := range serverTools {
			manifest.Tools = append(manifest.Tools, plugins.ToolSpec{
				Name:        t.Name(),
				Description: t.info.Desc,
			})
			impls[t.Name()] = t
		}
		if err := registry.RegisterNative(manifest, impls); err != nil {
			return err
		}
	}
	return nil
}
