package commands

import (
	"context"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/quill-sh/quill/internal/config"
	"github.com/quill-sh/quill/internal/events"
	quillmcp "github.com/quill-sh/quill/internal/mcp"
	"github.com/quill-sh/quill/internal/plugins"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServeCommand returns the mcp-serve subcommand.
func NewMCPServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp-serve",
		Usage: "Expose Quill tools as an MCP server (stdio)",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name:      "filter",
				UsageText: "Plugin or tool name to expose (empty = all)",
			},
		},
		Action: runMCPServe,
	}
}

func runMCPServe(ctx context.Context, cmd *cli.Command) error {
	logToStderr(cmd.Bool("debug"))

	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return err
	}

	// Minimal event bus (needed for plugin host functions).
	bus := events.NewBus(64)
	defer bus.Close()

	toolRegistry, perms, err := plugins.SetupToolRegistry(ctx, cfg, bus, nil, nil)
	if err != nil {
		return err
	}
	defer toolRegistry.Close(ctx)

	// MCP clients run their own confirmations; tool calls arrive without a
	// session, so blanket-allow the empty session.
	perms.AllowAllForSession("")

	filter := cmd.StringArg("filter")
	slog.Debug("starting MCP server", "filter", filter, "tools", len(toolRegistry.ToolNames()))

	server := quillmcp.NewServer(toolRegistry, filter)
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}
