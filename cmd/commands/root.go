package commands

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/quill-sh/quill/internal/config"
)

// logToStderr routes slog to stderr, keeping stdout clean for command
// output (and for the MCP stdio transport).
func logToStderr(debug bool) {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "quill",
		Usage: "Terminal copilot with background subagents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewInitCommand(),
			NewChatCommand(),
			NewAskCommand(),
			NewModelsCommand(),
			NewUsageCommand(),
			NewAuthCommand(),
			NewPluginsCommand(),
			NewMCPServeCommand(),
		},
	}
}
