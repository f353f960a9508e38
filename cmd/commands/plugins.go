package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/quill-sh/quill/internal/config"
	"github.com/quill-sh/quill/internal/events"
	"github.com/quill-sh/quill/internal/plugins"
)

// NewPluginsCommand returns the plugins subcommand.
func NewPluginsCommand() *cli.Command {
	return &cli.Command{
		Name:  "plugins",
		Usage: "List loaded tools and plugins",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.LoadOrDefault(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logToStderr(cmd.Bool("debug"))

			bus := events.NewBus(64)
			defer bus.Close()

			registry, _, err := plugins.SetupToolRegistry(ctx, cfg, bus, nil, nil)
			if err != nil {
				return fmt.Errorf("setup tools: %w", err)
			}
			defer registry.Close(ctx)

			for _, name := range registry.ToolNames() {
				spec := registry.Spec(name)
				manifest := registry.Manifest(name)
				marker := " "
				if spec != nil && spec.Dangerous {
					marker = "!"
				}
				provider := "native"
				if manifest != nil && manifest.Provider != "" {
					provider = manifest.Provider
				}
				desc := ""
				if spec != nil {
					desc = spec.Description
				}
				fmt.Printf("%s %-24s [%s] %s\n", marker, name, provider, desc)
			}
			return nil
		},
	}
}
