package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/quill-sh/quill/internal/config"
	"github.com/quill-sh/quill/internal/models"
)

// NewModelsCommand returns the models subcommand.
func NewModelsCommand() *cli.Command {
	return &cli.Command{
		Name:  "models",
		Usage: "List configured model providers",
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := config.LoadOrDefault(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			registry := models.NewRegistry(cfg.Models)
			names := registry.Names()
			if len(names) == 0 {
				fmt.Println("No model providers configured. Run: quill init")
				return nil
			}

			defaultName := registry.DefaultName()
			for _, name := range names {
				provider, _ := registry.Describe(name)
				marker := " "
				if name == defaultName {
					marker = "*"
				}
				fmt.Printf("%s %-12s %s (%s)\n", marker, name, provider.Model, provider.Driver)
			}
			return nil
		},
	}
}
