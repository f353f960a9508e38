package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/quill-sh/quill/internal/config"
	"github.com/quill-sh/quill/internal/models"
	"github.com/quill-sh/quill/internal/secrets"
)

// NewAuthCommand returns the auth subcommand.
func NewAuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage provider credentials",
		Commands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Store an API key for a provider, encrypted at rest",
				ArgsUsage: "<provider>",
				Action:    runAuthSet,
			},
			{
				Name:   "list",
				Usage:  "Show credential status per provider",
				Action: runAuthList,
			},
		},
	}
}

func runAuthSet(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: quill auth set <provider>")
	}

	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	provider, ok := cfg.Models.Providers[name]
	if !ok {
		return fmt.Errorf("unknown provider %q; check %s", name, config.ConfigPath())
	}

	envVar, err := authEnvVar(provider)
	if err != nil {
		return err
	}

	value, err := secrets.ReadSecret(fmt.Sprintf("API key for %s", name))
	if err != nil {
		return err
	}
	if value == "" {
		return fmt.Errorf("empty key, nothing stored")
	}

	keychain, err := secrets.OpenKeychain(secrets.KeyPath())
	if err != nil {
		return fmt.Errorf("open age key: %w", err)
	}
	encrypted, err := keychain.Encrypt(value)
	if err != nil {
		return fmt.Errorf("encrypt key: %w", err)
	}

	if err := secrets.SetEntry(config.DotenvPath(), envVar, encrypted); err != nil {
		return fmt.Errorf("write .env: %w", err)
	}

	fmt.Printf("Stored %s (encrypted) in %s\n", envVar, config.DotenvPath())
	return nil
}

func runAuthList(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	registry := models.NewRegistry(cfg.Models)
	for _, name := range registry.Names() {
		provider, _ := registry.Describe(name)
		status := "ok"
		if _, err := models.ResolveAuth(provider); err != nil {
			if strings.ToLower(provider.Driver) == "ollama" {
				status = "no auth required"
			} else {
				status = "missing (" + err.Error() + ")"
			}
		}
		fmt.Printf("%-12s %s\n", name, status)
	}
	return nil
}

// authEnvVar resolves the environment variable a provider's key lives in.
func authEnvVar(provider config.ProviderConfig) (string, error) {
	apiKey := strings.TrimSpace(provider.Auth.APIKey)
	if strings.HasPrefix(apiKey, "${") && strings.HasSuffix(apiKey, "}") {
		return apiKey[2 : len(apiKey)-1], nil
	}

	switch strings.ToLower(provider.Driver) {
	case "anthropic":
		return "ANTHROPIC_API_KEY", nil
	case "openai":
		return "OPENAI_API_KEY", nil
	case "google":
		return "GOOGLE_API_KEY", nil
	case "ollama":
		return "", fmt.Errorf("ollama providers need no API key")
	default:
		return "", fmt.Errorf("unknown driver %q", provider.Driver)
	}
}
