package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/quill-sh/quill/internal/config"
	"github.com/quill-sh/quill/internal/secrets"
)

// NewInitCommand returns the onboarding subcommand.
func NewInitCommand() *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Initialize the Quill home directory (~/.quill)",
		Action: runInit,
	}
}

func runInit(_ context.Context, _ *cli.Command) error {
	root := config.QuillPath()
	created := 0

	for _, sub := range []string{"", "logs", "roles", "plugins", "history"} {
		n, err := ensureDir(filepath.Join(root, sub))
		if err != nil {
			return err
		}
		created += n
	}

	n, err := ensureFile(config.ConfigPath(), defaultConfig, 0o644)
	if err != nil {
		return err
	}
	created += n

	n, err = ensureFile(config.DotenvPath(), defaultDotenv, 0o600)
	if err != nil {
		return err
	}
	created += n

	// Key pair for encrypted secrets. Idempotent.
	if _, err := secrets.OpenKeychain(secrets.KeyPath()); err != nil {
		return fmt.Errorf("set up age key: %w", err)
	}

	if created == 0 {
		fmt.Printf("Already set up — %s is complete. Nothing to do.\n", root)
		return nil
	}

	fmt.Println(initMessage(root))
	return nil
}

// ensureDir creates dir if absent, returning 1 when it did.
func ensureDir(dir string) (int, error) {
	if _, err := os.Stat(dir); err == nil {
		return 0, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create dir %s: %w", dir, err)
	}
	fmt.Printf("  Created %s\n", dir)
	return 1, nil
}

// ensureFile writes content to path if absent, returning 1 when it did.
func ensureFile(path, content string, perm os.FileMode) (int, error) {
	if _, err := os.Stat(path); err == nil {
		return 0, nil
	}
	if err := os.WriteFile(path, []byte(content), perm); err != nil {
		return 0, fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	fmt.Printf("  Created %s\n", path)
	return 1, nil
}

const defaultConfig = `{
	// Quill Configuration

	"models": {
		"default": "claude",
		"providers": {
			"claude": {
				"driver": "anthropic",
				"model": "claude-sonnet-4-20250514",
				"auth": { "api_key": "${ANTHROPIC_API_KEY}" },
				"max_tokens": 4096
			}

			// Local model via Ollama (no auth required):
			// "local": { "driver": "ollama", "model": "llama3.1:8b" }
		}
	},

	"events": { "buffer_size": 1024 },

	"tools": {
		"web": { "provider": "duckduckgo" }
	},

	"agent": { "system_prompt": "" }
}
`

const defaultDotenv = `# Quill environment variables
# Loaded automatically at startup; existing env vars are never overridden.
# Use "quill auth set <provider>" to store keys encrypted.

# ANTHROPIC_API_KEY=sk-ant-...
# OPENAI_API_KEY=sk-...
`

func initMessage(root string) string {
	return fmt.Sprintf(`
  Quill is ready.

  Home set up at %s
  Config, logs, roles, plugins, history — all in there.

  Next steps:
    1. Store an API key: quill auth set claude
    2. Tweak %s/config.jsonc if you feel like it
    3. Run: quill chat
`, root, root)
}
