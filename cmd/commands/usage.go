package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/quill-sh/quill/internal/config"
	"github.com/quill-sh/quill/internal/storage"
)

// NewUsageCommand returns the usage subcommand.
func NewUsageCommand() *cli.Command {
	return &cli.Command{
		Name:  "usage",
		Usage: "Show accumulated token usage per model",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "session",
				Aliases: []string{"s"},
				Usage:   "Show usage for one session instead of totals",
			},
		},
		Action: runUsage,
	}
}

func runUsage(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Read-only open; no bus subscription.
	ledger, err := storage.OpenUsageLedger(cfg.Storage.UsageDB, nil)
	if err != nil {
		return fmt.Errorf("open usage ledger: %w", err)
	}
	defer ledger.Close()

	var rows []storage.UsageRow
	if session := cmd.String("session"); session != "" {
		rows, err = ledger.SessionUsage(session)
	} else {
		rows, err = ledger.Totals()
	}
	if err != nil {
		return fmt.Errorf("query usage: %w", err)
	}

	if len(rows) == 0 {
		fmt.Println("No usage recorded yet.")
		return nil
	}

	fmt.Printf("%-30s %8s %12s %12s\n", "MODEL", "CALLS", "TOKENS IN", "TOKENS OUT")
	for _, r := range rows {
		fmt.Printf("%-30s %8d %12d %12d\n", r.Model, r.Calls, r.TokensInput, r.TokensOutput)
	}
	return nil
}
