package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/quill-sh/quill/clients/tui"
	"github.com/quill-sh/quill/internal/config"
	"github.com/quill-sh/quill/internal/secrets"
)

// NewChatCommand returns the interactive chat subcommand.
func NewChatCommand() *cli.Command {
	return &cli.Command{
		Name:   "chat",
		Usage:  "Start an interactive chat session",
		Action: runChat,
	}
}

func runChat(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// The terminal belongs to the TUI; logs go to a file.
	closeLog, err := setupFileLogging(cmd.Bool("debug"))
	if err != nil {
		return err
	}
	defer closeLog()

	notifier := tui.NewProgramNotifier()

	a, err := buildApp(ctx, cfg, notifier)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	stopReload := watchReload(cmd.String("config"), cfg)
	defer stopReload()

	return tui.Run(ctx, tui.RunOptions{
		Bus:       a.bus,
		Scheduler: a.scheduler,
		Panels:    a.panels,
		Notifier:  notifier,
		SessionID: a.sessionID,
		Model:     a.modelName,
	})
}

// watchReload reloads configuration and credentials on SIGHUP so key
// rotations take effect without restarting the session.
func watchReload(configPath string, cfg *config.Config) func() {
	reloader := config.NewReloader(configPath, config.DotenvPath(), cfg)
	reloader.AfterEnvReload(func() error {
		return secrets.DecryptEnv(secrets.KeyPath())
	})

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP)
	go func() {
		for range sigs {
			if err := reloader.Reload(); err != nil {
				slog.Warn("config reload failed", "error", err)
			}
		}
	}()
	return func() {
		signal.Stop(sigs)
		close(sigs)
	}
}

// setupFileLogging redirects slog to $QUILL_PATH/logs/quill.log.
func setupFileLogging(debug bool) (func(), error) {
	logDir := config.LogsDir()
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(logDir, "quill.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level})))

	return func() { f.Close() }, nil
}
