package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/quill-sh/quill/internal/config"
	"github.com/quill-sh/quill/internal/events"
)

// NewAskCommand returns the ask subcommand.
func NewAskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Send one message to the agent and print the response",
		ArgsUsage: "<message>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "dangerously-accept-all",
				Aliases: []string{"y"},
				Usage:   "Auto-approve all dangerous tool executions (no confirmation prompts)",
			},
			&cli.IntFlag{
				Name:  "timeout",
				Usage: "Response timeout in seconds",
				Value: 300,
			},
		},
		Action: runAsk,
	}
}

func runAsk(ctx context.Context, cmd *cli.Command) error {
	message := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("usage: quill ask <message>")
	}

	cfg, err := config.LoadOrDefault(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logToStderr(cmd.Bool("debug"))

	timeoutSecs := cmd.Int("timeout")
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSecs)*time.Second)
	defer cancel()

	a, err := buildApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	if cmd.Bool("dangerously-accept-all") {
		a.perms.AllowAllForSession(a.sessionID)
	}

	ch, unsubscribe := a.bus.SubscribeChan(64,
		events.EventAssistantStream,
		events.EventAssistantMessage,
		events.EventPromptRequest,
	)
	defer unsubscribe()

	a.bus.Publish(events.NewTypedEventWithSession(events.SourceTUI,
		events.UserMessagePayload{Content: message}, a.sessionID))

	printer := askPrinter{}
	for {
		var e events.Event
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for response")
		case e = <-ch:
		}

		switch e.Type {
		case events.EventAssistantStream:
			if payload, ok := events.ExtractPayload[events.AssistantStreamPayload](e); ok {
				printer.stream(payload)
			}

		case events.EventPromptRequest:
			if payload, ok := events.ExtractPayload[events.PromptRequestPayload](e); ok {
				a.bus.Publish(events.NewTypedEventWithSession(events.SourceTUI,
					answerPrompt(payload), a.sessionID))
			}

		case events.EventAssistantMessage:
			payload, ok := events.ExtractPayload[events.AssistantMessagePayload](e)
			if !ok {
				continue
			}
			return printer.final(payload)
		}
	}
}

// askPrinter writes the root agent's output to stdout, deduplicating the
// final message against content already printed by the stream.
type askPrinter struct {
	streamed bool
}

func (p *askPrinter) stream(payload events.AssistantStreamPayload) {
	if len(payload.Namespace) > 0 {
		return // subagent output stays off the console
	}
	switch payload.Phase {
	case events.StreamPhaseStart:
		p.streamed = true
	case events.StreamPhaseDelta:
		fmt.Fprint(os.Stdout, payload.Content)
	case events.StreamPhaseEnd:
		if p.streamed {
			fmt.Fprintln(os.Stdout)
		}
	}
}

func (p *askPrinter) final(payload events.AssistantMessagePayload) error {
	if payload.Error != "" {
		return fmt.Errorf("agent error: %s", payload.Error)
	}
	if !p.streamed && payload.Content != "" {
		fmt.Fprintln(os.Stdout, payload.Content)
	}
	return nil
}

// answerPrompt asks the user on stderr and maps the answer back to the
// prompt's expected response. Tool approvals arrive as selects whose first
// option is the approval.
func answerPrompt(req events.PromptRequestPayload) events.PromptResponsePayload {
	fmt.Fprintf(os.Stderr, "\n%s [y/N] ", req.Label)
	scanner := bufio.NewScanner(os.Stdin)
	approved := false
	if scanner.Scan() {
		answer := strings.TrimSpace(strings.ToLower(scanner.Text()))
		approved = answer == "y" || answer == "yes"
	}

	resp := events.PromptResponsePayload{Token: req.Token, Cancelled: !approved}
	if approved && req.Type == events.PromptTypeSelect && len(req.Options) > 0 {
		resp.Value = req.Options[0].Value
	}
	return resp
}
