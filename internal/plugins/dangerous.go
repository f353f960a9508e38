package plugins

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/quill-sh/quill/internal/background"
	"github.com/quill-sh/quill/internal/events"
)

const confirmationTimeout = 60 * time.Second

// DangerousToolWrapper gates a tool behind user confirmation. Pre-approved
// tools run directly; background executions fail loudly because no prompt
// can reach the user there.
type DangerousToolWrapper struct {
	inner tool.InvokableTool
	name  string
	bus   *events.Bus
	perms *ToolPermissions
}

// WrapDangerous wraps a tool so each invocation requires confirmation.
func WrapDangerous(name string, inner tool.InvokableTool, bus *events.Bus, perms *ToolPermissions) *DangerousToolWrapper {
	return &DangerousToolWrapper{
		inner: inner,
		name:  name,
		bus:   bus,
		perms: perms,
	}
}

func (w *DangerousToolWrapper) Info(ctx context.Context) (*schema.ToolInfo, error) {
	return w.inner.Info(ctx)
}

func (w *DangerousToolWrapper) InvokableRun(ctx context.Context, argumentsInJSON string, opts ...tool.Option) (string, error) {
	sessionID := events.SessionIDFromContext(ctx)

	if w.perms.IsAllowed(sessionID, w.name) {
		return w.inner.InvokableRun(ctx, argumentsInJSON, opts...)
	}

	if events.IsBackgroundContext(ctx) {
		return "", fmt.Errorf("tool %q needs interactive approval: %w", w.name, background.ErrApprovalRequired)
	}

	approved, forSession, err := w.confirm(ctx, sessionID, argumentsInJSON)
	if err != nil {
		return "", err
	}
	if !approved {
		return "", fmt.Errorf("tool %q denied by user", w.name)
	}
	if forSession {
		w.perms.AllowForSession(sessionID, w.name)
	}

	return w.inner.InvokableRun(ctx, argumentsInJSON, opts...)
}

// confirm publishes a prompt request and waits for the matching response.
func (w *DangerousToolWrapper) confirm(ctx context.Context, sessionID, args string) (approved, forSession bool, err error) {
	token := uuid.NewString()

	ch, unsubscribe := w.bus.SubscribeChan(4, events.EventPromptResponse)
	defer unsubscribe()

	label := fmt.Sprintf("Allow tool %q to run?\n%s", w.name, truncate(args, 400))
	prompt := events.SelectPrompt(label, token, []events.PromptOption{
		{Value: "allow", Label: "Allow once"},
		{Value: "allow_session", Label: "Allow for this session"},
		{Value: "deny", Label: "Deny"},
	})
	w.bus.Publish(events.NewTypedEventWithSession(events.SourceAgent, prompt, sessionID))

	timer := time.NewTimer(confirmationTimeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, false, ctx.Err()
		case <-timer.C:
			return false, false, fmt.Errorf("tool %q confirmation timed out", w.name)
		case e, ok := <-ch:
			if !ok {
				return false, false, fmt.Errorf("tool %q confirmation channel closed", w.name)
			}
			resp, ok := events.ExtractPayload[events.PromptResponsePayload](e)
			if !ok || resp.Token != token {
				continue
			}
			if resp.Cancelled {
				return false, false, nil
			}
			switch resp.StringValue() {
			case "allow":
				return true, false, nil
			case "allow_session":
				return true, true, nil
			default:
				return false, false, nil
			}
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
