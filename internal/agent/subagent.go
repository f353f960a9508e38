package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/quill-sh/quill/internal/background"
	"github.com/quill-sh/quill/internal/events"
	"github.com/quill-sh/quill/internal/plugins"
	"github.com/quill-sh/quill/internal/stream"
)

// SubagentInstructions are appended to every role prompt. Not overridable.
const SubagentInstructions = `

## Operating Mode

You run in the background; the user cannot answer questions. Work with what the task gives you, and if something is truly blocked, report the blocker as your result instead of guessing.`

// taskToolNames are excluded from subagent tool sets. Subagents do not
// launch further subagents.
var taskToolNames = map[string]bool{
	"task": true, "check_task": true, "wait_for_task": true,
	"list_background_tasks": true, "cancel_task": true,
}

// SubagentManager turns roles into background handlers. It satisfies
// plugins.SubagentRunner.
type SubagentManager struct {
	factory  *RunnerFactory
	registry *plugins.ToolRegistry
	roles    map[string]Role
	emit     func(stream.Event)
}

// NewSubagentManager creates a manager over the loaded roles. Emit receives
// the subagent's stream events; the runtime routes them by namespace.
func NewSubagentManager(factory *RunnerFactory, registry *plugins.ToolRegistry, roles map[string]Role, emit func(stream.Event)) *SubagentManager {
	return &SubagentManager{
		factory:  factory,
		registry: registry,
		roles:    roles,
		emit:     emit,
	}
}

// RoleNames lists the available subagent roles.
func (m *SubagentManager) RoleNames() []string {
	return RoleNames(m.roles)
}

// Handler returns a background handler that runs the named role. The
// handler emits stream events under ["task", "<id>"] and always terminates
// its namespace, success or failure.
func (m *SubagentManager) Handler(roleName string) (background.Handler, error) {
	role, ok := m.roles[roleName]
	if !ok {
		return nil, fmt.Errorf("unknown subagent role %q", roleName)
	}

	return func(ctx context.Context, request any) (result any, err error) {
		prompt, _ := request.(string)
		if prompt == "" {
			return nil, errors.New("subagent request must be a non-empty prompt")
		}

		id := background.TaskIDFromContext(ctx)
		ns := stream.TaskNamespace(id)
		ctx = events.ContextWithBackground(ctx)

		// The namespace terminates no matter how the run ends; a panic
		// below would otherwise leave the router sink active forever.
		// Re-panic so the scheduler still records the task as failed.
		defer func() {
			if p := recover(); p != nil {
				m.emit(stream.Terminal(ns, fmt.Sprintf("subagent panic: %v", p)))
				panic(p)
			}
		}()

		out, runErr := m.runRole(ctx, role, prompt, ns)
		if runErr != nil {
			runErr = classifyRunError(runErr)
			m.emit(stream.Terminal(ns, runErr.Error()))
			return nil, runErr
		}
		m.emit(stream.Terminal(ns, ""))
		return out, nil
	}, nil
}

func (m *SubagentManager) runRole(ctx context.Context, role Role, prompt string, ns stream.Namespace) (string, error) {
	tools, err := m.roleTools(role)
	if err != nil {
		return "", err
	}

	runner, err := m.factory.Buffered(ctx, role.Prompt+SubagentInstructions, tools)
	if err != nil {
		return "", err
	}

	iter := runner.Run(ctx, []*schema.Message{{Role: schema.User, Content: prompt}})
	final, err := consumeIterator(iter, ns, m.emit)
	if err != nil {
		return "", err
	}
	if final == "" {
		return "", errors.New("subagent produced no result")
	}
	return final, nil
}

// roleTools resolves a role's allowlist, or every non-task tool when the
// role declares none.
func (m *SubagentManager) roleTools(role Role) ([]tool.InvokableTool, error) {
	if len(role.Tools) > 0 {
		return m.registry.ToolsByNames(role.Tools)
	}
	var names []string
	for _, name := range m.registry.ToolNames() {
		if !taskToolNames[name] {
			names = append(names, name)
		}
	}
	return m.registry.ToolsByNames(names)
}

// classifyRunError surfaces the approval sentinel even when the execution
// engine re-wrapped the tool error as a plain string.
func classifyRunError(err error) error {
	if errors.Is(err, background.ErrApprovalRequired) {
		return err
	}
	if strings.Contains(err.Error(), background.ErrApprovalRequired.Error()) {
		return fmt.Errorf("%s: %w", err.Error(), background.ErrApprovalRequired)
	}
	return err
}

var _ plugins.SubagentRunner = (*SubagentManager)(nil)
