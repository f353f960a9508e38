// Package agent bridges Quill to the Eino ADK: runner construction, the
// streaming runtime for the primary conversation, and background subagents.
package agent

import (
	"context"
	"os"
	"strings"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"

	"github.com/quill-sh/quill/internal/config"
)

// DefaultPersona is the voice Quill answers with. Overridable via SOUL.md
// in QUILL_PATH.
const DefaultPersona = `You are Quill — a sharp, unhurried terminal copilot. You sit beside an engineer in their shell and help them think, build, and investigate.

### Principles
- **Stay available.** You are the foreground voice. Anything that takes real time goes to a background subagent; you keep talking.
- **Straight answers.** No filler, no "as an AI". Lead with the conclusion, then the reasoning if it earns its place.
- **Honest uncertainty.** When you don't know, say so and propose how to find out. Never fake a result.
- **Small, sharp moves.** Prefer the simplest tool call that answers the question over an elaborate plan.

### Style
- Terse by default. Expand only when the user asks or the subject demands it.
- Use concrete paths, commands, and numbers instead of abstractions.
- Code and commands go in fenced blocks; everything else stays prose.`

// AgentInstructions are the operating instructions for the primary agent.
// They are always injected and are not overridable; they define how Quill
// works, not who it is.
const AgentInstructions = `## Operating Mode

You are the user's primary interface. Never block the conversation with long-running work.

### Background Tasks
- Delegate anything beyond a quick answer or a single lookup to a background subagent with the task tool. It returns a task id immediately.
- After launching, tell the user briefly what was delegated and stay responsive.
- Poll with check_task before claiming a task succeeded; an unknown id means it was never launched.
- wait_for_task blocks until the task finishes and returns its result. Use it when the user explicitly wants to wait, and whenever a task failed because it needed interactive approval.
- list_background_tasks shows everything launched this session; cancel_task stops a running task.

### Tools
- Call tools instead of describing what you would do.
- read_file takes a file, never a directory; use list_dir or glob_files to discover paths first.
- run_command refuses catastrophic commands outright and asks the user before anything mutating.`

// LoadPersona reads SOUL.md from QUILL_PATH if present, otherwise returns
// DefaultPersona.
func LoadPersona() string {
	data, err := os.ReadFile(config.PersonaPath())
	if content := strings.TrimSpace(string(data)); err == nil && content != "" {
		return content
	}
	return DefaultPersona
}

// AgentOptions configures optional agent behavior.
type AgentOptions struct {
	MaxIterations int // 0 = ADK default
}

func firstOpt(opts []AgentOptions) AgentOptions {
	if len(opts) > 0 {
		return opts[0]
	}
	return AgentOptions{}
}

// NewAgent creates a streaming ADK runner with the given persona and tools.
func NewAgent(ctx context.Context, chatModel model.ToolCallingChatModel, persona string, tools []tool.InvokableTool, middlewares []adk.AgentMiddleware, opts ...AgentOptions) (*adk.Runner, error) {
	return buildRunner(ctx, chatModel, persona, tools, middlewares, true, firstOpt(opts))
}

// NewAgentBuffered creates a non-streaming runner. Subagents run buffered;
// their output reaches the user through panels, not token by token from the
// provider.
func NewAgentBuffered(ctx context.Context, chatModel model.ToolCallingChatModel, persona string, tools []tool.InvokableTool, middlewares []adk.AgentMiddleware, opts ...AgentOptions) (*adk.Runner, error) {
	return buildRunner(ctx, chatModel, persona, tools, middlewares, false, firstOpt(opts))
}

func buildRunner(ctx context.Context, chatModel model.ToolCallingChatModel, persona string, tools []tool.InvokableTool, middlewares []adk.AgentMiddleware, streaming bool, opt AgentOptions) (*adk.Runner, error) {
	if persona == "" {
		persona = DefaultPersona
	}

	chatAgent, err := adk.NewChatModelAgent(ctx, &adk.ChatModelAgentConfig{
		Name:          "quill",
		Description:   "Quill — terminal copilot with background subagents",
		Instruction:   persona,
		Model:         chatModel,
		MaxIterations: opt.MaxIterations,
		Middlewares:   middlewares,
		ToolsConfig:   toolsConfig(tools),
	})
	if err != nil {
		return nil, err
	}

	return adk.NewRunner(ctx, adk.RunnerConfig{
		Agent:           chatAgent,
		EnableStreaming: streaming,
	}), nil
}

func toolsConfig(tools []tool.InvokableTool) adk.ToolsConfig {
	var tc adk.ToolsConfig
	for _, t := range tools {
		tc.Tools = append(tc.Tools, tool.BaseTool(t))
	}
	return tc
}

// NewInstructionMiddleware injects the primary agent's operating
// instructions plus any user-configured additions.
func NewInstructionMiddleware(customInstructions string) adk.AgentMiddleware {
	instruction := AgentInstructions
	if customInstructions != "" {
		instruction += "\n\n## Additional Instructions\n\n" + customInstructions
	}
	return adk.AgentMiddleware{AdditionalInstruction: instruction}
}
