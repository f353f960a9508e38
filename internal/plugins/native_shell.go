package plugins

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

const (
	defaultExecuteTimeout = 30 * time.Second
	maxExecuteTimeout     = 300 * time.Second
	maxOutputBytes        = 64 * 1024
)

// RunCommandManifest describes the built-in shell execution tool.
func RunCommandManifest() *PluginManifest {
	return &PluginManifest{
		Name:        "run_command",
		Description: "Execute shell commands on the host",
		Provider:    "native",
		Dangerous:   true,
		Tools: []ToolSpec{
			{
				Name:        "run_command",
				Description: "Run a shell command and return its combined output. Destructive commands are refused.",
				Dangerous:   true,
				Parameters: map[string]ParamSpec{
					"command": {
						Type:        "string",
						Description: "The shell command to execute",
						Required:    true,
					},
					"working_dir": {
						Type:        "string",
						Description: "Directory to run the command in",
					},
					"timeout": {
						Type:        "integer",
						Description: "Timeout in seconds (default 30, max 300)",
					},
				},
			},
		},
	}
}

type runCommandInput struct {
	Command    string `json:"command"`
	WorkingDir string `json:"working_dir"`
	Timeout    int    `json:"timeout"`
}

func (in runCommandInput) timeout() time.Duration {
	if in.Timeout <= 0 {
		return defaultExecuteTimeout
	}
	if d := time.Duration(in.Timeout) * time.Second; d < maxExecuteTimeout {
		return d
	}
	return maxExecuteTimeout
}

type runCommandOutput struct {
	Output   string `json:"output"`
	ExitCode int    `json:"exit_code"`
	Risk     string `json:"risk"`
}

// RunCommandTool executes shell commands through sh -c with a risk gate.
type RunCommandTool struct{}

func NewRunCommandTool() *RunCommandTool { return &RunCommandTool{} }

func (t *RunCommandTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	spec := &RunCommandManifest().Tools[0]
	return spec.einoInfo(), nil
}

func (t *RunCommandTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var input runCommandInput
	if err := json.Unmarshal([]byte(argumentsInJSON), &input); err != nil {
		return "", fmt.Errorf("parse arguments: %w", err)
	}
	if input.Command == "" {
		return "", fmt.Errorf("command is required")
	}

	risk, err := ClassifyShellCommand(input.Command)
	if err != nil {
		// still runs, but the parse failure is worth surfacing
		risk = RiskMutating
	}
	if risk == RiskBlocked {
		return "", fmt.Errorf("command refused: %q is too destructive to run", input.Command)
	}

	result, err := t.exec(ctx, input)
	if err != nil {
		return "", err
	}
	result.Risk = risk.String()

	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// exec runs the command under the input's timeout, capturing interleaved
// stdout/stderr.
func (t *RunCommandTool) exec(ctx context.Context, input runCommandInput) (runCommandOutput, error) {
	timeout := input.timeout()
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "sh", "-c", input.Command)
	cmd.Dir = input.WorkingDir

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	runErr := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return runCommandOutput{}, fmt.Errorf("command timed out after %s", timeout)
	}

	output := buf.String()
	if len(output) > maxOutputBytes {
		output = output[:maxOutputBytes] + "\n... output truncated"
	}

	out := runCommandOutput{Output: output}
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			return runCommandOutput{}, fmt.Errorf("run command: %w", runErr)
		}
		out.ExitCode = exitErr.ExitCode()
	}
	return out, nil
}
