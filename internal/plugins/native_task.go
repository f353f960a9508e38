package plugins

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/quill-sh/quill/internal/background"
)

const timeRounding = 100 * time.Millisecond

// SubagentRunner produces background handlers for named subagent roles.
// The agent package implements this; the tools stay agnostic of how a
// subagent actually runs.
type SubagentRunner interface {
	Handler(role string) (background.Handler, error)
	RoleNames() []string
}

// TaskManifest describes the background-task companion tools.
func TaskManifest(roles []string) *PluginManifest {
	roleDesc := "Subagent role to run"
	if len(roles) > 0 {
		roleDesc = fmt.Sprintf("Subagent role to run, one of: %s", strings.Join(roles, ", "))
	}
	return &PluginManifest{
		Name:        "tasks",
		Description: "Launch and manage background subagent tasks",
		Provider:    "native",
		Tools: []ToolSpec{
			{
				Name: "task",
				Description: "Launch a subagent in the background and return immediately with its task id. " +
					"The conversation continues while the subagent works; use check_task or wait_for_task to collect the result.",
				Parameters: map[string]ParamSpec{
					"prompt": {
						Type:        "string",
						Description: "Instructions for the subagent",
						Required:    true,
					},
					"subagent_type": {
						Type:        "string",
						Description: roleDesc,
						Required:    true,
					},
				},
			},
			{
				Name: "check_task",
				Description: "Check a background task's status without waiting. " +
					"Unknown ids return status \"unknown\" rather than an error.",
				Parameters: map[string]ParamSpec{
					"task_id": {Type: "string", Description: "Id returned by task", Required: true},
				},
			},
			{
				Name: "wait_for_task",
				Description: "Block until a background task finishes and return its result. " +
					"Returns immediately if the task is already done.",
				Parameters: map[string]ParamSpec{
					"task_id": {Type: "string", Description: "Id returned by task", Required: true},
				},
			},
			{
				Name:        "list_background_tasks",
				Description: "List all background tasks in launch order with their current status.",
				Parameters:  map[string]ParamSpec{},
			},
			{
				Name:        "cancel_task",
				Description: "Request cancellation of a running background task. Finished tasks are left as-is.",
				Parameters: map[string]ParamSpec{
					"task_id": {Type: "string", Description: "Id returned by task", Required: true},
				},
			},
		},
	}
}

// taskTool dispatches one of the task companion specs against the scheduler.
type taskTool struct {
	spec      *ToolSpec
	scheduler *background.Scheduler
	runner    SubagentRunner
}

// NewTaskTools returns the five task companion tools bound to scheduler.
func NewTaskTools(scheduler *background.Scheduler, runner SubagentRunner) map[string]tool.InvokableTool {
	manifest := TaskManifest(runner.RoleNames())
	tools := make(map[string]tool.InvokableTool, len(manifest.Tools))
	for i := range manifest.Tools {
		spec := &manifest.Tools[i]
		tools[spec.Name] = &taskTool{spec: spec, scheduler: scheduler, runner: runner}
	}
	return tools
}

func (t *taskTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return t.spec.einoInfo(), nil
}

type taskToolInput struct {
	Prompt       string `json:"prompt"`
	SubagentType string `json:"subagent_type"`
	TaskID       string `json:"task_id"`
}

func (t *taskTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	var input taskToolInput
	if argumentsInJSON != "" {
		if err := json.Unmarshal([]byte(argumentsInJSON), &input); err != nil {
			return "", fmt.Errorf("parse arguments: %w", err)
		}
	}

	switch t.spec.Name {
	case "task":
		return t.launch(input)
	case "check_task":
		return t.check(input.TaskID)
	case "wait_for_task":
		return t.wait(ctx, input.TaskID)
	case "list_background_tasks":
		return t.list()
	case "cancel_task":
		return t.cancel(input.TaskID)
	default:
		return "", fmt.Errorf("unknown task tool %q", t.spec.Name)
	}
}

func (t *taskTool) launch(input taskToolInput) (string, error) {
	if input.Prompt == "" {
		return "", fmt.Errorf("prompt is required")
	}
	if input.SubagentType == "" {
		return "", fmt.Errorf("subagent_type is required")
	}
	handler, err := t.runner.Handler(input.SubagentType)
	if err != nil {
		return "", err
	}
	id := t.scheduler.Launch(input.SubagentType, input.Prompt, handler)
	return marshalTaskResult(map[string]any{
		"task_id": id,
		"status":  string(background.StatusRunning),
		"note":    "task runs in the background; use check_task to poll or wait_for_task to block",
	})
}

func (t *taskTool) check(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("task_id is required")
	}
	snap := t.scheduler.Check(id)
	out := map[string]any{
		"task_id": snap.ID,
		"status":  string(snap.Status),
	}
	if snap.Status != background.StatusUnknown {
		out["type"] = snap.Type
		out["elapsed"] = snap.Elapsed.Round(timeRounding).String()
	}
	if snap.Error != "" {
		out["error"] = snap.Error
	}
	if snap.Status == background.StatusCompleted {
		out["result"] = resultString(snap.Result)
	}
	return marshalTaskResult(out)
}

func (t *taskTool) wait(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("task_id is required")
	}
	result, err := t.scheduler.Wait(ctx, id)
	if err != nil {
		var unknown *background.UnknownTaskError
		if errors.As(err, &unknown) {
			return "", err
		}
		// terminal failure or cancellation reported as tool output so the
		// model can react instead of retrying blindly
		return marshalTaskResult(map[string]any{
			"task_id": id,
			"status":  string(t.scheduler.Check(id).Status),
			"error":   err.Error(),
		})
	}
	return marshalTaskResult(map[string]any{
		"task_id": id,
		"status":  string(background.StatusCompleted),
		"result":  resultString(result),
	})
}

func (t *taskTool) list() (string, error) {
	snaps := t.scheduler.ListTasks()
	out := make([]map[string]any, 0, len(snaps))
	for _, snap := range snaps {
		entry := map[string]any{
			"task_id": snap.ID,
			"type":    snap.Type,
			"status":  string(snap.Status),
			"elapsed": snap.Elapsed.Round(timeRounding).String(),
		}
		if snap.Error != "" {
			entry["error"] = snap.Error
		}
		out = append(out, entry)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (t *taskTool) cancel(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("task_id is required")
	}
	before := t.scheduler.Check(id)
	t.scheduler.Cancel(id)
	status := before.Status
	if status == background.StatusRunning {
		status = background.StatusCancelled
	}
	return marshalTaskResult(map[string]any{
		"task_id": id,
		"status":  string(status),
	})
}

func marshalTaskResult(v map[string]any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func resultString(result any) string {
	switch v := result.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}
