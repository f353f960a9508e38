package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/quill-sh/quill/internal/background"
	"github.com/quill-sh/quill/internal/events"
	"github.com/quill-sh/quill/internal/plugins"
	"github.com/quill-sh/quill/internal/stream"
)

func testManager(t *testing.T) *SubagentManager {
	t.Helper()
	bus := events.NewBus(16)
	t.Cleanup(bus.Close)
	registry := plugins.NewToolRegistry(plugins.NewExtismRuntime(bus))
	if err := registry.RegisterNative(plugins.FilesManifest(), plugins.NewFileTools()); err != nil {
		t.Fatal(err)
	}
	roles := map[string]Role{GeneralRole.Name: GeneralRole}
	return NewSubagentManager(nil, registry, roles, func(stream.Event) {})
}

func TestHandlerUnknownRole(t *testing.T) {
	m := testManager(t)
	if _, err := m.Handler("astrologer"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestHandlerKnownRole(t *testing.T) {
	m := testManager(t)
	h, err := m.Handler("general-purpose")
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}
	if h == nil {
		t.Fatal("expected a handler")
	}
}

func TestRoleToolsExcludeTaskTools(t *testing.T) {
	m := testManager(t)
	tools, err := m.roleTools(Role{})
	if err != nil {
		t.Fatalf("roleTools: %v", err)
	}
	if len(tools) == 0 {
		t.Fatal("expected default tool set")
	}
	// the registry has no task tools here, but the filter must hold anyway
	for _, name := range m.registry.ToolNames() {
		if taskToolNames[name] {
			t.Errorf("task tool %q leaked into subagent set", name)
		}
	}
}

func TestRoleToolsAllowlist(t *testing.T) {
	m := testManager(t)
	tools, err := m.roleTools(Role{Tools: []string{"read_file", "list_dir"}})
	if err != nil {
		t.Fatalf("roleTools: %v", err)
	}
	if len(tools) != 2 {
		t.Errorf("tools = %d, want 2", len(tools))
	}
	if _, err := m.roleTools(Role{Tools: []string{"no_such_tool"}}); err == nil {
		t.Error("unknown allowlisted tool should error")
	}
}

func TestClassifyRunError(t *testing.T) {
	direct := fmt.Errorf("tool gate: %w", background.ErrApprovalRequired)
	if !errors.Is(classifyRunError(direct), background.ErrApprovalRequired) {
		t.Error("wrapped sentinel should survive")
	}

	// engines that flatten errors to strings lose the wrap; the message match
	// restores the sentinel
	flattened := errors.New("run failed: tool \"run_command\" needs interactive approval: interactive approval required")
	if !errors.Is(classifyRunError(flattened), background.ErrApprovalRequired) {
		t.Error("flattened sentinel message should be reclassified")
	}

	other := errors.New("connection refused")
	if errors.Is(classifyRunError(other), background.ErrApprovalRequired) {
		t.Error("unrelated errors must not be reclassified")
	}
}

func TestRoleNamesFromManager(t *testing.T) {
	m := testManager(t)
	names := m.RoleNames()
	if len(names) != 1 || names[0] != "general-purpose" {
		t.Errorf("names = %v", names)
	}
}

func TestHandlerPanicTerminatesNamespace(t *testing.T) {
	var mu sync.Mutex
	var emitted []stream.Event

	bus := events.NewBus(16)
	t.Cleanup(bus.Close)
	registry := plugins.NewToolRegistry(plugins.NewExtismRuntime(bus))
	if err := registry.RegisterNative(plugins.FilesManifest(), plugins.NewFileTools()); err != nil {
		t.Fatal(err)
	}
	roles := map[string]Role{GeneralRole.Name: GeneralRole}

	// nil factory makes runRole panic before the runner exists.
	m := NewSubagentManager(nil, registry, roles, func(e stream.Event) {
		mu.Lock()
		emitted = append(emitted, e)
		mu.Unlock()
	})

	h, err := m.Handler("general-purpose")
	if err != nil {
		t.Fatalf("Handler: %v", err)
	}

	ctx := background.ContextWithTaskID(context.Background(), "task-7")
	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected the panic to propagate to the scheduler")
			}
		}()
		_, _ = h(ctx, "investigate")
	}()

	mu.Lock()
	defer mu.Unlock()
	want := stream.TaskNamespace("task-7")
	for _, e := range emitted {
		if e.Kind == stream.KindNamespaceTerminal && e.Namespace.Key() == want.Key() {
			if e.Err == "" {
				t.Error("terminal after panic should carry an error")
			}
			return
		}
	}
	t.Fatalf("no terminal event for %v, emitted %v", want, emitted)
}
