package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/quill-sh/quill/clients/tui/molecules"
	"github.com/quill-sh/quill/clients/tui/organisms"
	"github.com/quill-sh/quill/internal/background"
	"github.com/quill-sh/quill/internal/events"
	"github.com/quill-sh/quill/internal/panels"
)

// MainModel is the root bubbletea model for the Quill TUI.
type MainModel struct {
	bus       *events.Bus
	scheduler *background.Scheduler
	panels    *panels.Manager
	sessionID string
	mode      organisms.Mode
	width     int
	height    int

	convo  organisms.ChatPanel
	prompt organisms.InteractionPanel
	status organisms.InformationPanel
}

// NewMainModel creates the root model.
func NewMainModel(bus *events.Bus, scheduler *background.Scheduler, panelMgr *panels.Manager, sessionID, model string) MainModel {
	m := MainModel{
		bus:       bus,
		scheduler: scheduler,
		panels:    panelMgr,
		sessionID: sessionID,
		mode:      organisms.ModeNormal,
		convo: organisms.NewChatPanel(80, 20, organisms.ChatPanelStyles{
			Assistant:  AssistantStyle,
			User:       UserStyle,
			Error:      ErrorStyle,
			Muted:      MutedStyle,
			ToolBorder: ToolBorderStyle,
			TaskBorder: TaskBorderStyle,
		}),
		prompt: organisms.NewInteractionPanel(PromptBorderStyle),
		status: organisms.NewInformationPanel(StatusBarStyle),
	}
	m.status.SetSession(sessionID)
	m.status.SetModel(model)
	return m
}

// Init starts the spinner ticks.
func (m MainModel) Init() tea.Cmd {
	return m.convo.Init()
}

// setMode transitions the UI mode, keeping the status bar in sync.
func (m *MainModel) setMode(mode organisms.Mode) {
	m.mode = mode
	m.status.SetMode(mode)
}

// resize distributes the terminal area: transcript above, then the
// one-line input and one-line status bar.
func (m *MainModel) resize(w, h int) {
	m.width, m.height = w, h
	transcript := h - 2
	if transcript < 1 {
		transcript = 1
	}
	m.convo.SetSize(w, transcript)
	m.prompt.SetWidth(w)
	m.status.SetWidth(w)
}

// Update processes all incoming messages.
func (m MainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.refreshAgents()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.onKey(msg)

	case StreamStartMsg:
		m.setMode(organisms.ModeStreaming)
		m.convo.HandleStreamStart()
		return m, nil

	case StreamDeltaMsg:
		m.convo.HandleStreamDelta(msg.Content)
		return m, nil

	case StreamEndMsg:
		m.setMode(organisms.ModeNormal)
		m.convo.HandleStreamEnd()
		if msg.Error != "" {
			m.convo.AppendErrorMessage(msg.Error)
		}
		return m.drainBuffered()

	case AssistantMessageMsg:
		m.setMode(organisms.ModeNormal)
		m.convo.HandleAssistantMessage(msg.Content, msg.Error)
		return m.drainBuffered()

	case ToolCallMsg:
		m.convo.HandleToolCall(msg.Status, msg.CallID, msg.Name, msg.Arguments, msg.Result, msg.Error)
		return m, nil

	case TaskMsg:
		return m, nil

	case PanelMountedMsg:
		m.convo.HandlePanelMounted(msg.Panel)
		return m, nil

	case PanelUpdatedMsg:
		m.convo.HandlePanelUpdated(msg.Panel)
		return m, nil

	case PanelFinalizedMsg:
		m.convo.HandlePanelFinalized(msg.Panel)
		return m, nil

	case PromptRequestMsg:
		m.setMode(organisms.ModePrompting)
		m.prompt.ActivateForm(msg.Request)
		return m, nil

	case organisms.FormResponseMsg:
		m.setMode(organisms.ModeNormal)
		m.prompt.DeactivateForm()
		return m, m.publish(events.PromptResponsePayload{
			Token:     msg.Token,
			Value:     msg.Value,
			Cancelled: msg.Cancelled,
		})

	case molecules.SubmitMsg:
		return m.onSubmit(msg)

	case LLMTelemetryMsg:
		m.status.AddTokens(msg.TokensIn, msg.TokensOut)
		if msg.Model != "" {
			m.status.SetModel(msg.Model)
		}
		return m, nil

	case busClosedMsg:
		return m, tea.Quit
	}

	// Anything else (spinner ticks, transcript scrolling) flows to the
	// chat panel, and to the prompt form when one is up.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.convo, cmd = m.convo.Update(msg)
	cmds = append(cmds, cmd)
	if m.prompt.FormActive() {
		m.prompt, cmd = m.prompt.UpdateForm(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// refreshAgents pulls the running subagent count. The scheduler knows about
// launched tasks, the panel manager about mounted panels; the larger of the
// two is what the user perceives as active.
func (m *MainModel) refreshAgents() {
	if m.scheduler == nil || m.panels == nil {
		return
	}
	n := m.scheduler.RunningCount()
	if a := m.panels.ActiveCount(); a > n {
		n = a
	}
	m.status.SetAgents(n)
}

func (m MainModel) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+o":
		m.convo.ToggleLastToolCollapsed()
		return m, nil
	case "pgup":
		m.convo.PageUp()
		return m, nil
	case "pgdown":
		m.convo.PageDown()
		return m, nil
	case "esc":
		if m.prompt.FormActive() {
			var cmd tea.Cmd
			m.prompt, cmd = m.prompt.UpdateForm(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m MainModel) onSubmit(msg molecules.SubmitMsg) (tea.Model, tea.Cmd) {
	if strings.HasPrefix(msg.Content, "/") {
		return m.onSlashCommand(msg.Content)
	}

	m.convo.AppendUserMessage(msg.Content)

	// Typed during a stream: hold it until the stream finishes.
	if m.mode == organisms.ModeStreaming {
		m.prompt.BufferMessage(msg.Content)
		return m, nil
	}

	return m, m.publish(events.UserMessagePayload{Content: msg.Content})
}

// drainBuffered sends any buffered messages that were typed during streaming.
func (m MainModel) drainBuffered() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	for _, content := range m.prompt.DrainPending() {
		cmds = append(cmds, m.publish(events.UserMessagePayload{Content: content}))
	}
	return m, tea.Batch(cmds...)
}

// publish emits a session-scoped event on the bus as a tea command.
func (m MainModel) publish(payload events.EventPayload) tea.Cmd {
	bus, sessionID := m.bus, m.sessionID
	return func() tea.Msg {
		bus.Publish(events.NewTypedEventWithSession(events.SourceTUI, payload, sessionID))
		return nil
	}
}

func (m MainModel) onSlashCommand(input string) (tea.Model, tea.Cmd) {
	name, _, _ := strings.Cut(strings.TrimSpace(input), " ")

	switch name {
	case "/quit":
		return m, tea.Quit

	case "/clear":
		m.convo.ClearBlocks(m.width, m.height-2)

	case "/status":
		m.convo.AppendSystemMessage(fmt.Sprintf(
			"Session: %s\nModel: %s\nTokens: %d in / %d out\nAgents: %d",
			m.status.SessionID(), m.status.Model(), m.status.TokensIn(), m.status.TokensOut(), m.status.Agents()))

	case "/tasks":
		m.convo.AppendSystemMessage(m.formatTasks())

	default:
		m.convo.AppendSystemMessage("Unknown command: " + name)
	}
	return m, nil
}

func (m MainModel) formatTasks() string {
	if m.scheduler == nil {
		return "No task scheduler available."
	}
	tasks := m.scheduler.ListTasks()
	if len(tasks) == 0 {
		return "No background tasks."
	}
	var sb strings.Builder
	sb.WriteString("Background tasks:")
	for _, t := range tasks {
		fmt.Fprintf(&sb, "\n  %s  %s  %s", t.ID, t.Status, t.Elapsed.Truncate(100*time.Millisecond))
		if t.Error != "" {
			sb.WriteString("  " + t.Error)
		}
	}
	return sb.String()
}

// View renders the full TUI layout.
func (m MainModel) View() string {
	return fmt.Sprintf("%s\n%s\n%s", m.convo.View(), m.prompt.View(), m.status.View())
}
