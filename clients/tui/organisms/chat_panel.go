package organisms

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quill-sh/quill/internal/panels"
)

// ChatPanelStyles contains the styles injected into the ChatPanel.
type ChatPanelStyles struct {
	Assistant  lipgloss.Style
	User       lipgloss.Style
	Error      lipgloss.Style
	Muted      lipgloss.Style
	ToolBorder lipgloss.Style
	TaskBorder lipgloss.Style
}

// ChatPanel manages the conversation transcript, blocks, and stream logic.
// The live pointer keeps the streaming text block reachable even when tool
// blocks get appended mid-stream.
type ChatPanel struct {
	transcript Transcript
	spinner    spinner.Model
	streamed   bool
	live       *TextBlock
	width      int
	styles     ChatPanelStyles
}

// NewChatPanel creates a new chat panel.
func NewChatPanel(width, height int, styles ChatPanelStyles) ChatPanel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return ChatPanel{
		transcript: NewTranscript(width, height),
		spinner:    sp,
		width:      width,
		styles:     styles,
	}
}

// Init returns the first spinner tick command.
func (p ChatPanel) Init() tea.Cmd {
	return p.spinner.Tick
}

// appendText adds a completed labeled text block to the transcript.
func (p *ChatPanel) appendText(label string, style lipgloss.Style, content string) {
	block := NewTextBlock(label, style, p.width)
	block.AppendDelta(content)
	block.SetComplete()
	p.transcript.Append(block)
}

// HandleStreamStart begins a new streaming assistant block.
func (p *ChatPanel) HandleStreamStart() {
	p.streamed = true
	p.live = NewTextBlock("Quill", p.styles.Assistant, p.width)
	p.transcript.Append(p.live)
}

// HandleStreamDelta appends content to the live streaming block.
func (p *ChatPanel) HandleStreamDelta(content string) {
	if p.live == nil {
		return
	}
	p.live.AppendDelta(content)
	p.transcript.Refresh()
}

// HandleStreamEnd marks the live streaming block as complete.
func (p *ChatPanel) HandleStreamEnd() {
	p.CompleteLastStreamBlock()
}

// CompleteLastStreamBlock finalizes the live block if it isn't already.
// Handles the case where the end marker is never received.
func (p *ChatPanel) CompleteLastStreamBlock() {
	if p.live == nil {
		return
	}
	if !p.live.IsComplete() {
		p.live.SetComplete()
		p.transcript.Refresh()
	}
	p.live = nil
}

// HandleAssistantMessage handles a complete assistant message,
// deduplicating with streaming.
func (p *ChatPanel) HandleAssistantMessage(content, errMsg string) {
	p.CompleteLastStreamBlock()
	streamed := p.streamed
	p.streamed = false

	switch {
	case errMsg != "":
		p.appendText("Error", p.styles.Error, errMsg)
	case streamed:
		// content already on screen from the stream
	case content != "":
		p.appendText("Quill", p.styles.Assistant, content)
	}
}

// HandleToolCall manages tool call lifecycle events. Calls are matched by
// call ID when available, falling back to the most recent block by name.
func (p *ChatPanel) HandleToolCall(status, callID, name string, args map[string]any, result, errMsg string) {
	if status == "started" {
		p.transcript.Append(NewToolBlock(name, callID, args, p.styles.ToolBorder))
		return
	}

	tb := p.findToolBlock(func(tb *ToolBlock) bool {
		if callID != "" {
			return tb.CallID() == callID
		}
		return tb.Name() == name
	})
	if tb != nil {
		tb.UpdateStatus(status, result, errMsg)
		p.transcript.Refresh()
	}
}

// findToolBlock returns the newest tool block matching the predicate.
func (p *ChatPanel) findToolBlock(match func(*ToolBlock) bool) *ToolBlock {
	found := p.transcript.FindLast(func(b ContentBlock) bool {
		tb, ok := b.(*ToolBlock)
		return ok && match(tb)
	})
	if tb, ok := found.(*ToolBlock); ok {
		return tb
	}
	return nil
}

// HandlePanelMounted appends a block for a newly mounted subagent panel.
func (p *ChatPanel) HandlePanelMounted(panel panels.Panel) {
	if p.findPanelBlock(panel.Namespace.Key()) != nil {
		return
	}
	p.transcript.Append(NewPanelBlock(panel, p.styles.TaskBorder))
}

// HandlePanelUpdated refreshes an existing panel block with a newer snapshot.
// An update for an unknown panel mounts it; the mount and the first update
// arrive on independent paths.
func (p *ChatPanel) HandlePanelUpdated(panel panels.Panel) {
	if pb := p.findPanelBlock(panel.Namespace.Key()); pb != nil {
		pb.Apply(panel)
		p.transcript.Refresh()
		return
	}
	p.transcript.Append(NewPanelBlock(panel, p.styles.TaskBorder))
}

// HandlePanelFinalized freezes a panel block in its terminal state.
func (p *ChatPanel) HandlePanelFinalized(panel panels.Panel) {
	p.HandlePanelUpdated(panel)
}

func (p *ChatPanel) findPanelBlock(key string) *PanelBlock {
	found := p.transcript.FindLast(func(b ContentBlock) bool {
		pb, ok := b.(*PanelBlock)
		return ok && pb.Key() == key
	})
	if pb, ok := found.(*PanelBlock); ok {
		return pb
	}
	return nil
}

// AppendUserMessage adds a user message block.
func (p *ChatPanel) AppendUserMessage(content string) {
	p.appendText("You", p.styles.User, content)
}

// AppendErrorMessage adds an error message block.
func (p *ChatPanel) AppendErrorMessage(content string) {
	p.appendText("Error", p.styles.Error, content)
}

// AppendSystemMessage adds a system message block.
func (p *ChatPanel) AppendSystemMessage(content string) {
	p.appendText("System", p.styles.Muted, content)
}

// ToggleLastToolCollapsed toggles expand/collapse on the last completed tool block.
func (p *ChatPanel) ToggleLastToolCollapsed() {
	if tb := p.findToolBlock((*ToolBlock).IsComplete); tb != nil {
		tb.ToggleCollapsed()
		p.transcript.Refresh()
	}
}

// PageUp scrolls up by one page.
func (p *ChatPanel) PageUp() { p.transcript.PageUp() }

// PageDown scrolls down by one page.
func (p *ChatPanel) PageDown() { p.transcript.PageDown() }

// ClearBlocks resets the transcript with new dimensions.
func (p *ChatPanel) ClearBlocks(w, h int) {
	p.transcript = NewTranscript(w, h)
	p.width = w
}

// SetSize updates the transcript dimensions.
func (p *ChatPanel) SetSize(w, h int) {
	p.width = w
	p.transcript.SetSize(w, h)
}

// Update handles spinner ticks and transcript passthrough.
func (p ChatPanel) Update(msg tea.Msg) (ChatPanel, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if _, ok := msg.(spinner.TickMsg); ok {
		p.spinner, cmd = p.spinner.Update(msg)
		cmds = append(cmds, cmd)
		p.transcript.Refresh()
	}

	p.transcript, cmd = p.transcript.Update(msg)
	cmds = append(cmds, cmd)
	return p, tea.Batch(cmds...)
}

// View renders the conversation transcript.
func (p ChatPanel) View() string {
	return p.transcript.View()
}
