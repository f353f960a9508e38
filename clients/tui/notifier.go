package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/quill-sh/quill/internal/panels"
)

// Sender is the subset of tea.Program the notifier needs.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramNotifier bridges panel lifecycle callbacks into the bubbletea
// message loop. The panel manager calls it from router and scheduler
// goroutines. The manager is constructed before the program exists, so the
// sender is attached late; callbacks before Attach are dropped, the panel
// manager keeps the authoritative state either way.
type ProgramNotifier struct {
	mu      sync.RWMutex
	program Sender
}

// NewProgramNotifier creates an unattached notifier.
func NewProgramNotifier() *ProgramNotifier {
	return &ProgramNotifier{}
}

// Attach connects the notifier to a running program.
func (n *ProgramNotifier) Attach(program Sender) {
	n.mu.Lock()
	n.program = program
	n.mu.Unlock()
}

func (n *ProgramNotifier) send(msg tea.Msg) {
	n.mu.RLock()
	p := n.program
	n.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

func (n *ProgramNotifier) PanelMounted(p panels.Panel) {
	n.send(PanelMountedMsg{Panel: p})
}

func (n *ProgramNotifier) PanelUpdated(p panels.Panel) {
	n.send(PanelUpdatedMsg{Panel: p})
}

func (n *ProgramNotifier) PanelFinalized(p panels.Panel) {
	n.send(PanelFinalizedMsg{Panel: p})
}
