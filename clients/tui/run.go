package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/quill-sh/quill/internal/background"
	"github.com/quill-sh/quill/internal/events"
	"github.com/quill-sh/quill/internal/panels"
)

// RunOptions carries the wired application pieces into the TUI.
type RunOptions struct {
	Bus       *events.Bus
	Scheduler *background.Scheduler
	Panels    *panels.Manager
	Notifier  *ProgramNotifier
	SessionID string
	Model     string
}

// Run starts the TUI and blocks until the user quits or ctx is cancelled.
// Bus events are projected into bubbletea messages; panel lifecycle changes
// arrive through the notifier.
func Run(ctx context.Context, opts RunOptions) error {
	m := NewMainModel(opts.Bus, opts.Scheduler, opts.Panels, opts.SessionID, opts.Model)

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if opts.Notifier != nil {
		opts.Notifier.Attach(p)
	}

	ch, unsubscribe := opts.Bus.SubscribeChan(64)
	defer unsubscribe()

	go func() {
		for e := range ch {
			if msg := Project(e); msg != nil {
				p.Send(msg)
			}
		}
		p.Send(busClosedMsg{})
	}()

	_, err := p.Run()
	return err
}
