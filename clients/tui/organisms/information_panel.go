package organisms

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// InformationPanel is the one-line status bar: session, model, token
// usage, running agents, and the current interaction mode.
type InformationPanel struct {
	sessionID string
	model     string
	tokensIn  int
	tokensOut int
	agents    int
	mode      Mode
	width     int
	style     lipgloss.Style
}

// NewInformationPanel creates a new status bar panel.
func NewInformationPanel(style lipgloss.Style) InformationPanel {
	return InformationPanel{style: style}
}

func (p *InformationPanel) SetSession(id string)   { p.sessionID = id }
func (p *InformationPanel) SetModel(model string)  { p.model = model }
func (p *InformationPanel) SetAgents(n int)        { p.agents = n }
func (p *InformationPanel) SetMode(mode Mode)      { p.mode = mode }
func (p *InformationPanel) SetWidth(w int)         { p.width = w }
func (p *InformationPanel) SessionID() string      { return p.sessionID }
func (p *InformationPanel) Model() string          { return p.model }
func (p *InformationPanel) TokensIn() int          { return p.tokensIn }
func (p *InformationPanel) TokensOut() int         { return p.tokensOut }
func (p *InformationPanel) Agents() int            { return p.agents }

// AddTokens accumulates token usage across the session.
func (p *InformationPanel) AddTokens(in, out int) {
	p.tokensIn += in
	p.tokensOut += out
}

// View renders the status bar as pipe-separated segments, omitting
// segments with no data.
func (p InformationPanel) View() string {
	sid := p.sessionID
	if len(sid) > 8 {
		sid = sid[:8]
	}

	segments := []string{"sess:" + sid}
	if p.model != "" {
		segments = append(segments, p.model)
	}
	if p.tokensIn > 0 || p.tokensOut > 0 {
		segments = append(segments,
			fmt.Sprintf("%s in / %s out", formatTokens(p.tokensIn), formatTokens(p.tokensOut)))
	}
	if p.agents == 1 {
		segments = append(segments, "1 agent")
	} else if p.agents > 1 {
		segments = append(segments, fmt.Sprintf("%d agents", p.agents))
	}
	switch p.mode {
	case ModeStreaming:
		segments = append(segments, "streaming")
	case ModePrompting:
		segments = append(segments, "prompting")
	}

	return p.style.Width(p.width).Render(" " + strings.Join(segments, " | ") + " ")
}

func formatTokens(n int) string {
	if n >= 1000 {
		return fmt.Sprintf("%.1fk", float64(n)/1000.0)
	}
	return fmt.Sprintf("%d", n)
}
