package plugins

import "sync"

// ToolPermissions tracks which dangerous tools may run without prompting.
// Global allowances come from config; session allowances are granted at
// runtime when the user picks "allow for session". The special tool name
// "*" marks a session as accept-all.
type ToolPermissions struct {
	mu             sync.RWMutex
	globalAllowed  map[string]bool
	sessionAllowed map[string]map[string]bool
}

// NewToolPermissions builds the permission table from the configured
// globally allowed tool names.
func NewToolPermissions(allowedDangerous []string) *ToolPermissions {
	global := make(map[string]bool, len(allowedDangerous))
	for _, name := range allowedDangerous {
		global[name] = true
	}
	return &ToolPermissions{
		globalAllowed:  global,
		sessionAllowed: make(map[string]map[string]bool),
	}
}

// IsAllowed reports whether tool may run in sessionID without confirmation.
func (p *ToolPermissions) IsAllowed(sessionID, tool string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.globalAllowed["*"] || p.globalAllowed[tool] {
		return true
	}
	session, ok := p.sessionAllowed[sessionID]
	if !ok {
		return false
	}
	return session["*"] || session[tool]
}

// AllowForSession grants tool for the rest of sessionID.
func (p *ToolPermissions) AllowForSession(sessionID, tool string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sessionAllowed[sessionID] == nil {
		p.sessionAllowed[sessionID] = make(map[string]bool)
	}
	p.sessionAllowed[sessionID][tool] = true
}

// AllowAllForSession grants every dangerous tool for sessionID.
func (p *ToolPermissions) AllowAllForSession(sessionID string) {
	p.AllowForSession(sessionID, "*")
}

// IsSessionAcceptAll reports whether sessionID granted a blanket allowance.
func (p *ToolPermissions) IsSessionAcceptAll(sessionID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	session, ok := p.sessionAllowed[sessionID]
	return ok && session["*"]
}

// CleanupSession drops all allowances granted during sessionID.
func (p *ToolPermissions) CleanupSession(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessionAllowed, sessionID)
}
