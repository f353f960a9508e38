// Package mcp connects Quill to external MCP servers and exposes their
// tools to the agent, and can serve Quill's own tools over MCP in return.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/quill-sh/quill/internal/config"
)

// Connector manages sessions to the configured MCP servers.
type Connector struct {
	mu       sync.Mutex
	sessions map[string]*mcpsdk.ClientSession
}

// NewConnector creates an empty connector.
func NewConnector() *Connector {
	return &Connector{sessions: make(map[string]*mcpsdk.ClientSession)}
}

// ConnectAll starts every configured server over stdio and returns one
// RemoteTool per tool the servers advertise. Individual server failures are
// logged and skipped so one broken server does not take down the rest.
func (c *Connector) ConnectAll(ctx context.Context, servers map[string]config.MCPServerConfig) []*RemoteTool {
	var tools []*RemoteTool
	for name, serverCfg := range servers {
		serverTools, err := c.connect(ctx, name, serverCfg)
		if err != nil {
			slog.Error("mcp server unavailable", "server", name, "error", err)
			continue
		}
		tools = append(tools, serverTools...)
	}
	return tools
}

func (c *Connector) connect(ctx context.Context, name string, serverCfg config.MCPServerConfig) ([]*RemoteTool, error) {
	if serverCfg.Command == "" {
		return nil, fmt.Errorf("server %q: command is required", name)
	}

	cmd := exec.Command(serverCfg.Command, serverCfg.Args...)
	cmd.Env = os.Environ()
	for k, v := range serverCfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	client := mcpsdk.NewClient(&mcpsdk.Implementation{
		Name:    "quill",
		Version: "0.1.0",
	}, nil)

	session, err := client.Connect(ctx, &mcpsdk.CommandTransport{Command: cmd}, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %q: %w", name, err)
	}

	listed, err := session.ListTools(ctx, &mcpsdk.ListToolsParams{})
	if err != nil {
		session.Close()
		return nil, fmt.Errorf("list tools on %q: %w", name, err)
	}

	c.mu.Lock()
	c.sessions[name] = session
	c.mu.Unlock()

	tools := make([]*RemoteTool, 0, len(listed.Tools))
	for _, t := range listed.Tools {
		tools = append(tools, newRemoteTool(name, session, t))
	}
	slog.Info("mcp server connected", "server", name, "tools", len(tools))
	return tools, nil
}

// Close shuts down all server sessions.
func (c *Connector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, session := range c.sessions {
		if err := session.Close(); err != nil {
			slog.Debug("mcp session close", "server", name, "error", err)
		}
		delete(c.sessions, name)
	}
}
