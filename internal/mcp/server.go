// Package mcp exposes the session commands as MCP tools over stdio. Every
// tool forwards to the running daemon.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/steward/internal/command"
)

const (
	ServerName    = "steward"
	ServerVersion = "0.1.0"
)

// Daemon is the IPC client surface the tools call.
type Daemon interface {
	OpenOrFocusSettings() error
	ConfigureToolbarClickThrough(caller string, regions []command.RegionSpec) error
	Greet(name string) (string, error)
	ShowMain() error
	HideMain() error
	GetStatus() (*command.Status, error)
}

// Server is the MCP server for steward.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates a new MCP server that forwards to daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		daemon: daemon,
		logger: logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect serves a single session on transport.
func (s *Server) Connect(ctx context.Context, transport mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, transport, nil)
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "open_or_focus_settings",
		Description: "Open the settings window, or focus it if it is already open. Never creates a second settings window.",
	}, s.handleOpenSettings)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "configure_toolbar_click_through",
		Description: "Replace the toolbar's interactive regions. Pointer input inside a region reaches the toolbar; everything else passes through to the windows below. Only the toolbar window may call this.",
	}, s.handleConfigureRegions)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "greet",
		Description: "Return a greeting for the given name.",
	}, s.handleGreet)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "show_main",
		Description: "Show and focus the main window. Fails once the session has terminated.",
	}, s.handleShowMain)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "hide_main",
		Description: "Hide the main window without closing it, the same as clicking its close button.",
	}, s.handleHideMain)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "List the live windows, the active click-through region count and the main window state.",
	}, s.handleGetStatus)
}
