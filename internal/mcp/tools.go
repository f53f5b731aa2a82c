package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/steward/internal/command"
	"github.com/1broseidon/steward/internal/window"
)

func (s *Server) handleOpenSettings(_ context.Context, _ *mcpsdk.CallToolRequest, _ OpenSettingsInput) (*mcpsdk.CallToolResult, OpenSettingsOutput, error) {
	if err := s.daemon.OpenOrFocusSettings(); err != nil {
		s.logger.Warn("open_or_focus_settings failed", "error", err)
		return nil, OpenSettingsOutput{}, err
	}
	settings, _ := s.windowLabels()
	return nil, OpenSettingsOutput{Window: settings}, nil
}

func (s *Server) handleConfigureRegions(_ context.Context, _ *mcpsdk.CallToolRequest, args ConfigureRegionsInput) (*mcpsdk.CallToolResult, ConfigureRegionsOutput, error) {
	caller := args.Window
	if caller == "" {
		_, caller = s.windowLabels()
	}

	specs := make([]command.RegionSpec, 0, len(args.Regions))
	for _, r := range args.Regions {
		specs = append(specs, command.RegionSpec{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height})
	}

	if err := s.daemon.ConfigureToolbarClickThrough(caller, specs); err != nil {
		s.logger.Warn("configure_toolbar_click_through failed", "caller", caller, "error", err)
		return nil, ConfigureRegionsOutput{}, err
	}
	return nil, ConfigureRegionsOutput{Regions: len(specs)}, nil
}

func (s *Server) handleGreet(_ context.Context, _ *mcpsdk.CallToolRequest, args GreetInput) (*mcpsdk.CallToolResult, GreetOutput, error) {
	msg, err := s.daemon.Greet(args.Name)
	if err != nil {
		return nil, GreetOutput{}, err
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: msg},
		},
	}, GreetOutput{Message: msg}, nil
}

func (s *Server) handleShowMain(_ context.Context, _ *mcpsdk.CallToolRequest, _ MainWindowInput) (*mcpsdk.CallToolResult, MainWindowOutput, error) {
	if err := s.daemon.ShowMain(); err != nil {
		return nil, MainWindowOutput{}, err
	}
	return nil, s.mainState(), nil
}

func (s *Server) handleHideMain(_ context.Context, _ *mcpsdk.CallToolRequest, _ MainWindowInput) (*mcpsdk.CallToolResult, MainWindowOutput, error) {
	if err := s.daemon.HideMain(); err != nil {
		return nil, MainWindowOutput{}, err
	}
	return nil, s.mainState(), nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ StatusInput) (*mcpsdk.CallToolResult, StatusOutput, error) {
	status, err := s.daemon.GetStatus()
	if err != nil {
		return nil, StatusOutput{}, fmt.Errorf("failed to get daemon status: %w", err)
	}
	if status.Windows == nil {
		status.Windows = []command.WindowStatus{}
	}
	return nil, *status, nil
}

// windowLabels returns the configured settings and toolbar labels, or the
// defaults when the daemon does not report them.
func (s *Server) windowLabels() (settings, toolbar string) {
	settings, toolbar = string(window.KindSettings), string(window.KindToolbar)
	status, err := s.daemon.GetStatus()
	if err != nil {
		s.logger.Debug("window labels unavailable, using defaults", "error", err)
		return settings, toolbar
	}
	if status.SettingsWindow != "" {
		settings = status.SettingsWindow
	}
	if status.ToolbarWindow != "" {
		toolbar = status.ToolbarWindow
	}
	return settings, toolbar
}

// mainState reads back the main window state; unknown when status fails.
func (s *Server) mainState() MainWindowOutput {
	status, err := s.daemon.GetStatus()
	if err != nil {
		return MainWindowOutput{State: "unknown"}
	}
	return MainWindowOutput{State: status.MainState}
}
