package mcp

import "github.com/1broseidon/steward/internal/command"

// OpenSettingsInput is the input for the open_or_focus_settings tool.
type OpenSettingsInput struct{}

// OpenSettingsOutput is the output for the open_or_focus_settings tool.
type OpenSettingsOutput struct {
	Window string `json:"window"`
}

// Region is one interactive rectangle in toolbar-local pixels.
type Region struct {
	X      int    `json:"x" jsonschema:"Left edge relative to the toolbar window"`
	Y      int    `json:"y" jsonschema:"Top edge relative to the toolbar window"`
	Width  uint32 `json:"width" jsonschema:"Width in pixels, must be at least 1"`
	Height uint32 `json:"height" jsonschema:"Height in pixels, must be at least 1"`
}

// ConfigureRegionsInput is the input for the configure_toolbar_click_through tool.
type ConfigureRegionsInput struct {
	Window  string   `json:"window,omitempty" jsonschema:"Label of the calling window (default: toolbar). Only the toolbar may configure its regions."`
	Regions []Region `json:"regions" jsonschema:"required,Interactive regions. An empty list makes the whole toolbar click-through."`
}

// ConfigureRegionsOutput is the output for the configure_toolbar_click_through tool.
type ConfigureRegionsOutput struct {
	Regions int `json:"regions"`
}

// GreetInput is the input for the greet tool.
type GreetInput struct {
	Name string `json:"name" jsonschema:"required,Name to greet"`
}

// GreetOutput is the output for the greet tool.
type GreetOutput struct {
	Message string `json:"message"`
}

// MainWindowInput is the input for the show_main and hide_main tools.
type MainWindowInput struct{}

// MainWindowOutput reports the main window state after the call.
type MainWindowOutput struct {
	State string `json:"state"`
}

// StatusInput is the input for the get_status tool.
type StatusInput struct{}

// StatusOutput is the output for the get_status tool.
type StatusOutput = command.Status
