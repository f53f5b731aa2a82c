package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/1broseidon/steward/internal/window"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendX11      = "x11"
	BackendHeadless = "headless"
)

// WindowDef describes one window the session may open.
type WindowDef struct {
	Kind   window.Kind `yaml:"kind"`
	Title  string      `yaml:"title"`
	Width  int         `yaml:"width"`
	Height int         `yaml:"height"`

	// Size bounds; 0 = unbounded.
	MinWidth  int `yaml:"min_width,omitempty"`
	MinHeight int `yaml:"min_height,omitempty"`
	MaxWidth  int `yaml:"max_width,omitempty"`
	MaxHeight int `yaml:"max_height,omitempty"`

	Center       bool `yaml:"center"`
	Resizable    bool `yaml:"resizable"`
	Decorations  bool `yaml:"decorations"`
	Visible      bool `yaml:"visible"`
	AlwaysOnTop  bool `yaml:"always_on_top"`
	SkipTaskbar  bool `yaml:"skip_taskbar"`
	ClickThrough bool `yaml:"click_through"`

	// OpenAtStartup opens the window when the daemon starts.
	OpenAtStartup bool `yaml:"open_at_startup"`
}

// WindowConfig converts the definition for the window registry.
func (d WindowDef) WindowConfig() window.Config {
	return window.Config{
		Title:        d.Title,
		Width:        d.Width,
		Height:       d.Height,
		MinWidth:     d.MinWidth,
		MinHeight:    d.MinHeight,
		MaxWidth:     d.MaxWidth,
		MaxHeight:    d.MaxHeight,
		Center:       d.Center,
		Resizable:    d.Resizable,
		Decorations:  d.Decorations,
		Visible:      d.Visible,
		AlwaysOnTop:  d.AlwaysOnTop,
		SkipTaskbar:  d.SkipTaskbar,
		ClickThrough: d.ClickThrough,
	}
}

// Config is the effective steward configuration.
type Config struct {
	Backend   string `yaml:"backend"`
	Database  string `yaml:"database"` // empty = $XDG_DATA_HOME/steward/steward.db
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // auto, text or json

	MainWindow     string   `yaml:"main_window"`
	ToolbarWindow  string   `yaml:"toolbar_window"`
	SettingsWindow string   `yaml:"settings_window"`
	Dependents     []string `yaml:"dependents"`

	ReconcileInterval  time.Duration `yaml:"reconcile_interval"`
	SettingsFlushDelay time.Duration `yaml:"settings_flush_delay"`

	Windows map[string]WindowDef `yaml:"windows"`

	// Keybinds are seeded into the database on first run; the database is
	// the source of truth afterwards.
	Keybinds map[string]string `yaml:"keybinds"`
}

func DefaultConfig() *Config {
	return &Config{
		Backend:            BackendX11,
		LogLevel:           "info",
		LogFormat:          "auto",
		MainWindow:         "main",
		ToolbarWindow:      "toolbar",
		SettingsWindow:     "settings",
		Dependents:         []string{"settings"},
		ReconcileInterval:  5 * time.Second,
		SettingsFlushDelay: 500 * time.Millisecond,
		Windows: map[string]WindowDef{
			"main": {
				Kind:          window.KindMain,
				Title:         "Steward",
				Width:         800,
				Height:        600,
				Center:        true,
				Resizable:     true,
				Decorations:   true,
				Visible:       true,
				OpenAtStartup: true,
			},
			"settings": {
				Kind:        window.KindSettings,
				Title:       "Steward Settings",
				Width:       800,
				Height:      700,
				MinWidth:    600,
				MinHeight:   500,
				MaxWidth:    1000,
				MaxHeight:   800,
				Center:      true,
				Resizable:   true,
				Decorations: true,
				Visible:     true,
			},
			"toolbar": {
				Kind:          window.KindToolbar,
				Title:         "Steward Toolbar",
				Width:         480,
				Height:        64,
				Center:        true,
				Visible:       true,
				AlwaysOnTop:   true,
				SkipTaskbar:   true,
				ClickThrough:  true,
				OpenAtStartup: true,
			},
		},
		Keybinds: map[string]string{
			"Mod4-Mod1-s": "open_settings",
			"Mod4-Mod1-m": "show_main",
			"Mod4-Mod1-h": "hide_main",
		},
	}
}

// Window returns the registry config and kind for label.
func (c *Config) Window(label string) (window.Config, window.Kind, error) {
	def, ok := c.Windows[label]
	if !ok {
		return window.Config{}, "", fmt.Errorf("window %q is not configured", label)
	}
	return def.WindowConfig(), def.Kind, nil
}

// StartupWindows returns the labels opened at daemon start: the main window
// first, then the rest sorted.
func (c *Config) StartupWindows() []string {
	var labels []string
	for label, def := range c.Windows {
		if def.OpenAtStartup && label != c.MainWindow {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	if def, ok := c.Windows[c.MainWindow]; ok && def.OpenAtStartup {
		labels = append([]string{c.MainWindow}, labels...)
	}
	return labels
}

// Save writes the configuration to the standard location.
//
// Note: this marshals the effective config and will not preserve comments or
// include structure from the original YAML.
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders the effective config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendX11, BackendHeadless:
	default:
		return &ValidationError{Path: "backend", Err: fmt.Errorf("backend must be one of: x11, headless")}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	switch c.LogFormat {
	case "auto", "text", "json":
	default:
		return &ValidationError{Path: "log_format", Err: fmt.Errorf("log_format must be one of: auto, text, json")}
	}
	if c.ReconcileInterval < 0 {
		return &ValidationError{Path: "reconcile_interval", Err: fmt.Errorf("reconcile_interval must be >= 0")}
	}
	if c.SettingsFlushDelay < 0 {
		return &ValidationError{Path: "settings_flush_delay", Err: fmt.Errorf("settings_flush_delay must be >= 0")}
	}

	if len(c.Windows) == 0 {
		return &ValidationError{Path: "windows", Err: fmt.Errorf("windows must not be empty")}
	}
	for label, def := range c.Windows {
		if strings.TrimSpace(label) == "" {
			return &ValidationError{Path: "windows", Err: fmt.Errorf("windows contains an empty label")}
		}
		if err := validateWindow(def); err != nil {
			return &ValidationError{Path: "windows." + label, Err: err}
		}
	}

	if err := c.requireWindow("main_window", c.MainWindow, window.KindMain); err != nil {
		return err
	}
	if err := c.requireWindow("toolbar_window", c.ToolbarWindow, window.KindToolbar); err != nil {
		return err
	}
	if !c.Windows[c.ToolbarWindow].ClickThrough {
		return &ValidationError{Path: "windows." + c.ToolbarWindow + ".click_through", Err: fmt.Errorf("the toolbar window must be click-through")}
	}
	if err := c.requireWindow("settings_window", c.SettingsWindow, window.KindSettings); err != nil {
		return err
	}

	for _, dep := range c.Dependents {
		if dep == c.MainWindow {
			return &ValidationError{Path: "dependents", Err: fmt.Errorf("the main window cannot depend on itself")}
		}
		if _, ok := c.Windows[dep]; !ok {
			return &ValidationError{Path: "dependents", Err: fmt.Errorf("dependent %q not found in windows", dep)}
		}
	}

	for combo, cmd := range c.Keybinds {
		if strings.TrimSpace(combo) == "" {
			return &ValidationError{Path: "keybinds", Err: fmt.Errorf("keybinds contains an empty key combination")}
		}
		if strings.TrimSpace(cmd) == "" {
			return &ValidationError{Path: "keybinds." + combo, Err: fmt.Errorf("command must not be empty")}
		}
	}

	return nil
}

func (c *Config) requireWindow(path, label string, kind window.Kind) error {
	if label == "" {
		return &ValidationError{Path: path, Err: fmt.Errorf("%s is required", path)}
	}
	def, ok := c.Windows[label]
	if !ok {
		return &ValidationError{Path: path, Err: fmt.Errorf("%s %q not found in windows", path, label)}
	}
	if def.Kind != kind {
		return &ValidationError{Path: "windows." + label + ".kind", Err: fmt.Errorf("kind must be %q, got %q", kind, def.Kind)}
	}
	return nil
}

// validateWindow checks if a window definition is valid.
func validateWindow(def WindowDef) error {
	if _, err := window.ParseKind(string(def.Kind)); err != nil {
		return err
	}
	if def.Width < 1 || def.Height < 1 {
		return fmt.Errorf("width and height must be >= 1")
	}
	if def.MinWidth < 0 || def.MinHeight < 0 || def.MaxWidth < 0 || def.MaxHeight < 0 {
		return fmt.Errorf("size bounds must be >= 0")
	}
	if def.MaxWidth > 0 && def.MinWidth > def.MaxWidth {
		return fmt.Errorf("min_width %d exceeds max_width %d", def.MinWidth, def.MaxWidth)
	}
	if def.MaxHeight > 0 && def.MinHeight > def.MaxHeight {
		return fmt.Errorf("min_height %d exceeds max_height %d", def.MinHeight, def.MaxHeight)
	}
	if def.Width < def.MinWidth || (def.MaxWidth > 0 && def.Width > def.MaxWidth) {
		return fmt.Errorf("width %d outside of [%d, %d]", def.Width, def.MinWidth, def.MaxWidth)
	}
	if def.Height < def.MinHeight || (def.MaxHeight > 0 && def.Height > def.MaxHeight) {
		return fmt.Errorf("height %d outside of [%d, %d]", def.Height, def.MinHeight, def.MaxHeight)
	}
	return nil
}
