package config

import (
	"fmt"
	"time"

	"github.com/1broseidon/steward/internal/window"
	"gopkg.in/yaml.v3"
)

// IncludeList supports either:
//
//	include: "/path/to/file.yaml"
//
// or:
//
//	include:
//	  - "/path/to/file.yaml"
//	  - "/path/to/dir"
type IncludeList []string

func (l *IncludeList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case 0:
		// Not present.
		*l = nil
		return nil
	case yaml.ScalarNode:
		if value.Tag != "!!str" {
			return fmt.Errorf("include must be a string or list of strings")
		}
		*l = []string{value.Value}
		return nil
	case yaml.SequenceNode:
		out := make([]string, 0, len(value.Content))
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || item.Tag != "!!str" {
				return fmt.Errorf("include entries must be strings")
			}
			out = append(out, item.Value)
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("include must be a string or list of strings")
	}
}

// RawWindow is a window definition as written in a file; nil fields keep
// the value from lower layers.
type RawWindow struct {
	Kind          *window.Kind `yaml:"kind"`
	Title         *string      `yaml:"title"`
	Width         *int         `yaml:"width"`
	Height        *int         `yaml:"height"`
	MinWidth      *int         `yaml:"min_width"`
	MinHeight     *int         `yaml:"min_height"`
	MaxWidth      *int         `yaml:"max_width"`
	MaxHeight     *int         `yaml:"max_height"`
	Center        *bool        `yaml:"center"`
	Resizable     *bool        `yaml:"resizable"`
	Decorations   *bool        `yaml:"decorations"`
	Visible       *bool        `yaml:"visible"`
	AlwaysOnTop   *bool        `yaml:"always_on_top"`
	SkipTaskbar   *bool        `yaml:"skip_taskbar"`
	ClickThrough  *bool        `yaml:"click_through"`
	OpenAtStartup *bool        `yaml:"open_at_startup"`
}

type RawConfig struct {
	Include            IncludeList          `yaml:"include"`
	Backend            *string              `yaml:"backend"`
	Database           *string              `yaml:"database"`
	LogLevel           *string              `yaml:"log_level"`
	LogFormat          *string              `yaml:"log_format"`
	MainWindow         *string              `yaml:"main_window"`
	ToolbarWindow      *string              `yaml:"toolbar_window"`
	SettingsWindow     *string              `yaml:"settings_window"`
	Dependents         []string             `yaml:"dependents"`
	ReconcileInterval  *time.Duration       `yaml:"reconcile_interval"`
	SettingsFlushDelay *time.Duration       `yaml:"settings_flush_delay"`
	Windows            map[string]RawWindow `yaml:"windows"`
	Keybinds           map[string]string    `yaml:"keybinds"`
}

func (c RawConfig) merge(overlay RawConfig) RawConfig {
	out := c

	if overlay.Backend != nil {
		out.Backend = overlay.Backend
	}
	if overlay.Database != nil {
		out.Database = overlay.Database
	}
	if overlay.LogLevel != nil {
		out.LogLevel = overlay.LogLevel
	}
	if overlay.LogFormat != nil {
		out.LogFormat = overlay.LogFormat
	}
	if overlay.MainWindow != nil {
		out.MainWindow = overlay.MainWindow
	}
	if overlay.ToolbarWindow != nil {
		out.ToolbarWindow = overlay.ToolbarWindow
	}
	if overlay.SettingsWindow != nil {
		out.SettingsWindow = overlay.SettingsWindow
	}
	if overlay.Dependents != nil {
		out.Dependents = append([]string(nil), overlay.Dependents...)
	}
	if overlay.ReconcileInterval != nil {
		out.ReconcileInterval = overlay.ReconcileInterval
	}
	if overlay.SettingsFlushDelay != nil {
		out.SettingsFlushDelay = overlay.SettingsFlushDelay
	}

	if overlay.Windows != nil {
		merged := make(map[string]RawWindow, len(c.Windows)+len(overlay.Windows))
		for label, w := range c.Windows {
			merged[label] = w
		}
		for label, w := range overlay.Windows {
			merged[label] = mergeRawWindow(merged[label], w)
		}
		out.Windows = merged
	}

	if overlay.Keybinds != nil {
		// Empty values survive so the effective layer can unbind defaults.
		keybinds := make(map[string]string, len(c.Keybinds)+len(overlay.Keybinds))
		for k, v := range c.Keybinds {
			keybinds[k] = v
		}
		for k, v := range overlay.Keybinds {
			keybinds[k] = v
		}
		out.Keybinds = keybinds
	}

	return out
}

func mergeRawWindow(base RawWindow, overlay RawWindow) RawWindow {
	out := base
	if overlay.Kind != nil {
		out.Kind = overlay.Kind
	}
	if overlay.Title != nil {
		out.Title = overlay.Title
	}
	if overlay.Width != nil {
		out.Width = overlay.Width
	}
	if overlay.Height != nil {
		out.Height = overlay.Height
	}
	if overlay.MinWidth != nil {
		out.MinWidth = overlay.MinWidth
	}
	if overlay.MinHeight != nil {
		out.MinHeight = overlay.MinHeight
	}
	if overlay.MaxWidth != nil {
		out.MaxWidth = overlay.MaxWidth
	}
	if overlay.MaxHeight != nil {
		out.MaxHeight = overlay.MaxHeight
	}
	if overlay.Center != nil {
		out.Center = overlay.Center
	}
	if overlay.Resizable != nil {
		out.Resizable = overlay.Resizable
	}
	if overlay.Decorations != nil {
		out.Decorations = overlay.Decorations
	}
	if overlay.Visible != nil {
		out.Visible = overlay.Visible
	}
	if overlay.AlwaysOnTop != nil {
		out.AlwaysOnTop = overlay.AlwaysOnTop
	}
	if overlay.SkipTaskbar != nil {
		out.SkipTaskbar = overlay.SkipTaskbar
	}
	if overlay.ClickThrough != nil {
		out.ClickThrough = overlay.ClickThrough
	}
	if overlay.OpenAtStartup != nil {
		out.OpenAtStartup = overlay.OpenAtStartup
	}
	return out
}
