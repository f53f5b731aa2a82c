package config

import (
	"fmt"
	"sort"
)

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// BuildEffectiveConfig layers raw on top of DefaultConfig. Windows that are
// not in the defaults must be fully specified; validation catches gaps.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()

	if raw.Backend != nil {
		cfg.Backend = *raw.Backend
	}
	if raw.Database != nil {
		cfg.Database = *raw.Database
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.LogFormat != nil {
		cfg.LogFormat = *raw.LogFormat
	}
	if raw.MainWindow != nil {
		cfg.MainWindow = *raw.MainWindow
	}
	if raw.ToolbarWindow != nil {
		cfg.ToolbarWindow = *raw.ToolbarWindow
	}
	if raw.SettingsWindow != nil {
		cfg.SettingsWindow = *raw.SettingsWindow
	}
	if raw.Dependents != nil {
		cfg.Dependents = append([]string(nil), raw.Dependents...)
	}
	if raw.ReconcileInterval != nil {
		cfg.ReconcileInterval = *raw.ReconcileInterval
	}
	if raw.SettingsFlushDelay != nil {
		cfg.SettingsFlushDelay = *raw.SettingsFlushDelay
	}

	for _, label := range sortedKeys(raw.Windows) {
		cfg.Windows[label] = applyWindow(cfg.Windows[label], raw.Windows[label])
	}

	if raw.Keybinds != nil {
		cfg.Keybinds = mergeStringMap(cfg.Keybinds, raw.Keybinds)
	}

	return cfg, nil
}

func applyWindow(def WindowDef, raw RawWindow) WindowDef {
	if raw.Kind != nil {
		def.Kind = *raw.Kind
	}
	if raw.Title != nil {
		def.Title = *raw.Title
	}
	def.Width = derefInt(raw.Width, def.Width)
	def.Height = derefInt(raw.Height, def.Height)
	def.MinWidth = derefInt(raw.MinWidth, def.MinWidth)
	def.MinHeight = derefInt(raw.MinHeight, def.MinHeight)
	def.MaxWidth = derefInt(raw.MaxWidth, def.MaxWidth)
	def.MaxHeight = derefInt(raw.MaxHeight, def.MaxHeight)
	def.Center = derefBool(raw.Center, def.Center)
	def.Resizable = derefBool(raw.Resizable, def.Resizable)
	def.Decorations = derefBool(raw.Decorations, def.Decorations)
	def.Visible = derefBool(raw.Visible, def.Visible)
	def.AlwaysOnTop = derefBool(raw.AlwaysOnTop, def.AlwaysOnTop)
	def.SkipTaskbar = derefBool(raw.SkipTaskbar, def.SkipTaskbar)
	def.ClickThrough = derefBool(raw.ClickThrough, def.ClickThrough)
	def.OpenAtStartup = derefBool(raw.OpenAtStartup, def.OpenAtStartup)
	return def
}

// mergeStringMap returns base with overlay applied. An empty overlay value
// removes the key.
func mergeStringMap(base map[string]string, overlay map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

func derefInt(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func derefBool(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
