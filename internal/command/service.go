// Package command is the surface front ends call: IPC, MCP and hotkeys all
// end up here. Every error leaving this package is a plain message string.
package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/1broseidon/steward/internal/clickthrough"
	"github.com/1broseidon/steward/internal/lifecycle"
	"github.com/1broseidon/steward/internal/store"
	"github.com/1broseidon/steward/internal/window"
	"github.com/jonboulle/clockwork"
)

// RegionsSettingKey is the setting the last toolbar region set is saved under.
const RegionsSettingKey = "toolbar.click_through_regions"

// Names accepted by Dispatch.
const (
	OpenSettings = "open_settings"
	ShowMain     = "show_main"
	HideMain     = "hide_main"
	Quit         = "quit"
)

// Windows is the registry surface the commands need.
type Windows interface {
	OpenOrFocus(label string, kind window.Kind, cfg window.Config) error
	Snapshot() []window.Handle
}

// Regions is the click-through engine surface the commands need.
type Regions interface {
	SetRegions(label string, regions clickthrough.RegionSet) error
	Regions() clickthrough.RegionSet
}

// Lifecycle is the main window surface the commands need.
type Lifecycle interface {
	ShowMain() error
	HideMain() error
	Quit() error
	State() lifecycle.State
}

// Settings reads and queues setting writes.
type Settings interface {
	Get(ctx context.Context, key string) (string, error)
	Set(key, value string) error
}

// Keybinds persists keybinds.
type Keybinds interface {
	ListKeybinds(ctx context.Context) ([]store.Keybind, error)
	SetKeybind(ctx context.Context, combo, command string) error
	DeleteKeybind(ctx context.Context, combo string) error
}

// Deps wires a Service.
type Deps struct {
	Windows   Windows
	Regions   Regions
	Lifecycle Lifecycle
	Settings  Settings
	Keybinds  Keybinds

	SettingsLabel  string
	SettingsWindow window.Config
	ToolbarLabel   string

	// OnKeybindsChanged runs after a keybind was added or removed.
	OnKeybindsChanged func()

	Clock  clockwork.Clock
	Logger *slog.Logger
}

// RegionSpec is one rectangle as front ends send it.
type RegionSpec struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

// WindowStatus describes one live window.
type WindowStatus struct {
	Label        string `json:"label"`
	Kind         string `json:"kind"`
	Visible      bool   `json:"visible"`
	AlwaysOnTop  bool   `json:"always_on_top"`
	ClickThrough bool   `json:"click_through"`
	Focused      bool   `json:"focused"`
}

// Status is a snapshot of the session.
type Status struct {
	Windows        []WindowStatus `json:"windows"`
	Regions        int            `json:"regions"`
	MainState      string         `json:"main_state"`
	UptimeSeconds  int64          `json:"uptime_seconds"`
	SettingsWindow string         `json:"settings_window"`
	ToolbarWindow  string         `json:"toolbar_window"`
}

// Service implements every command.
type Service struct {
	deps    Deps
	logger  *slog.Logger
	clock   clockwork.Clock
	started time.Time
}

// NewService creates a Service. SettingsLabel and ToolbarLabel default to
// "settings" and "toolbar".
func NewService(deps Deps) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.SettingsLabel == "" {
		deps.SettingsLabel = string(window.KindSettings)
	}
	if deps.ToolbarLabel == "" {
		deps.ToolbarLabel = string(window.KindToolbar)
	}
	return &Service{
		deps:    deps,
		logger:  deps.Logger,
		clock:   deps.Clock,
		started: deps.Clock.Now(),
	}
}

// Greet returns the fixed greeting for name.
func (s *Service) Greet(name string) string {
	return fmt.Sprintf("Hello, %s! You've been greeted from Go!", name)
}

// OpenOrFocusSettings opens the settings window, or focuses it if it is
// already open.
func (s *Service) OpenOrFocusSettings(ctx context.Context) error {
	err := s.deps.Windows.OpenOrFocus(s.deps.SettingsLabel, window.KindSettings, s.deps.SettingsWindow)
	if err != nil {
		s.logger.Warn("open settings failed", "error", err)
	}
	return flatten(err)
}

// ConfigureToolbarClickThrough replaces the toolbar's interactive regions.
// caller is the label of the window issuing the command.
func (s *Service) ConfigureToolbarClickThrough(ctx context.Context, caller string, regions []RegionSpec) error {
	if caller != s.deps.ToolbarLabel {
		return errors.New("This command only works for toolbar window")
	}

	set := make(clickthrough.RegionSet, 0, len(regions))
	for _, r := range regions {
		set = append(set, clickthrough.Region{
			X:      r.X,
			Y:      r.Y,
			Width:  int(r.Width),
			Height: int(r.Height),
		})
	}

	if err := s.deps.Regions.SetRegions(caller, set); err != nil {
		s.logger.Warn("configure click-through failed", "window", caller, "error", err)
		return flatten(err)
	}
	s.logger.Info("click-through regions updated", "window", caller, "regions", len(set))

	s.persistRegions(set)
	return nil
}

func (s *Service) persistRegions(set clickthrough.RegionSet) {
	if s.deps.Settings == nil {
		return
	}
	data, err := json.Marshal(set)
	if err != nil {
		s.logger.Warn("failed to encode regions", "error", err)
		return
	}
	if err := s.deps.Settings.Set(RegionsSettingKey, string(data)); err != nil {
		s.logger.Warn("failed to persist regions", "error", err)
	}
}

// SavedRegions returns the region set persisted by the last successful
// ConfigureToolbarClickThrough, if any.
func (s *Service) SavedRegions(ctx context.Context) (clickthrough.RegionSet, bool) {
	if s.deps.Settings == nil {
		return nil, false
	}
	raw, err := s.deps.Settings.Get(ctx, RegionsSettingKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("failed to load saved regions", "error", err)
		}
		return nil, false
	}
	var set clickthrough.RegionSet
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		s.logger.Warn("ignoring malformed saved regions", "error", err)
		return nil, false
	}
	return set, true
}

// ShowMain re-shows the main window and brings it to front.
func (s *Service) ShowMain(ctx context.Context) error {
	return flatten(s.deps.Lifecycle.ShowMain())
}

// HideMain hides the main window without terminating.
func (s *Service) HideMain(ctx context.Context) error {
	return flatten(s.deps.Lifecycle.HideMain())
}

// Quit destroys the main window, which ends the session.
func (s *Service) Quit(ctx context.Context) error {
	return flatten(s.deps.Lifecycle.Quit())
}

// Status reports the live windows and the engine and lifecycle state.
func (s *Service) Status() Status {
	handles := s.deps.Windows.Snapshot()
	windows := make([]WindowStatus, 0, len(handles))
	for _, h := range handles {
		windows = append(windows, WindowStatus{
			Label:        h.Label,
			Kind:         string(h.Kind),
			Visible:      h.Visible,
			AlwaysOnTop:  h.AlwaysOnTop,
			ClickThrough: h.ClickThrough,
			Focused:      h.Focused,
		})
	}
	return Status{
		Windows:        windows,
		Regions:        len(s.deps.Regions.Regions()),
		MainState:      s.deps.Lifecycle.State().String(),
		UptimeSeconds:  int64(s.clock.Since(s.started).Seconds()),
		SettingsWindow: s.deps.SettingsLabel,
		ToolbarWindow:  s.deps.ToolbarLabel,
	}
}

// GetSetting returns the value stored under key.
func (s *Service) GetSetting(ctx context.Context, key string) (string, error) {
	if s.deps.Settings == nil {
		return "", errors.New("settings storage is not available")
	}
	v, err := s.deps.Settings.Get(ctx, key)
	return v, flatten(err)
}

// SetSetting queues a setting write.
func (s *Service) SetSetting(ctx context.Context, key, value string) error {
	if s.deps.Settings == nil {
		return errors.New("settings storage is not available")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("setting key cannot be empty")
	}
	return flatten(s.deps.Settings.Set(key, value))
}

// ListKeybinds returns the stored keybinds.
func (s *Service) ListKeybinds(ctx context.Context) ([]store.Keybind, error) {
	if s.deps.Keybinds == nil {
		return nil, errors.New("keybind storage is not available")
	}
	binds, err := s.deps.Keybinds.ListKeybinds(ctx)
	return binds, flatten(err)
}

// SetKeybind binds combo to a command accepted by Dispatch.
func (s *Service) SetKeybind(ctx context.Context, combo, name string) error {
	if s.deps.Keybinds == nil {
		return errors.New("keybind storage is not available")
	}
	if !IsCommand(name) {
		return fmt.Errorf("unknown command %q (expected one of: %s)", name, strings.Join(Commands(), ", "))
	}
	if err := s.deps.Keybinds.SetKeybind(ctx, combo, name); err != nil {
		return flatten(err)
	}
	s.keybindsChanged()
	return nil
}

// DeleteKeybind removes the binding for combo.
func (s *Service) DeleteKeybind(ctx context.Context, combo string) error {
	if s.deps.Keybinds == nil {
		return errors.New("keybind storage is not available")
	}
	if err := s.deps.Keybinds.DeleteKeybind(ctx, combo); err != nil {
		return flatten(err)
	}
	s.keybindsChanged()
	return nil
}

// ReloadKeybinds asks the hotkey layer to re-read the stored keybinds.
func (s *Service) ReloadKeybinds(ctx context.Context) error {
	s.keybindsChanged()
	return nil
}

func (s *Service) keybindsChanged() {
	if s.deps.OnKeybindsChanged != nil {
		s.deps.OnKeybindsChanged()
	}
}

// Dispatch runs a named command that takes no arguments.
func (s *Service) Dispatch(ctx context.Context, name string) error {
	switch name {
	case OpenSettings:
		return s.OpenOrFocusSettings(ctx)
	case ShowMain:
		return s.ShowMain(ctx)
	case HideMain:
		return s.HideMain(ctx)
	case Quit:
		return s.Quit(ctx)
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

// Commands lists the names Dispatch accepts, sorted.
func Commands() []string {
	names := []string{OpenSettings, ShowMain, HideMain, Quit}
	sort.Strings(names)
	return names
}

// IsCommand reports whether Dispatch accepts name.
func IsCommand(name string) bool {
	switch name {
	case OpenSettings, ShowMain, HideMain, Quit:
		return true
	}
	return false
}

// flatten drops the error chain and keeps the message.
func flatten(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(err.Error())
}
