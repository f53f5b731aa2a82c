package palette

import (
	"context"
	"errors"
	"fmt"

	"github.com/1broseidon/steward/internal/command"
)

// Client is the subset of the IPC client the launcher drives.
type Client interface {
	GetStatus() (*command.Status, error)
	OpenOrFocusSettings() error
	ShowMain() error
	HideMain() error
	ConfigureToolbarClickThrough(caller string, regions []command.RegionSpec) error
	ReloadKeybinds() error
	Quit() error
}

// Palette-only actions; the rest are command.Dispatch names.
const (
	actionToolbarPassthrough = "toolbar_passthrough"
	actionReloadKeybinds     = "reload_keybinds"
)

// Launcher lists steward's commands in a palette and runs the selection.
type Launcher struct {
	backend Backend
	client  Client
	toolbar string
}

// NewLauncher creates a Launcher. toolbar is the label sent as the caller of
// click-through changes.
func NewLauncher(backend Backend, client Client, toolbar string) *Launcher {
	if toolbar == "" {
		toolbar = "toolbar"
	}
	return &Launcher{backend: backend, client: client, toolbar: toolbar}
}

// Items builds the menu for the given session state.
func (l *Launcher) Items(status *command.Status) []Item {
	mainVisible := status != nil && status.MainState == "active"
	regions := 0
	if status != nil {
		regions = status.Regions
	}

	items := []Item{
		{Label: "Windows", IsHeader: true},
		{Label: "Open settings", Action: command.OpenSettings, Icon: "preferences-system", Meta: "preferences config"},
	}
	if mainVisible {
		items = append(items, Item{Label: "Hide main window", Action: command.HideMain, Icon: "window-minimize", IsActive: true})
	} else {
		items = append(items, Item{Label: "Show main window", Action: command.ShowMain, Icon: "window-restore"})
	}
	items = append(items,
		Item{Label: "Toolbar", IsHeader: true},
		Item{
			Label:    fmt.Sprintf("Make toolbar fully click-through (%d region(s) now)", regions),
			Action:   actionToolbarPassthrough,
			Icon:     "input-mouse",
			Meta:     "overlay passthrough",
			IsActive: regions == 0,
		},
		Item{Label: "Session", IsHeader: true},
		Item{Label: "Reload keybinds", Action: actionReloadKeybinds, Icon: "input-keyboard"},
		Item{Label: "Quit steward", Action: command.Quit, Icon: "application-exit"},
	)
	return items
}

// Run shows the palette once and executes the chosen action. It returns the
// action run, or "" when the user cancelled.
func (l *Launcher) Run(ctx context.Context) (string, error) {
	status, err := l.client.GetStatus()
	if err != nil {
		return "", fmt.Errorf("daemon not reachable: %w", err)
	}

	item, err := l.backend.Show(ctx, "steward", l.Items(status), fmt.Sprintf("main window: %s", status.MainState))
	if errors.Is(err, ErrCancelled) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return item.Action, l.Execute(item.Action)
}

// Execute runs a single palette action against the daemon.
func (l *Launcher) Execute(action string) error {
	switch action {
	case command.OpenSettings:
		return l.client.OpenOrFocusSettings()
	case command.ShowMain:
		return l.client.ShowMain()
	case command.HideMain:
		return l.client.HideMain()
	case actionToolbarPassthrough:
		return l.client.ConfigureToolbarClickThrough(l.toolbar, []command.RegionSpec{})
	case actionReloadKeybinds:
		return l.client.ReloadKeybinds()
	case command.Quit:
		return l.client.Quit()
	default:
		return fmt.Errorf("unknown palette action %q", action)
	}
}
