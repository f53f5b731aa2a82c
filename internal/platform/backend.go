package platform

import (
	"context"
	"errors"
)

// ErrWindowNotFound is returned for operations on a window the backend no
// longer knows about.
var ErrWindowNotFound = errors.New("window not found")

// WindowID is a platform-neutral window identifier.
type WindowID uint32

// Rect describes a rectangle. Window-local for input regions, screen
// coordinates for placement.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Centered returns a width x height rect centered in area. Oversized windows
// are pinned to the area origin.
func Centered(area Rect, width, height int) Rect {
	x := area.X + (area.Width-width)/2
	y := area.Y + (area.Height-height)/2
	if x < area.X {
		x = area.X
	}
	if y < area.Y {
		y = area.Y
	}
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// WindowSpec describes a top-level window for the backend to create.
type WindowSpec struct {
	Label  string
	Title  string
	Width  int
	Height int

	// Size bounds; zero means unbounded.
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int

	Center       bool
	Resizable    bool
	Decorations  bool
	Visible      bool
	AlwaysOnTop  bool
	SkipTaskbar  bool
	ClickThrough bool
}

// EventKind identifies a window-manager notification.
type EventKind int

const (
	// EventCloseRequested fires when the user asks the window manager to
	// close a window (title bar button, Alt+F4). The window still exists.
	EventCloseRequested EventKind = iota
	// EventDestroyed fires once the window is gone, whoever destroyed it.
	EventDestroyed
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case EventCloseRequested:
		return "close-requested"
	case EventDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Event is a window-manager notification for one window.
type Event struct {
	Kind   EventKind
	Window WindowID
}

// EventHandler receives events. Handlers run on the backend's event
// goroutine and must not block.
type EventHandler func(Event)

// Backend abstracts window-system operations across platforms.
type Backend interface {
	CreateWindow(spec WindowSpec) (WindowID, error)
	Show(id WindowID) error
	Hide(id WindowID) error
	Focus(id WindowID) error
	Destroy(id WindowID) error
	Exists(id WindowID) bool
	Subscribe(kind EventKind, handler EventHandler)
}

// InputShaper restricts pointer input of a window to the union of regions.
// Everything outside passes through to the windows beneath.
type InputShaper interface {
	ApplyInputRegions(id WindowID, regions []Rect) error
}

// Session is a backend bound to a live display connection.
type Session interface {
	Backend
	InputShaper

	// Run pumps window-system events until ctx is cancelled.
	Run(ctx context.Context) error
	Close()
}
