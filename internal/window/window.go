package window

import (
	"fmt"

	"github.com/1broseidon/steward/internal/platform"
)

// Kind is the role a window plays in the session.
type Kind string

const (
	KindMain     Kind = "main"
	KindSettings Kind = "settings"
	KindToolbar  Kind = "toolbar"
)

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindMain, KindSettings, KindToolbar:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown window kind %q (expected main, settings or toolbar)", s)
	}
}

// Config holds the creation parameters for a window.
type Config struct {
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

func (c Config) spec(label string) platform.WindowSpec {
	return platform.WindowSpec{
		Label:        label,
		Title:        c.Title,
		Width:        c.Width,
		Height:       c.Height,
		MinWidth:     c.MinWidth,
		MinHeight:    c.MinHeight,
		MaxWidth:     c.MaxWidth,
		MaxHeight:    c.MaxHeight,
		Center:       c.Center,
		Resizable:    c.Resizable,
		Decorations:  c.Decorations,
		Visible:      c.Visible,
		AlwaysOnTop:  c.AlwaysOnTop,
		SkipTaskbar:  c.SkipTaskbar,
		ClickThrough: c.ClickThrough,
	}
}

// Handle is a snapshot of one live window. The Registry owns the live
// record; everything else refers to windows by Label.
type Handle struct {
	Label        string
	Kind         Kind
	ID           platform.WindowID
	Visible      bool
	AlwaysOnTop  bool
	ClickThrough bool
	// Focused is advisory; the window manager may move focus at any time.
	Focused bool
}
