package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/motif"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WindowOptions describes a top-level window to create.
type WindowOptions struct {
	Title  string
	X      int
	Y      int
	Width  int
	Height int

	// Size bounds; zero means unbounded.
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int

	Resizable   bool
	Decorations bool
	AlwaysOnTop bool
	SkipTaskbar bool
	Utility     bool
}

// WindowCallbacks receive window-manager notifications for one window.
// Both run on the event loop goroutine.
type WindowCallbacks struct {
	OnDeleteRequest func(xproto.Window)
	OnDestroy       func(xproto.Window)
}

// CreateWindow creates an unmapped top-level window, sets its ICCCM/EWMH
// properties and subscribes the callbacks. Callers map it with MapWindow.
func (c *Connection) CreateWindow(opts WindowOptions, cb WindowCallbacks) (xproto.Window, error) {
	if opts.Width < 1 || opts.Height < 1 {
		return 0, fmt.Errorf("invalid window size %dx%d", opts.Width, opts.Height)
	}

	win, err := xwindow.Generate(c.XUtil)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate window id: %w", err)
	}

	// Value list order follows the bit positions of the mask (low -> high).
	err = win.CreateChecked(
		c.Root,
		opts.X, opts.Y, opts.Width, opts.Height,
		xproto.CwBackPixel|xproto.CwEventMask,
		0,
		xproto.EventMaskStructureNotify|xproto.EventMaskPropertyChange|xproto.EventMaskFocusChange,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create window: %w", err)
	}

	if err := c.setWindowProperties(win.Id, opts); err != nil {
		xproto.DestroyWindow(c.XUtil.Conn(), win.Id)
		return 0, err
	}

	c.connectCallbacks(win.Id, cb)
	return win.Id, nil
}

func (c *Connection) setWindowProperties(wid xproto.Window, opts WindowOptions) error {
	xu := c.XUtil

	if opts.Title != "" {
		if err := ewmh.WmNameSet(xu, wid, opts.Title); err != nil {
			return fmt.Errorf("failed to set _NET_WM_NAME: %w", err)
		}
		if err := icccm.WmNameSet(xu, wid, opts.Title); err != nil {
			return fmt.Errorf("failed to set WM_NAME: %w", err)
		}
	}

	if err := icccm.WmNormalHintsSet(xu, wid, sizeHints(opts)); err != nil {
		return fmt.Errorf("failed to set WM_NORMAL_HINTS: %w", err)
	}

	// Without WM_DELETE_WINDOW the window manager kills the whole client on close.
	if err := icccm.WmProtocolsSet(xu, wid, []string{"WM_DELETE_WINDOW"}); err != nil {
		return fmt.Errorf("failed to set WM_PROTOCOLS: %w", err)
	}

	if !opts.Decorations {
		hints := &motif.Hints{
			Flags:      motif.HintDecorations,
			Decoration: motif.DecorationNone,
		}
		if err := motif.WmHintsSet(xu, wid, hints); err != nil {
			return fmt.Errorf("failed to set _MOTIF_WM_HINTS: %w", err)
		}
	}

	if opts.Utility {
		if err := ewmh.WmWindowTypeSet(xu, wid, []string{"_NET_WM_WINDOW_TYPE_UTILITY"}); err != nil {
			return fmt.Errorf("failed to set window type: %w", err)
		}
	}

	var states []string
	if opts.AlwaysOnTop {
		states = append(states, "_NET_WM_STATE_ABOVE")
	}
	if opts.SkipTaskbar {
		states = append(states, "_NET_WM_STATE_SKIP_TASKBAR", "_NET_WM_STATE_SKIP_PAGER")
	}
	if len(states) > 0 {
		if err := ewmh.WmStateSet(xu, wid, states); err != nil {
			return fmt.Errorf("failed to set _NET_WM_STATE: %w", err)
		}
	}

	return nil
}

// sizeHints builds WM_NORMAL_HINTS. A fixed-size window pins min and max to
// its initial size.
func sizeHints(opts WindowOptions) *icccm.NormalHints {
	hints := &icccm.NormalHints{
		Flags:  icccm.SizeHintPPosition | icccm.SizeHintPSize,
		X:      opts.X,
		Y:      opts.Y,
		Width:  uint(opts.Width),
		Height: uint(opts.Height),
	}

	minW, minH, maxW, maxH := opts.MinWidth, opts.MinHeight, opts.MaxWidth, opts.MaxHeight
	if !opts.Resizable {
		minW, minH = opts.Width, opts.Height
		maxW, maxH = opts.Width, opts.Height
	}

	if minW > 0 || minH > 0 {
		hints.Flags |= icccm.SizeHintPMinSize
		hints.MinWidth = uint(minW)
		hints.MinHeight = uint(minH)
	}
	if maxW > 0 || maxH > 0 {
		hints.Flags |= icccm.SizeHintPMaxSize
		hints.MaxWidth = uint(maxW)
		hints.MaxHeight = uint(maxH)
	}
	return hints
}

func (c *Connection) connectCallbacks(wid xproto.Window, cb WindowCallbacks) {
	xevent.ClientMessageFun(func(xu *xgbutil.XUtil, ev xevent.ClientMessageEvent) {
		if cb.OnDeleteRequest == nil || !isDeleteWindowMessage(xu, ev) {
			return
		}
		cb.OnDeleteRequest(ev.Window)
	}).Connect(c.XUtil, wid)

	xevent.DestroyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		if ev.Window != wid {
			return
		}
		xevent.Detach(xu, wid)
		if cb.OnDestroy != nil {
			cb.OnDestroy(wid)
		}
	}).Connect(c.XUtil, wid)
}

func isDeleteWindowMessage(xu *xgbutil.XUtil, ev xevent.ClientMessageEvent) bool {
	if ev.Format != 32 {
		return false
	}
	name, err := xprop.AtomName(xu, ev.Type)
	if err != nil || name != "WM_PROTOCOLS" {
		return false
	}
	protocol, err := xprop.AtomName(xu, xproto.Atom(ev.Data.Data32[0]))
	return err == nil && protocol == "WM_DELETE_WINDOW"
}

// MapWindow makes a window visible.
func (c *Connection) MapWindow(wid xproto.Window) error {
	return xproto.MapWindowChecked(c.XUtil.Conn(), wid).Check()
}

// UnmapWindow hides a window without destroying it.
func (c *Connection) UnmapWindow(wid xproto.Window) error {
	return xproto.UnmapWindowChecked(c.XUtil.Conn(), wid).Check()
}

// DestroyWindow destroys a window. Its DestroyNotify still reaches the
// callbacks registered by CreateWindow.
func (c *Connection) DestroyWindow(wid xproto.Window) error {
	return xproto.DestroyWindowChecked(c.XUtil.Conn(), wid).Check()
}

// WindowExists reports whether the server still knows the window.
func (c *Connection) WindowExists(wid xproto.Window) bool {
	_, err := xproto.GetWindowAttributes(c.XUtil.Conn(), wid).Reply()
	return err == nil
}

// RaiseWindow restacks a window above its siblings.
func (c *Connection) RaiseWindow(wid xproto.Window) error {
	return xproto.ConfigureWindowChecked(
		c.XUtil.Conn(),
		wid,
		xproto.ConfigWindowStackMode,
		[]uint32{xproto.StackModeAbove},
	).Check()
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// We build the message manually because the xgbutil ewmh helpers panic on
// this library version.
func (c *Connection) FocusWindow(wid xproto.Window) error {
	atom, err := xprop.Atm(c.XUtil, "_NET_ACTIVE_WINDOW")
	if err != nil {
		return fmt.Errorf("failed to intern _NET_ACTIVE_WINDOW: %w", err)
	}

	const sourceIndication = 2 // pager/direct action
	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: wid,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{sourceIndication, 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}
