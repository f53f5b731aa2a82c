//go:build linux

package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/1broseidon/steward/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
)

// LinuxBackend wraps an X11 connection behind the platform Session interface.
type LinuxBackend struct {
	conn *x11.Connection

	mu       sync.Mutex
	handlers map[EventKind][]EventHandler
}

var _ Session = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{
		conn:     conn,
		handlers: make(map[EventKind][]EventHandler),
	}
}

// NewLinuxBackendFromDisplay creates a new Linux backend by opening a fresh X11 connection.
func NewLinuxBackendFromDisplay() (*LinuxBackend, error) {
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return NewLinuxBackend(conn), nil
}

// XUtil returns the underlying xgbutil connection for X11-specific operations.
func (b *LinuxBackend) XUtil() *xgbutil.XUtil {
	if b == nil || b.conn == nil {
		return nil
	}
	return b.conn.XUtil
}

// RootWindow returns the X11 root window ID.
func (b *LinuxBackend) RootWindow() xproto.Window {
	if b == nil || b.conn == nil {
		return 0
	}
	return b.conn.Root
}

// CreateWindow creates the window, positions it and maps it if spec.Visible.
func (b *LinuxBackend) CreateWindow(spec WindowSpec) (WindowID, error) {
	conn, err := b.connection()
	if err != nil {
		return 0, err
	}

	bounds := Rect{Width: spec.Width, Height: spec.Height}
	if spec.Center {
		area := conn.PlacementArea()
		bounds = Centered(Rect{X: area.X, Y: area.Y, Width: area.Width, Height: area.Height}, spec.Width, spec.Height)
	}

	wid, err := conn.CreateWindow(x11.WindowOptions{
		Title:       spec.Title,
		X:           bounds.X,
		Y:           bounds.Y,
		Width:       bounds.Width,
		Height:      bounds.Height,
		MinWidth:    spec.MinWidth,
		MinHeight:   spec.MinHeight,
		MaxWidth:    spec.MaxWidth,
		MaxHeight:   spec.MaxHeight,
		Resizable:   spec.Resizable,
		Decorations: spec.Decorations,
		AlwaysOnTop: spec.AlwaysOnTop,
		SkipTaskbar: spec.SkipTaskbar,
		Utility:     spec.ClickThrough,
	}, x11.WindowCallbacks{
		OnDeleteRequest: func(w xproto.Window) {
			b.emit(Event{Kind: EventCloseRequested, Window: WindowID(w)})
		},
		OnDestroy: func(w xproto.Window) {
			b.emit(Event{Kind: EventDestroyed, Window: WindowID(w)})
		},
	})
	if err != nil {
		return 0, err
	}

	// Click-through windows start fully transparent to input until regions
	// are configured.
	if spec.ClickThrough && conn.HasInputShape() {
		if err := conn.SetInputShape(wid, nil); err != nil {
			conn.DestroyWindow(wid)
			return 0, fmt.Errorf("failed to clear input shape: %w", err)
		}
	}

	if spec.Visible {
		if err := conn.MapWindow(wid); err != nil {
			conn.DestroyWindow(wid)
			return 0, fmt.Errorf("failed to map window: %w", err)
		}
	}

	return WindowID(wid), nil
}

// Show maps a window.
func (b *LinuxBackend) Show(id WindowID) error {
	conn, err := b.existing(id)
	if err != nil {
		return err
	}
	return conn.MapWindow(xproto.Window(id))
}

// Hide unmaps a window.
func (b *LinuxBackend) Hide(id WindowID) error {
	conn, err := b.existing(id)
	if err != nil {
		return err
	}
	return conn.UnmapWindow(xproto.Window(id))
}

// Focus maps, raises and activates a window.
func (b *LinuxBackend) Focus(id WindowID) error {
	conn, err := b.existing(id)
	if err != nil {
		return err
	}

	wid := xproto.Window(id)
	if err := conn.MapWindow(wid); err != nil {
		return fmt.Errorf("failed to map window: %w", err)
	}
	if err := conn.RaiseWindow(wid); err != nil {
		return fmt.Errorf("failed to raise window: %w", err)
	}
	return conn.FocusWindow(wid)
}

// Destroy destroys a window. EventDestroyed follows from DestroyNotify.
func (b *LinuxBackend) Destroy(id WindowID) error {
	conn, err := b.existing(id)
	if err != nil {
		return err
	}
	return conn.DestroyWindow(xproto.Window(id))
}

// Exists reports whether the window is still alive on the server.
func (b *LinuxBackend) Exists(id WindowID) bool {
	conn, err := b.connection()
	if err != nil {
		return false
	}
	return conn.WindowExists(xproto.Window(id))
}

// Subscribe registers a handler for an event kind.
func (b *LinuxBackend) Subscribe(kind EventKind, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], handler)
}

// ApplyInputRegions sets the SHAPE input region of a window.
func (b *LinuxBackend) ApplyInputRegions(id WindowID, regions []Rect) error {
	conn, err := b.existing(id)
	if err != nil {
		return err
	}

	rects := make([]x11.Rect, len(regions))
	for i, r := range regions {
		rects[i] = x11.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	}
	return conn.SetInputShape(xproto.Window(id), rects)
}

// Run starts the X11 event loop and stops it when ctx is cancelled.
func (b *LinuxBackend) Run(ctx context.Context) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.EventLoop()
	}()

	select {
	case <-ctx.Done():
		conn.Quit()
		<-done
	case <-done:
	}
	return nil
}

// Close closes the underlying X11 connection.
func (b *LinuxBackend) Close() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

func (b *LinuxBackend) emit(ev Event) {
	b.mu.Lock()
	handlers := append([]EventHandler(nil), b.handlers[ev.Kind]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		handler(ev)
	}
}

func (b *LinuxBackend) existing(id WindowID) (*x11.Connection, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}
	if !conn.WindowExists(xproto.Window(id)) {
		return nil, fmt.Errorf("window %d: %w", id, ErrWindowNotFound)
	}
	return conn, nil
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}
