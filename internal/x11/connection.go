package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/shape"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	// inputShape reports whether the server supports SHAPE >= 1.1, which is
	// the first version with the input shape kind.
	inputShape bool
}

// NewConnection establishes a connection to the X11 server and initializes required extensions
func NewConnection() (*Connection, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, err
	}

	// Initialize keybind module (required for global hotkeys)
	keybind.Initialize(xu)

	c := &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}
	c.inputShape = c.initShape() == nil

	return c, nil
}

func (c *Connection) initShape() error {
	if err := shape.Init(c.XUtil.Conn()); err != nil {
		return fmt.Errorf("shape init failed: %w", err)
	}
	version, err := shape.QueryVersion(c.XUtil.Conn()).Reply()
	if err != nil {
		return fmt.Errorf("shape version query failed: %w", err)
	}
	if version.MajorVersion < 1 || (version.MajorVersion == 1 && version.MinorVersion < 1) {
		return fmt.Errorf("shape %d.%d has no input regions", version.MajorVersion, version.MinorVersion)
	}
	return nil
}

// HasInputShape reports whether input regions can be applied on this display.
func (c *Connection) HasInputShape() bool {
	return c.inputShape
}

// EventLoop starts the main X11 event loop (blocking)
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Quit makes a running EventLoop return.
func (c *Connection) Quit() {
	xevent.Quit(c.XUtil)
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
