// Package lifecycle reacts to window-manager close and destroy events. The
// main window is hidden instead of closed, and its destruction tears down
// every dependent window.
package lifecycle

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/1broseidon/steward/internal/platform"
	"github.com/1broseidon/steward/internal/window"
)

// ErrTerminated is returned for main window operations after it was destroyed.
var ErrTerminated = errors.New("main window has been destroyed")

// Windows is the subset of the window registry the coordinator drives.
type Windows interface {
	OpenOrFocus(label string, kind window.Kind, cfg window.Config) error
	Hide(label string) error
	Close(label string) error
	Get(label string) (window.Handle, bool)
	LabelFor(id platform.WindowID) (string, bool)
	ForgetWindow(id platform.WindowID) (string, bool)
}

// Subscriber delivers window-manager events.
type Subscriber interface {
	Subscribe(kind platform.EventKind, handler platform.EventHandler)
}

// Config configures a Coordinator.
type Config struct {
	MainLabel  string
	MainWindow window.Config
	// Dependents are closed when the main window is destroyed.
	Dependents []string
	Logger     *slog.Logger
}

// Coordinator owns the main window state machine.
type Coordinator struct {
	windows    Windows
	mainLabel  string
	mainWindow window.Config
	dependents []string
	logger     *slog.Logger

	mu           sync.Mutex
	state        State
	started      bool
	onTerminated []func()
	onDestroyed  []func(label string)
}

// New creates a coordinator in the Active state.
func New(windows Windows, cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mainLabel := cfg.MainLabel
	if mainLabel == "" {
		mainLabel = string(window.KindMain)
	}
	return &Coordinator{
		windows:    windows,
		mainLabel:  mainLabel,
		mainWindow: cfg.MainWindow,
		dependents: append([]string(nil), cfg.Dependents...),
		logger:     logger,
		state:      StateActive,
	}
}

// Start registers one handler per event kind. Calling it again is a no-op.
func (c *Coordinator) Start(sub Subscriber) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	sub.Subscribe(platform.EventCloseRequested, c.handleCloseRequested)
	sub.Subscribe(platform.EventDestroyed, c.handleDestroyed)
}

// OnTerminated registers a callback run once the main window is destroyed
// and the cascade was issued.
func (c *Coordinator) OnTerminated(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTerminated = append(c.onTerminated, fn)
}

// OnWindowDestroyed registers a callback run for every destroyed window
// that was registered.
func (c *Coordinator) OnWindowDestroyed(fn func(label string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDestroyed = append(c.onDestroyed, fn)
}

// State returns the current main window state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// MainLabel returns the label of the main window.
func (c *Coordinator) MainLabel() string {
	return c.mainLabel
}

// ShowMain re-shows (or creates) the main window and brings it to front.
func (c *Coordinator) ShowMain() error {
	if c.State() == StateTerminated {
		return ErrTerminated
	}
	if err := c.windows.OpenOrFocus(c.mainLabel, window.KindMain, c.mainWindow); err != nil {
		return err
	}
	c.apply(EventShown)
	return nil
}

// HideMain hides the main window the same way a close request does.
func (c *Coordinator) HideMain() error {
	if c.State() == StateTerminated {
		return ErrTerminated
	}
	return c.runAction(c.apply(EventCloseRequested))
}

// Quit destroys the main window, which cascades to the dependents.
func (c *Coordinator) Quit() error {
	if c.State() == StateTerminated {
		return nil
	}
	c.closeWindow(c.mainLabel)
	return c.runAction(c.apply(EventDestroyed))
}

func (c *Coordinator) handleCloseRequested(ev platform.Event) {
	label, ok := c.windows.LabelFor(ev.Window)
	if !ok {
		return
	}

	if label != c.mainLabel {
		c.logger.Info("close requested", "label", label)
		c.closeWindow(label)
		return
	}

	if err := c.runAction(c.apply(EventCloseRequested)); err != nil {
		c.logger.Warn("failed to hide main window", "label", label, "error", err)
	}
}

func (c *Coordinator) handleDestroyed(ev platform.Event) {
	label, ok := c.windows.ForgetWindow(ev.Window)
	if !ok {
		return
	}
	c.logger.Info("window destroyed", "label", label, "id", ev.Window)
	c.notifyDestroyed(label)

	if label == c.mainLabel {
		if err := c.runAction(c.apply(EventDestroyed)); err != nil {
			c.logger.Warn("main window teardown incomplete", "error", err)
		}
	}
}

// WindowGone handles a window found missing without a destroy event, the
// same way as a delivered one.
func (c *Coordinator) WindowGone(id platform.WindowID) {
	c.handleDestroyed(platform.Event{Kind: platform.EventDestroyed, Window: id})
}

// WindowDropped runs the destroy listeners for a window the registry dropped
// as stale before creating it again. The main window state does not change.
func (c *Coordinator) WindowDropped(label string) {
	c.logger.Info("stale window dropped", "label", label)
	c.notifyDestroyed(label)
}

func (c *Coordinator) apply(ev Event) Action {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := c.state
	to, action := Transition(from, ev)
	c.state = to
	if from != to {
		c.logger.Info("main window state changed", "from", from, "to", to, "event", ev)
	}
	return action
}

func (c *Coordinator) runAction(action Action) error {
	switch action {
	case ActionHide:
		if err := c.windows.Hide(c.mainLabel); err != nil {
			return fmt.Errorf("failed to hide %q: %w", c.mainLabel, err)
		}
		return nil
	case ActionCascade:
		c.cascade()
		return nil
	default:
		return nil
	}
}

// cascade closes the dependents without waiting for their destruction.
func (c *Coordinator) cascade() {
	for _, label := range c.dependents {
		c.closeWindow(label)
	}

	c.mu.Lock()
	hooks := append([]func(){}, c.onTerminated...)
	c.mu.Unlock()
	for _, hook := range hooks {
		hook()
	}
}

// closeWindow destroys a registered window. The registry entry is gone before
// the destroy event arrives, so destroy listeners run here instead.
func (c *Coordinator) closeWindow(label string) {
	if _, ok := c.windows.Get(label); !ok {
		return
	}
	if err := c.windows.Close(label); err != nil {
		c.logger.Warn("failed to close window", "label", label, "error", err)
	}
	c.notifyDestroyed(label)
}

func (c *Coordinator) notifyDestroyed(label string) {
	c.mu.Lock()
	hooks := append([]func(string){}, c.onDestroyed...)
	c.mu.Unlock()
	for _, hook := range hooks {
		hook(label)
	}
}
