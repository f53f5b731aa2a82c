package hotkeys

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/steward/internal/store"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// dispatchTimeout bounds a command run from a key press.
const dispatchTimeout = 10 * time.Second

// Dispatcher runs a named command.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string) error
}

// Source lists the stored keybinds.
type Source interface {
	ListKeybinds(ctx context.Context) ([]store.Keybind, error)
}

// x11Accessor is an optional interface for backends that expose X11 internals.
type x11Accessor interface {
	XUtil() *xgbutil.XUtil
	RootWindow() xproto.Window
}

// Handler manages global keyboard shortcuts
type Handler struct {
	xu         *xgbutil.XUtil
	root       xproto.Window
	dispatcher Dispatcher
	source     Source
	logger     *slog.Logger

	mu    sync.Mutex
	bound []Binding
}

var ignoreModsOnce sync.Once

// NewHandler creates a new hotkey handler. Backends without X11 internals
// get a handler that resolves bindings but grabs nothing.
func NewHandler(backend any, dispatcher Dispatcher, source Source, logger *slog.Logger) *Handler {
	var xu *xgbutil.XUtil
	var root xproto.Window
	if accessor, ok := backend.(x11Accessor); ok {
		xu = accessor.XUtil()
		root = accessor.RootWindow()
	}
	if logger == nil {
		logger = slog.Default()
	}

	if xu != nil {
		ignoreModsOnce.Do(func() {
			configureIgnoreMods(xu)
		})
	}

	return &Handler{
		xu:         xu,
		root:       root,
		dispatcher: dispatcher,
		source:     source,
		logger:     logger,
	}
}

// Load grabs every stored keybind, replacing whatever was grabbed before.
func (h *Handler) Load(ctx context.Context) error {
	binds, err := h.source.ListKeybinds(ctx)
	if err != nil {
		return fmt.Errorf("failed to list keybinds: %w", err)
	}

	plan, skipped := Resolve(binds)
	for _, s := range skipped {
		h.logger.Warn("skipping keybind", "key", s.KeyCombination, "command", s.Command, "reason", s.Reason)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.xu == nil {
		h.bound = plan
		h.logger.Debug("hotkeys resolved without grabs", "count", len(plan))
		return nil
	}

	keybind.Detach(h.xu, h.root)
	h.bound = h.bound[:0]
	for _, b := range plan {
		if err := h.RegisterFunc(b.KeyCombination, h.callback(b)); err != nil {
			h.logger.Warn("failed to grab keybind", "key", b.KeyCombination, "error", err)
			continue
		}
		h.bound = append(h.bound, b)
	}
	h.logger.Info("hotkeys registered", "count", len(h.bound))
	return nil
}

// Reload re-reads the stored keybinds. Errors are logged.
func (h *Handler) Reload() {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()
	if err := h.Load(ctx); err != nil {
		h.logger.Error("failed to reload hotkeys", "error", err)
	}
}

// Bound returns the bindings currently in effect.
func (h *Handler) Bound() []Binding {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Binding, len(h.bound))
	copy(out, h.bound)
	return out
}

// Trigger runs the command bound to combo as if the key was pressed.
func (h *Handler) Trigger(combo string) bool {
	for _, b := range h.Bound() {
		if b.KeyCombination == combo {
			h.callback(b)()
			return true
		}
	}
	return false
}

func (h *Handler) callback(b Binding) func() {
	return func() {
		h.logger.Debug("hotkey triggered", "key", b.KeyCombination, "command", b.Command)
		ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
		defer cancel()
		if err := h.dispatcher.Dispatch(ctx, b.Command); err != nil {
			h.logger.Warn("hotkey command failed", "key", b.KeyCombination, "command", b.Command, "error", err)
		}
	}
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
