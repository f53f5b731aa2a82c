package window

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/1broseidon/steward/internal/platform"
	"golang.org/x/sync/singleflight"
)

// Registry tracks live windows by label. All window creation goes through
// OpenOrFocus so a label never maps to more than one live window.
type Registry struct {
	backend platform.Backend
	logger  *slog.Logger

	mu      sync.Mutex
	windows map[string]*Handle
	byID    map[platform.WindowID]string

	onVanished []func(label string)

	// opening collapses concurrent OpenOrFocus calls for the same label.
	opening singleflight.Group
}

// NewRegistry creates an empty registry on top of a backend.
func NewRegistry(backend platform.Backend, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		backend: backend,
		logger:  logger,
		windows: make(map[string]*Handle),
		byID:    make(map[platform.WindowID]string),
	}
}

// OpenOrFocus brings the window for label to the foreground, creating it from
// cfg if no live window has that label. Focus failures are logged and never
// returned.
func (r *Registry) OpenOrFocus(label string, kind Kind, cfg Config) error {
	if label == "" {
		return NewError(CreationFailed, label, "empty label", nil)
	}
	_, err, shared := r.opening.Do(label, func() (any, error) {
		return nil, r.openOrFocus(label, kind, cfg)
	})
	if shared {
		r.logger.Debug("open request joined in-flight open", "label", label)
	}
	return err
}

func (r *Registry) openOrFocus(label string, kind Kind, cfg Config) error {
	if h, ok := r.Get(label); ok {
		err := r.raise(h)
		if err == nil {
			return nil
		}
		if r.backend.Exists(h.ID) {
			return err
		}
		r.logger.Warn("window vanished, recreating",
			"label", label,
			"error", NewError(FocusFailed, label, "window no longer exists", err))
		r.dropVanished(h)
	}

	return r.create(label, kind, cfg)
}

func (r *Registry) create(label string, kind Kind, cfg Config) error {
	id, err := r.backend.CreateWindow(cfg.spec(label))
	if err != nil {
		return NewError(CreationFailed, label, "", err)
	}

	r.mu.Lock()
	if existing, ok := r.windows[label]; ok {
		r.mu.Unlock()
		// Unreachable while creation only happens under the singleflight key,
		// but never let a second window survive.
		r.logger.Error("duplicate window created, destroying", "label", label, "id", id, "existing", existing.ID)
		_ = r.backend.Destroy(id)
		return nil
	}
	r.windows[label] = &Handle{
		Label:        label,
		Kind:         kind,
		ID:           id,
		Visible:      cfg.Visible,
		AlwaysOnTop:  cfg.AlwaysOnTop,
		ClickThrough: cfg.ClickThrough,
	}
	r.byID[id] = label
	r.mu.Unlock()

	r.logger.Info("window created", "label", label, "kind", kind, "id", id)
	return nil
}

// raise shows a live window and then tries to focus it. Only a failed show
// is returned; a focus failure leaves the window visible but unfocused.
func (r *Registry) raise(h Handle) error {
	if err := r.backend.Show(h.ID); err != nil {
		return fmt.Errorf("failed to show window %q: %w", h.Label, err)
	}

	focusErr := r.backend.Focus(h.ID)
	if focusErr != nil {
		r.logger.Warn("failed to focus window",
			"label", h.Label,
			"error", NewError(FocusFailed, h.Label, "", focusErr))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	live, ok := r.windows[h.Label]
	if !ok || live.ID != h.ID {
		return nil
	}
	live.Visible = true
	if focusErr != nil {
		live.Focused = false
		return nil
	}
	for _, other := range r.windows {
		other.Focused = false
	}
	live.Focused = true
	return nil
}

// dropVanished removes a stale entry and tells the vanish listeners, so state
// bound to the label is reset before the window is created again.
func (r *Registry) dropVanished(h Handle) {
	if _, ok := r.forgetID(h.ID); !ok {
		return
	}

	r.mu.Lock()
	hooks := append([]func(string){}, r.onVanished...)
	r.mu.Unlock()
	for _, hook := range hooks {
		hook(h.Label)
	}
}

// OnVanished registers fn to run when OpenOrFocus finds a registered window
// gone and drops its entry before recreating it.
func (r *Registry) OnVanished(fn func(label string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onVanished = append(r.onVanished, fn)
}

// Close removes the window from the registry and destroys it. Closing a
// label with no live window is a no-op.
func (r *Registry) Close(label string) error {
	r.mu.Lock()
	h, ok := r.windows[label]
	if ok {
		delete(r.windows, label)
		delete(r.byID, h.ID)
	}
	r.mu.Unlock()

	if !ok {
		return nil
	}

	if err := r.backend.Destroy(h.ID); err != nil && !errors.Is(err, platform.ErrWindowNotFound) {
		return fmt.Errorf("failed to destroy window %q: %w", label, err)
	}
	r.logger.Info("window closed", "label", label, "id", h.ID)
	return nil
}

// Show makes a live window visible again.
func (r *Registry) Show(label string) error {
	return r.setVisible(label, true)
}

// Hide hides a live window. The registry entry stays.
func (r *Registry) Hide(label string) error {
	return r.setVisible(label, false)
}

func (r *Registry) setVisible(label string, visible bool) error {
	h, ok := r.Get(label)
	if !ok {
		return fmt.Errorf("%q: %w", label, ErrNotFound)
	}

	var err error
	if visible {
		err = r.backend.Show(h.ID)
	} else {
		err = r.backend.Hide(h.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to set visibility of %q: %w", label, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if live, ok := r.windows[label]; ok && live.ID == h.ID {
		live.Visible = visible
		if !visible {
			live.Focused = false
		}
	}
	return nil
}

// Forget drops the entry for label without touching the OS window. Used once
// the window is already gone.
func (r *Registry) Forget(label string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.windows[label]
	if !ok {
		return false
	}
	delete(r.windows, label)
	delete(r.byID, h.ID)
	return true
}

// ForgetWindow drops the entry owning id and returns its label.
func (r *Registry) ForgetWindow(id platform.WindowID) (string, bool) {
	return r.forgetID(id)
}

func (r *Registry) forgetID(id platform.WindowID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	label, ok := r.byID[id]
	if !ok {
		return "", false
	}
	delete(r.byID, id)
	delete(r.windows, label)
	return label, true
}

// Get returns a snapshot of the window registered under label.
func (r *Registry) Get(label string) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.windows[label]
	if !ok {
		return Handle{}, false
	}
	return *h, true
}

// LabelFor maps a backend window id back to its label.
func (r *Registry) LabelFor(id platform.WindowID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	label, ok := r.byID[id]
	return label, ok
}

// Labels returns the labels of all live windows, sorted.
func (r *Registry) Labels() []string {
	r.mu.Lock()
	labels := make([]string, 0, len(r.windows))
	for label := range r.windows {
		labels = append(labels, label)
	}
	r.mu.Unlock()

	sort.Strings(labels)
	return labels
}

// Snapshot returns copies of all live handles, sorted by label.
func (r *Registry) Snapshot() []Handle {
	r.mu.Lock()
	handles := make([]Handle, 0, len(r.windows))
	for _, h := range r.windows {
		handles = append(handles, *h)
	}
	r.mu.Unlock()

	sort.Slice(handles, func(i, j int) bool { return handles[i].Label < handles[j].Label })
	return handles
}

// Len returns the number of live windows.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.windows)
}
