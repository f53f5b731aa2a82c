package platform

import (
	"context"
	"fmt"
	"sync"
)

// HeadlessWindow is the recorded state of a window in the headless backend.
type HeadlessWindow struct {
	ID      WindowID
	Spec    WindowSpec
	Visible bool
	Focused bool
	// Regions is nil until input regions were applied at least once.
	Regions []Rect
}

// Headless is an in-memory Session. It keeps every window's state so the
// daemon can run without a display, and lets callers inject window-manager
// events and failures.
type Headless struct {
	mu       sync.Mutex
	nextID   WindowID
	windows  map[WindowID]*HeadlessWindow
	handlers map[EventKind][]EventHandler
	created  int

	// Injected failures, read on each call.
	CreateErr error
	FocusErr  error
	ShapeErr  error
}

var _ Session = (*Headless)(nil)

// NewHeadless creates an empty headless backend.
func NewHeadless() *Headless {
	return &Headless{
		nextID:   1,
		windows:  make(map[WindowID]*HeadlessWindow),
		handlers: make(map[EventKind][]EventHandler),
	}
}

func (h *Headless) CreateWindow(spec WindowSpec) (WindowID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.CreateErr != nil {
		return 0, h.CreateErr
	}
	if spec.Width < 1 || spec.Height < 1 {
		return 0, fmt.Errorf("invalid window size %dx%d", spec.Width, spec.Height)
	}

	id := h.nextID
	h.nextID++
	h.created++
	w := &HeadlessWindow{
		ID:      id,
		Spec:    spec,
		Visible: spec.Visible,
	}
	if spec.ClickThrough {
		w.Regions = []Rect{}
	}
	h.windows[id] = w
	return id, nil
}

func (h *Headless) Show(id WindowID) error {
	return h.update(id, func(w *HeadlessWindow) error {
		w.Visible = true
		return nil
	})
}

func (h *Headless) Hide(id WindowID) error {
	return h.update(id, func(w *HeadlessWindow) error {
		w.Visible = false
		w.Focused = false
		return nil
	})
}

func (h *Headless) Focus(id WindowID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	w, ok := h.windows[id]
	if !ok {
		return fmt.Errorf("focus window %d: %w", id, ErrWindowNotFound)
	}
	if h.FocusErr != nil {
		return h.FocusErr
	}
	for _, other := range h.windows {
		other.Focused = false
	}
	w.Visible = true
	w.Focused = true
	return nil
}

// Destroy removes the window and emits EventDestroyed, as the X server does
// for client-initiated destruction.
func (h *Headless) Destroy(id WindowID) error {
	h.mu.Lock()
	if _, ok := h.windows[id]; !ok {
		h.mu.Unlock()
		return fmt.Errorf("destroy window %d: %w", id, ErrWindowNotFound)
	}
	delete(h.windows, id)
	h.mu.Unlock()

	h.emit(Event{Kind: EventDestroyed, Window: id})
	return nil
}

func (h *Headless) Exists(id WindowID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.windows[id]
	return ok
}

func (h *Headless) Subscribe(kind EventKind, handler EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[kind] = append(h.handlers[kind], handler)
}

func (h *Headless) ApplyInputRegions(id WindowID, regions []Rect) error {
	return h.update(id, func(w *HeadlessWindow) error {
		if h.ShapeErr != nil {
			return h.ShapeErr
		}
		w.Regions = append(make([]Rect, 0, len(regions)), regions...)
		return nil
	})
}

// Run blocks until ctx is cancelled.
func (h *Headless) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

func (h *Headless) Close() {}

// RequestClose simulates the user closing a window from the window manager.
func (h *Headless) RequestClose(id WindowID) {
	h.emit(Event{Kind: EventCloseRequested, Window: id})
}

// Vanish simulates a window destroyed outside the application's control.
func (h *Headless) Vanish(id WindowID) {
	h.mu.Lock()
	_, ok := h.windows[id]
	delete(h.windows, id)
	h.mu.Unlock()

	if ok {
		h.emit(Event{Kind: EventDestroyed, Window: id})
	}
}

// Drop forgets a window without emitting any event, like a window whose
// DestroyNotify was lost.
func (h *Headless) Drop(id WindowID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.windows, id)
}

// Window returns a copy of a window's recorded state.
func (h *Headless) Window(id WindowID) (HeadlessWindow, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	w, ok := h.windows[id]
	if !ok {
		return HeadlessWindow{}, false
	}
	cp := *w
	if w.Regions != nil {
		cp.Regions = append(make([]Rect, 0, len(w.Regions)), w.Regions...)
	}
	return cp, true
}

// Count returns the number of live windows.
func (h *Headless) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.windows)
}

// Created returns how many windows were ever created.
func (h *Headless) Created() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.created
}

func (h *Headless) update(id WindowID, fn func(*HeadlessWindow) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	w, ok := h.windows[id]
	if !ok {
		return fmt.Errorf("window %d: %w", id, ErrWindowNotFound)
	}
	return fn(w)
}

func (h *Headless) emit(ev Event) {
	h.mu.Lock()
	handlers := append([]EventHandler(nil), h.handlers[ev.Kind]...)
	h.mu.Unlock()

	for _, handler := range handlers {
		handler(ev)
	}
}
