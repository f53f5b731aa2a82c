package clickthrough

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/1broseidon/steward/internal/platform"
	"github.com/1broseidon/steward/internal/window"
)

// Targets resolves labels to live windows.
type Targets interface {
	Get(label string) (window.Handle, bool)
}

// Engine owns the active region set of the click-through window and pushes
// it to the platform input shaper.
type Engine struct {
	targets Targets
	shaper  platform.InputShaper
	logger  *slog.Logger

	// mu serializes writers; readers only load active.
	mu     sync.Mutex
	active atomic.Pointer[RegionSet]
	label  string
}

// NewEngine creates an engine with an empty (fully click-through) set.
func NewEngine(targets Targets, shaper platform.InputShaper, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		targets: targets,
		shaper:  shaper,
		logger:  logger,
	}
	e.active.Store(&RegionSet{})
	return e
}

// SetRegions replaces the region set of the window labelled label and
// reprograms its input shape. The new set takes effect only if the platform
// accepted it; otherwise the previous set stays in force.
func (e *Engine) SetRegions(label string, regions RegionSet) error {
	h, err := e.target(label)
	if err != nil {
		return err
	}
	if i, err := regions.Validate(); err != nil {
		return window.NewError(window.InvalidRegion, label, fmt.Sprintf("region %d", i), err)
	}

	next := regions.Clone()
	if next == nil {
		next = RegionSet{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.shaper.ApplyInputRegions(h.ID, next.Rects()); err != nil {
		return fmt.Errorf("failed to apply input regions to %q: %w", label, err)
	}
	e.active.Store(&next)
	e.label = label

	e.logger.Debug("click-through regions updated", "label", label, "regions", len(next))
	return nil
}

// HitTest reports whether the window captures input at p. It never blocks
// on writers and always sees a complete set.
func (e *Engine) HitTest(p Point) bool {
	return e.active.Load().Contains(p)
}

// Regions returns a copy of the active set.
func (e *Engine) Regions() RegionSet {
	return e.active.Load().Clone()
}

// Reapply pushes the active set to the window labelled label again, e.g.
// after the window was recreated.
func (e *Engine) Reapply(label string) error {
	h, err := e.target(label)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	current := *e.active.Load()
	if err := e.shaper.ApplyInputRegions(h.ID, current.Rects()); err != nil {
		return fmt.Errorf("failed to reapply input regions to %q: %w", label, err)
	}
	e.label = label
	return nil
}

// Reset drops the active set once the window it belonged to is gone.
func (e *Engine) Reset(label string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.label != label {
		return
	}
	e.active.Store(&RegionSet{})
	e.label = ""
	e.logger.Debug("click-through regions reset", "label", label)
}

func (e *Engine) target(label string) (window.Handle, error) {
	h, ok := e.targets.Get(label)
	if !ok {
		return window.Handle{}, window.NewError(window.InvalidTarget, label, "no live window", nil)
	}
	if !h.ClickThrough {
		return window.Handle{}, window.NewError(window.InvalidTarget, label, "window is not configured for click-through", nil)
	}
	return h, nil
}
