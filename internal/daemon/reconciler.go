package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/steward/internal/platform"
	"github.com/1broseidon/steward/internal/window"
	"github.com/jonboulle/clockwork"
)

// Tracker lists the windows the registry believes are alive.
type Tracker interface {
	Snapshot() []window.Handle
}

// Prober asks the window system whether a window still exists.
type Prober interface {
	Exists(id platform.WindowID) bool
}

// GoneFunc is called for a registered window that no longer exists.
type GoneFunc func(id platform.WindowID)

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Clock    clockwork.Clock
	Logger   *slog.Logger
}

// Reconciler periodically checks for windows that disappeared without a
// destroy notification and hands them to gone.
type Reconciler struct {
	interval time.Duration
	clock    clockwork.Clock
	tracker  Tracker
	prober   Prober
	gone     GoneFunc
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, tracker Tracker, prober Prober, gone GoneFunc) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		interval: interval,
		clock:    clock,
		tracker:  tracker,
		prober:   prober,
		gone:     gone,
		logger:   logger,
	}
}

// Run starts the reconciliation loop. Blocks until context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return
		case <-ticker.Chan():
			r.reconcile()
		}
	}
}

// reconcile performs a single reconciliation pass and returns how many
// windows were found missing.
func (r *Reconciler) reconcile() (missing int) {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("reconciler panic recovered", "error", err)
		}
	}()

	for _, h := range r.tracker.Snapshot() {
		if r.prober.Exists(h.ID) {
			continue
		}
		r.logger.Info("reconciler: window vanished without notification",
			"label", h.Label,
			"window_id", h.ID)
		missing++
		r.gone(h.ID)
	}
	return missing
}

// ReconcileNow triggers an immediate reconciliation pass.
func (r *Reconciler) ReconcileNow() int {
	return r.reconcile()
}
