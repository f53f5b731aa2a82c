// Package daemon wires the session together and runs it until the main
// window is destroyed or the process is asked to stop.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/1broseidon/steward/internal/clickthrough"
	"github.com/1broseidon/steward/internal/command"
	"github.com/1broseidon/steward/internal/config"
	"github.com/1broseidon/steward/internal/hotkeys"
	"github.com/1broseidon/steward/internal/ipc"
	"github.com/1broseidon/steward/internal/lifecycle"
	"github.com/1broseidon/steward/internal/platform"
	"github.com/1broseidon/steward/internal/runtimepath"
	"github.com/1broseidon/steward/internal/store"
	"github.com/1broseidon/steward/internal/window"
	"github.com/jonboulle/clockwork"
)

// shutdownTimeout bounds the final settings flush.
const shutdownTimeout = 5 * time.Second

// Options configure an App. Zero values select the production defaults.
type Options struct {
	Config *config.Config
	// Session overrides the backend named by Config.Backend.
	Session platform.Session
	// Store overrides the database at Config.Database.
	Store      *store.Store
	SocketPath string
	PIDPath    string
	Clock      clockwork.Clock
	Logger     *slog.Logger
}

// App is one running session.
type App struct {
	cfg    *config.Config
	clock  clockwork.Clock
	logger *slog.Logger

	session     platform.Session
	ownsSession bool
	store       *store.Store
	ownsStore   bool
	settings    *store.BatchWriter

	registry     *window.Registry
	engine       *clickthrough.Engine
	coordinator  *lifecycle.Coordinator
	service      *command.Service
	hotkeys      *hotkeys.Handler
	synchronizer *StateSynchronizer
	reconciler   *Reconciler
	ipcServer    *ipc.Server
	pidPath      string

	cancel     context.CancelFunc
	sessionErr chan error
	terminated chan struct{}
	termOnce   sync.Once
	stopOnce   sync.Once
}

// New builds every component. Nothing is shown or grabbed until Start.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	a := &App{
		cfg:        cfg,
		clock:      clock,
		logger:     logger,
		pidPath:    opts.PIDPath,
		sessionErr: make(chan error, 1),
		terminated: make(chan struct{}),
	}

	a.store = opts.Store
	if a.store == nil {
		path := cfg.Database
		if path == "" {
			var err error
			if path, err = store.DefaultPath(); err != nil {
				return nil, err
			}
		}
		st, err := store.Open(ctx, path, logger)
		if err != nil {
			return nil, err
		}
		a.store = st
		a.ownsStore = true
	}
	if n, err := a.store.SeedKeybinds(ctx, cfg.Keybinds); err != nil {
		a.closeStore()
		return nil, fmt.Errorf("failed to seed keybinds: %w", err)
	} else if n > 0 {
		logger.Info("seeded default keybinds", "count", n)
	}
	a.settings = store.NewBatchWriter(a.store, cfg.SettingsFlushDelay, clock, logger)

	a.session = opts.Session
	if a.session == nil {
		session, err := platform.Open(cfg.Backend)
		if err != nil {
			a.closeStore()
			return nil, fmt.Errorf("failed to open %s backend: %w", cfg.Backend, err)
		}
		a.session = session
		a.ownsSession = true
	}

	mainCfg, _, err := cfg.Window(cfg.MainWindow)
	if err != nil {
		a.release()
		return nil, err
	}
	settingsCfg, _, err := cfg.Window(cfg.SettingsWindow)
	if err != nil {
		a.release()
		return nil, err
	}

	a.registry = window.NewRegistry(a.session, logger)
	a.engine = clickthrough.NewEngine(a.registry, a.session, logger)
	a.synchronizer = NewStateSynchronizer(a.engine, logger)
	a.coordinator = lifecycle.New(a.registry, lifecycle.Config{
		MainLabel:  cfg.MainWindow,
		MainWindow: mainCfg,
		Dependents: cfg.Dependents,
		Logger:     logger,
	})
	a.coordinator.OnWindowDestroyed(a.synchronizer.HandleWindowClosed)
	a.coordinator.OnTerminated(a.terminate)
	a.registry.OnVanished(a.coordinator.WindowDropped)

	a.service = command.NewService(command.Deps{
		Windows:           a.registry,
		Regions:           a.engine,
		Lifecycle:         a.coordinator,
		Settings:          a.settings,
		Keybinds:          a.store,
		SettingsLabel:     cfg.SettingsWindow,
		SettingsWindow:    settingsCfg,
		ToolbarLabel:      cfg.ToolbarWindow,
		OnKeybindsChanged: a.reloadHotkeys,
		Clock:             clock,
		Logger:            logger,
	})
	a.hotkeys = hotkeys.NewHandler(a.session, a.service, a.store, logger)

	a.reconciler = NewReconciler(ReconcilerConfig{
		Interval: cfg.ReconcileInterval,
		Clock:    clock,
		Logger:   logger,
	}, a.registry, a.session, a.coordinator.WindowGone)

	a.ipcServer, err = ipc.NewServer(opts.SocketPath, a.service, logger)
	if err != nil {
		a.release()
		return nil, err
	}

	return a, nil
}

// Service returns the command surface.
func (a *App) Service() *command.Service { return a.service }

// Registry returns the window registry.
func (a *App) Registry() *window.Registry { return a.registry }

// Engine returns the click-through engine.
func (a *App) Engine() *clickthrough.Engine { return a.engine }

// Coordinator returns the lifecycle coordinator.
func (a *App) Coordinator() *lifecycle.Coordinator { return a.coordinator }

// Terminated is closed once the main window is destroyed.
func (a *App) Terminated() <-chan struct{} { return a.terminated }

// Run starts the session and blocks until it ends.
func (a *App) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		a.Shutdown()
		return err
	}
	return a.Wait(ctx)
}

// Start opens the startup windows, restores the toolbar regions, grabs the
// hotkeys and begins serving IPC. It does not block.
func (a *App) Start(ctx context.Context) error {
	a.coordinator.Start(a.session)

	for _, label := range a.cfg.StartupWindows() {
		wc, kind, err := a.cfg.Window(label)
		if err != nil {
			return err
		}
		if err := a.registry.OpenOrFocus(label, kind, wc); err != nil {
			if label == a.cfg.MainWindow {
				return fmt.Errorf("failed to open main window: %w", err)
			}
			a.logger.Warn("failed to open startup window", "label", label, "error", err)
		}
	}

	if set, ok := a.service.SavedRegions(ctx); ok {
		if _, open := a.registry.Get(a.cfg.ToolbarWindow); open {
			if err := a.engine.SetRegions(a.cfg.ToolbarWindow, set); err != nil {
				a.logger.Warn("failed to restore click-through regions", "error", err)
			} else {
				a.logger.Info("restored click-through regions", "count", len(set))
			}
		}
	}

	if err := a.hotkeys.Load(ctx); err != nil {
		a.logger.Warn("failed to load hotkeys", "error", err)
	}

	if err := a.ipcServer.Start(); err != nil {
		return err
	}

	if a.pidPath == "" {
		if path, err := runtimepath.PIDPath(); err == nil {
			a.pidPath = path
		}
	}
	if a.pidPath != "" {
		if err := writePIDFile(a.pidPath); err != nil {
			a.logger.Warn("failed to write pid file", "error", err)
		}
	}

	runCtx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.reconciler.ReconcileNow()
	if a.cfg.ReconcileInterval > 0 {
		go a.reconciler.Run(runCtx)
	}

	go func() {
		a.sessionErr <- a.session.Run(runCtx)
	}()

	a.logger.Info("steward daemon started",
		"backend", a.cfg.Backend,
		"socket", a.ipcServer.SocketPath(),
		"windows", a.registry.Labels())
	return nil
}

// Wait blocks until ctx is done, the main window is destroyed or the window
// system connection fails, then shuts down.
func (a *App) Wait(ctx context.Context) error {
	var err error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down steward daemon")
	case <-a.terminated:
		a.logger.Info("main window destroyed, shutting down")
	case err = <-a.sessionErr:
		if err != nil {
			err = fmt.Errorf("window system event loop failed: %w", err)
		}
	}
	a.Shutdown()
	return err
}

// Shutdown stops serving and flushes pending settings. Safe to call twice.
func (a *App) Shutdown() {
	a.stopOnce.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		a.ipcServer.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.settings.Close(ctx); err != nil && !errors.Is(err, store.ErrClosed) {
			a.logger.Error("failed to flush settings", "error", err)
		}

		a.release()
		if a.pidPath != "" {
			removePIDFile(a.pidPath)
		}
	})
}

func (a *App) terminate() {
	a.termOnce.Do(func() { close(a.terminated) })
}

func (a *App) reloadHotkeys() {
	if a.hotkeys != nil {
		a.hotkeys.Reload()
	}
}

func (a *App) release() {
	if a.ownsSession && a.session != nil {
		a.session.Close()
	}
	a.closeStore()
}

func (a *App) closeStore() {
	if a.ownsStore && a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close database", "error", err)
		}
		a.ownsStore = false
	}
}
