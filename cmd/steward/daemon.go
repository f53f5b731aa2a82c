package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/steward/internal/daemon"
	"github.com/1broseidon/steward/internal/logging"
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the steward daemon (foreground)",
	Long:  "Open the startup windows and serve commands until the main window is destroyed or the process receives SIGINT or SIGTERM. SIGHUP reloads the keybinds.",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().String("backend", "", "Override the configured backend (x11, headless)")
	daemonCmd.Flags().String("log-level", "", "Override the configured log level")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	res, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg := res.Config
	if backend, _ := cmd.Flags().GetString("backend"); backend != "" {
		cfg.Backend = backend
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	logger.Info("configuration loaded", "files", res.Files, "backend", cfg.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	socket, _ := cmd.Flags().GetString("socket")
	app, err := daemon.New(ctx, daemon.Options{
		Config:     cfg,
		SocketPath: socket,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				logger.Info("received SIGHUP, reloading keybinds")
				if err := app.Service().ReloadKeybinds(ctx); err != nil {
					logger.Warn("keybind reload failed", "error", err)
				}
			}
		}
	}()

	return app.Run(ctx)
}
