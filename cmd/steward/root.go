package main

import (
	"fmt"
	"os"

	"github.com/1broseidon/steward/internal/config"
	"github.com/1broseidon/steward/internal/ipc"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "steward",
	Short:         "Desktop overlay window session coordinator",
	Long:          "steward keeps a main window, a click-through toolbar overlay and a settings window in one session, and exposes their commands over IPC and MCP.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().String("config", "", "Config file path (default: ~/.config/steward/config.yaml)")
	rootCmd.PersistentFlags().String("socket", "", "IPC socket path (default: $XDG_RUNTIME_DIR/steward/steward.sock)")
}

// loadConfig loads the config named by --config, or the default location.
func loadConfig(cmd *cobra.Command) (*config.LoadResult, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

// newClient returns an IPC client for --socket, or the default socket.
func newClient(cmd *cobra.Command) *ipc.Client {
	if path, _ := cmd.Flags().GetString("socket"); path != "" {
		return ipc.NewClientWithPath(path)
	}
	return ipc.NewClient()
}
