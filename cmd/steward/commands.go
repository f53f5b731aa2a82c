package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/1broseidon/steward/internal/command"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := newClient(cmd).GetStatus()
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		}
		printStatus(cmd.OutOrStdout(), status)
		return nil
	},
}

var greetCmd = &cobra.Command{
	Use:   "greet NAME",
	Short: "Ask the daemon for a greeting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := newClient(cmd).Greet(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage the settings window",
}

var settingsOpenCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the settings window, or focus it if already open",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient(cmd).OpenOrFocusSettings()
	},
}

var mainCmd = &cobra.Command{
	Use:   "main",
	Short: "Show or hide the main window",
}

var mainShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show and focus the main window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient(cmd).ShowMain()
	},
}

var mainHideCmd = &cobra.Command{
	Use:   "hide",
	Short: "Hide the main window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient(cmd).HideMain()
	},
}

var quitCmd = &cobra.Command{
	Use:   "quit",
	Short: "Destroy the main window and end the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient(cmd).Quit()
	},
}

var toolbarCmd = &cobra.Command{
	Use:   "toolbar",
	Short: "Configure the toolbar overlay",
}

var toolbarRegionsCmd = &cobra.Command{
	Use:   "regions [X,Y,W,H ...]",
	Short: "Replace the toolbar's interactive regions",
	Long:  "Replace the toolbar's interactive regions. Pointer input outside every region passes through to the windows below. With no regions the whole toolbar is click-through.",
	RunE: func(cmd *cobra.Command, args []string) error {
		regions, err := parseRegions(args)
		if err != nil {
			return err
		}
		caller, _ := cmd.Flags().GetString("window")
		if err := newClient(cmd).ConfigureToolbarClickThrough(caller, regions); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d interactive region(s) set\n", len(regions))
		return nil
	},
}

var settingCmd = &cobra.Command{
	Use:   "setting",
	Short: "Read and write stored settings",
}

var settingGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print a stored setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := newClient(cmd).GetSetting(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	},
}

var settingSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Store a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient(cmd).SetSetting(args[0], args[1])
	},
}

var keybindCmd = &cobra.Command{
	Use:   "keybind",
	Short: "Manage global keybinds",
}

var keybindListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored keybinds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		binds, err := newClient(cmd).ListKeybinds()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tCOMMAND")
		for _, b := range binds {
			fmt.Fprintf(w, "%s\t%s\n", b.KeyCombination, b.Command)
		}
		return w.Flush()
	},
}

var keybindSetCmd = &cobra.Command{
	Use:   "set KEY COMMAND",
	Short: "Bind a key combination to a command",
	Long:  "Bind a key combination (e.g. Mod4-Mod1-s) to one of: " + strings.Join(command.Commands(), ", ") + ".",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient(cmd).SetKeybind(args[0], args[1])
	},
}

var keybindDeleteCmd = &cobra.Command{
	Use:   "delete KEY",
	Short: "Remove a keybind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient(cmd).DeleteKeybind(args[0])
	},
}

var keybindReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Re-grab keys from the stored keybinds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newClient(cmd).ReloadKeybinds()
	},
}

func init() {
	statusCmd.Flags().Bool("json", false, "Print status as JSON")
	toolbarRegionsCmd.Flags().String("window", "toolbar", "Label of the calling window")

	settingsCmd.AddCommand(settingsOpenCmd)
	mainCmd.AddCommand(mainShowCmd, mainHideCmd)
	toolbarCmd.AddCommand(toolbarRegionsCmd)
	settingCmd.AddCommand(settingGetCmd, settingSetCmd)
	keybindCmd.AddCommand(keybindListCmd, keybindSetCmd, keybindDeleteCmd, keybindReloadCmd)

	rootCmd.AddCommand(statusCmd, greetCmd, settingsCmd, mainCmd, quitCmd, toolbarCmd, settingCmd, keybindCmd)
}

func printStatus(w io.Writer, status *command.Status) {
	fmt.Fprintf(w, "Main window: %s\n", status.MainState)
	fmt.Fprintf(w, "Uptime: %ds\n", status.UptimeSeconds)
	fmt.Fprintf(w, "Click-through regions: %d\n", status.Regions)
	if len(status.Windows) == 0 {
		fmt.Fprintln(w, "Windows: none")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tKIND\tVISIBLE\tON TOP\tCLICK-THROUGH")
	for _, win := range status.Windows {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%t\t%t\n", win.Label, win.Kind, win.Visible, win.AlwaysOnTop, win.ClickThrough)
	}
	tw.Flush()
}

// parseRegions parses X,Y,W,H tuples.
func parseRegions(args []string) ([]command.RegionSpec, error) {
	regions := make([]command.RegionSpec, 0, len(args))
	for _, arg := range args {
		r, err := parseRegion(arg)
		if err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, nil
}

func parseRegion(s string) (command.RegionSpec, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return command.RegionSpec{}, fmt.Errorf("invalid region %q: expected X,Y,W,H", s)
	}
	var vals [4]int64
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return command.RegionSpec{}, fmt.Errorf("invalid region %q: %w", s, err)
		}
		vals[i] = v
	}
	if vals[2] < 0 || vals[3] < 0 {
		return command.RegionSpec{}, fmt.Errorf("invalid region %q: width and height must not be negative", s)
	}
	return command.RegionSpec{
		X:      int(vals[0]),
		Y:      int(vals[1]),
		Width:  uint32(vals[2]),
		Height: uint32(vals[3]),
	}, nil
}
