package main

import (
	"fmt"

	"github.com/1broseidon/steward/internal/palette"
	"github.com/spf13/cobra"
)

var paletteCmd = &cobra.Command{
	Use:   "palette",
	Short: "Pick a steward command from rofi, fuzzel, wofi or dmenu",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("backend")
		backend, err := palette.NewBackend(name)
		if err != nil {
			return err
		}
		toolbar, _ := cmd.Flags().GetString("window")

		action, err := palette.NewLauncher(backend, newClient(cmd), toolbar).Run(cmd.Context())
		if err != nil {
			return err
		}
		if action != "" {
			fmt.Fprintln(cmd.OutOrStdout(), action)
		}
		return nil
	},
}

func init() {
	paletteCmd.Flags().String("backend", "auto", "Palette backend (auto, rofi, fuzzel, wofi, dmenu)")
	paletteCmd.Flags().String("window", "toolbar", "Label of the toolbar window")
	rootCmd.AddCommand(paletteCmd)
}
