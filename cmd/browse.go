package cmd

import (
	"fmt"

	"adb-commander/internal/tui"

	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse [remote-path]",
	Short: "Interactive device file browser",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		defer app.Close()

		ctx := cmd.Context()
		serial, err := resolveSerial(ctx, app)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}

		start := app.cfg.RemoteStartPath
		if len(args) == 1 {
			start = args[0]
		}
		if err := tui.Browse(app.client, app.coord, serial, start, app.cfg.LocalDir); err != nil {
			fmt.Printf("❌ %v\n", err)
		}
	},
}
