package cmd

import (
	"fmt"

	"adb-commander/internal/adb"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls <remote-path>",
	Short: "List a directory on the device",
	Args:  cobra.ExactArgs(1),
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

		entries, err := app.client.List(ctx, serial, args[0])
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		for _, e := range entries {
			switch e.Kind {
			case adb.KindDirectory:
				fmt.Printf("%-10s %s/\n", "dir", e.Name)
			case adb.KindSymlink:
				fmt.Printf("%-10s %s -> %s\n", "link", e.Name, e.LinkTarget)
			default:
				fmt.Printf("%-10s %s\n", humanize.Bytes(uint64(e.Size)), e.Name)
			}
		}
	},
}
