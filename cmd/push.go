package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pushCmd = &cobra.Command{
	Use:   "push <local-path> <remote-path>",
	Short: "Copy a file to the device",
	Args:  cobra.ExactArgs(2),
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

		job, err := app.coord.Push(ctx, serial, args[0], args[1])
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		waitAndReport(job)
	},
}
