package cmd

import (
	"fmt"

	"adb-commander/internal/shell"

	"github.com/spf13/cobra"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Open an interactive shell on the device",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		defer app.Close()

		serial, err := resolveSerial(cmd.Context(), app)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}

		sess := shell.NewSession(app.client, serial)
		if err := sess.Run(); err != nil {
			fmt.Printf("shell exited: %v\n", err)
		}
	},
}
