package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pairCmd = &cobra.Command{
	Use:   "pair <host:port> <code>",
	Short: "Pair with a device over wireless debugging",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		defer app.Close()

		out, err := app.client.Pair(cmd.Context(), args[0], args[1])
		if err != nil {
			fmt.Printf("❌ pairing failed: %v\n", err)
			return
		}
		fmt.Printf("✅ %s\n", out)
	},
}
