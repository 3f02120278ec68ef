package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <remote-path>",
	Short: "Create a directory on the device",
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
		if err := app.client.Mkdir(ctx, serial, args[0]); err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		fmt.Printf("✅ created %s\n", args[0])
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <remote-src> <remote-dest>",
	Short: "Move or rename a file on the device",
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
		if err := app.client.Rename(ctx, serial, args[0], args[1]); err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		fmt.Printf("✅ %s -> %s\n", args[0], args[1])
	},
}

var rmForce bool

var rmCmd = &cobra.Command{
	Use:   "rm <remote-path>",
	Short: "Delete a file or directory tree on the device",
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
		if !rmForce {
			fmt.Printf("refusing to delete %s without --force\n", args[0])
			return
		}
		if err := app.client.Remove(ctx, serial, args[0]); err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		fmt.Printf("✅ removed %s\n", args[0])
	},
}

func init() {
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "actually delete")
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(rmCmd)
}
