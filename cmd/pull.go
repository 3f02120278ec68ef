package cmd

import (
	"fmt"

	"adb-commander/internal/transfer"
	"adb-commander/internal/util"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var pullCmd = &cobra.Command{
	Use:   "pull <remote-path> <local-path>",
	Short: "Copy a file from the device",
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

		job, err := app.coord.Pull(ctx, serial, args[0], args[1])
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		waitAndReport(job)
	},
}

// waitAndReport streams progress to the terminal and prints the terminal
// result of a job.
func waitAndReport(job *transfer.Job) {
	updates := job.Progress()
	for {
		select {
		case p, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			if p.Total > 0 {
				util.Default.Printf("\r⏳ %s / %s (%d%%)",
					humanize.Bytes(uint64(p.Bytes)),
					humanize.Bytes(uint64(p.Total)),
					p.Bytes*100/p.Total)
			} else {
				util.Default.Printf("\r⏳ %s", humanize.Bytes(uint64(p.Bytes)))
			}
		case res := <-job.Done():
			util.Default.Printf("\r")
			switch res.State {
			case transfer.StateCompleted:
				util.Default.Printf("✅ %s -> %s (%s)\n", res.Source, res.Dest, humanize.Bytes(uint64(res.Bytes)))
			case transfer.StateCancelled:
				util.Default.Printf("⏹ cancelled: %s\n", res.Source)
			default:
				util.Default.Printf("❌ %s: %v\n", res.Source, res.Err)
			}
			return
		}
	}
}
