package cmd

import (
	"context"
	"fmt"
	"strings"

	"adb-commander/internal/adb"
	"adb-commander/internal/events"
	"adb-commander/internal/util"

	"github.com/spf13/cobra"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List connected devices",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		defer app.Close()
		printDevices(cmd.Context(), app)
	},
}

func printDevices(ctx context.Context, a *app) {
	devices, err := a.client.Devices(ctx)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	if len(devices) == 0 {
		fmt.Println("No devices connected")
		return
	}
	var b strings.Builder
	for _, d := range devices {
		marker := "✅"
		switch d.State {
		case adb.StateOffline:
			marker = "💤"
		case adb.StateUnauthorized:
			marker = "🔒"
		}
		fmt.Fprintf(&b, "%s %-24s %-14s %s\n", marker, d.Serial, d.State, d.Model)
		if a.store != nil && d.State == adb.StateOnline {
			a.store.TouchDevice(d.Serial, d.Model)
		}
	}
	util.Default.PrintBlock(b.String(), false)
	events.GlobalBus.Publish(events.EventDevicesRefreshed, devices)
}
