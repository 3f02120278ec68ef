package cmd

import (
	"context"
	"fmt"

	"adb-commander/internal/events"
	"adb-commander/internal/shell"
	"adb-commander/internal/transfer"
	"adb-commander/internal/tui"
	"adb-commander/internal/util"
	"adb-commander/internal/watcher"

	"github.com/manifoldco/promptui"
)

// showMainMenu runs one round of the interactive menu. It returns false
// when the user chose to exit.
func showMainMenu(ctx context.Context, a *app) bool {
	items := []string{
		"browse :: Browse device files",
		"shell :: Open device shell",
		"watch :: Mirror local directory to device",
		"devices :: List connected devices",
		"history :: Recent transfers",
		"pair :: Pair wireless device",
		"Exit",
	}

	result, err := tui.ShowMenu(items, "adb-commander")
	if err != nil {
		fmt.Printf("Menu failed %v\n", err)
		return false
	}

	switch result {
	case "browse :: Browse device files":
		serial, err := resolveSerial(ctx, a)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return true
		}
		if err := tui.Browse(a.client, a.coord, serial, a.cfg.RemoteStartPath, a.cfg.LocalDir); err != nil {
			fmt.Printf("❌ browse: %v\n", err)
		}
		return true

	case "shell :: Open device shell":
		serial, err := resolveSerial(ctx, a)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return true
		}
		sess := shell.NewSession(a.client, serial)
		if err := sess.Run(); err != nil {
			fmt.Printf("shell exited: %v\n", err)
		}
		util.Default.ClearScreen()
		return true

	case "watch :: Mirror local directory to device":
		serial, err := resolveSerial(ctx, a)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return true
		}
		runWatch(ctx, a, serial)
		return true

	case "devices :: List connected devices":
		printDevices(ctx, a)
		return true

	case "history :: Recent transfers":
		printHistory(a, "", 20)
		return true

	case "pair :: Pair wireless device":
		runPairPrompt(ctx, a)
		return true

	default:
		// Exit or cancelled menu: let main tear the event loop down
		events.GlobalBus.Publish(events.EventShutdownRequested, "user exit")
		return false
	}
}

// runWatch starts the auto-push watcher and blocks until ctx is done.
// Mirroring re-pushes files on every change, so the watcher gets its own
// coordinator with overwrite always on.
func runWatch(ctx context.Context, a *app, serial string) {
	opts := []transfer.Option{
		transfer.WithOverwrite(true),
		transfer.WithProgressInterval(a.cfg.ProgressInterval()),
	}
	if a.store != nil {
		opts = append(opts, transfer.WithRecorder(a.store))
	}
	coord := transfer.NewCoordinator(a.client, opts...)

	w, err := watcher.NewWatcher(serial, coord, a.cfg.Watch)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	if err := w.Start(); err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	defer w.Stop()

	// the menu stays up while the watcher prints push results into its
	// log area; ctx cancellation quits the menu so it releases stdin
	if _, err := tui.ShowMenuWithPrints(ctx,
		[]string{"stop :: Stop watching"},
		fmt.Sprintf("Watching %s -> %s", a.cfg.Watch.LocalDir, a.cfg.Watch.RemoteDir),
	); err != nil {
		fmt.Printf("❌ %v\n", err)
	}
}

// runPairPrompt collects host:port and pairing code interactively.
func runPairPrompt(ctx context.Context, a *app) {
	util.Default.Suspend()
	defer util.Default.Resume()

	addrPrompt := promptui.Prompt{Label: "Device address (host:port)"}
	addr, err := addrPrompt.Run()
	if err != nil {
		return
	}
	codePrompt := promptui.Prompt{Label: "Pairing code"}
	code, err := codePrompt.Run()
	if err != nil {
		return
	}
	out, err := a.client.Pair(ctx, addr, code)
	if err != nil {
		fmt.Printf("❌ pairing failed: %v\n", err)
		return
	}
	fmt.Printf("✅ %s\n", out)
}
