package cmd

import (
	"context"
	"fmt"
	"os"

	"adb-commander/internal/adb"
	"adb-commander/internal/config"
	"adb-commander/internal/history"
	"adb-commander/internal/transfer"
	"adb-commander/internal/util"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var flagSerial string

var rootCmd = &cobra.Command{
	Use:   "adb-commander",
	Short: "Android device file commander",
	Long: `A CLI tool for browsing Android devices over adb, transferring files
with progress, mirroring local directories, and opening device shells.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		app, err := newApp()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		defer app.Close()

		if !app.client.Available() {
			fmt.Println("❌ adb binary not found")
			fmt.Println("💡 Install platform-tools or set adb_path in " + config.ConfigFileName)
			return
		}
		if v, err := app.client.Version(ctx); err == nil {
			fmt.Printf("🔌 %s\n", v)
		}

		for {
			select {
			case <-ctx.Done():
				fmt.Println("⏹ Cancelled")
				return
			default:
			}
			if !showMainMenu(ctx, app) {
				return
			}
		}
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize config file",
	Long:  `Generate a default adb-commander.yaml config file in the current directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		if config.ConfigExists() {
			fmt.Println("Config file already exists.")
			return
		}
		if err := config.WriteDefault(); err != nil {
			fmt.Printf("❌ Error writing config: %v\n", err)
			return
		}
		fmt.Printf("✅ Created %s\n", config.GetConfigPath())
	},
}

// app bundles the shared wiring every command needs.
type app struct {
	cfg    *config.Config
	client *adb.Client
	coord  *transfer.Coordinator
	store  *history.Store
}

func newApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	client := adb.NewClient(cfg.AdbPath)

	opts := []transfer.Option{
		transfer.WithOverwrite(cfg.Overwrite),
		transfer.WithProgressInterval(cfg.ProgressInterval()),
	}
	store, err := history.Open(history.DefaultPath())
	if err == nil {
		opts = append(opts, transfer.WithRecorder(store))
	}

	return &app{
		cfg:    cfg,
		client: client,
		coord:  transfer.NewCoordinator(client, opts...),
		store:  store,
	}, nil
}

func (a *app) Close() {
	if a.store != nil {
		a.store.Close()
	}
}

// resolveSerial picks the device to talk to: the --serial flag, the
// configured default, a lone online device, or an interactive prompt.
func resolveSerial(ctx context.Context, a *app) (string, error) {
	if flagSerial != "" {
		return flagSerial, nil
	}
	if a.cfg.DefaultSerial != "" {
		return a.cfg.DefaultSerial, nil
	}

	devices, err := a.client.Devices(ctx)
	if err != nil {
		return "", err
	}
	var online []adb.Device
	for _, d := range devices {
		if d.State == adb.StateOnline {
			online = append(online, d)
		}
	}
	switch len(online) {
	case 0:
		showRecentDevices(a)
		return "", adb.NewError(adb.KindDeviceUnavailable, "devices", "", fmt.Errorf("no online devices"))
	case 1:
		return online[0].Serial, nil
	}

	items := make([]string, 0, len(online))
	for _, d := range online {
		if d.Model == "" {
			// devices -l omits the model on some builds
			d.Model = a.client.DeviceModel(ctx, d.Serial)
		}
		items = append(items, d.Label())
	}

	util.Default.Suspend()
	prompt := promptui.Select{
		Label: "Select a device",
		Items: items,
	}
	idx, _, err := prompt.Run()
	util.Default.Resume()
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	picked := online[idx]
	if a.store != nil {
		a.store.TouchDevice(picked.Serial, picked.Model)
	}
	return picked.Serial, nil
}

// showRecentDevices reminds the user which devices worked before when
// nothing is currently connected.
func showRecentDevices(a *app) {
	if a.store == nil {
		return
	}
	recent, err := a.store.RecentDevices(5)
	if err != nil || len(recent) == 0 {
		return
	}
	fmt.Println("Previously used devices:")
	for _, d := range recent {
		fmt.Printf("  %s  %s (last seen %s)\n", d.Serial, d.Model, d.LastSeen.Format("2006-01-02 15:04"))
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// ExecuteContext allows running the root command with a supplied context for cancellation.
func ExecuteContext(ctx context.Context) error {
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagSerial, "serial", "s", "", "device serial to target")
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(historyCmd)
}
