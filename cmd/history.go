package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent transfers",
	Run: func(cmd *cobra.Command, args []string) {
		app, err := newApp()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			return
		}
		defer app.Close()
		printHistory(app, flagSerial, historyLimit)
	},
}

func printHistory(a *app, serial string, limit int) {
	if a.store == nil {
		fmt.Println("History database unavailable")
		return
	}
	records, err := a.store.RecentTransfers(serial, limit)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	if len(records) == 0 {
		fmt.Println("No transfers recorded yet")
		return
	}
	for _, r := range records {
		marker := "✅"
		switch r.State {
		case "failed":
			marker = "❌"
		case "cancelled":
			marker = "⏹"
		}
		fmt.Printf("%s %s  %-4s %s -> %s (%s, %s)\n",
			marker, r.CreatedAt.Format("2006-01-02 15:04"), r.Direction,
			r.Source, r.Dest, humanize.Bytes(uint64(r.Bytes)),
			humanize.Time(r.CreatedAt))
		if r.Error != "" {
			fmt.Printf("   %s\n", r.Error)
		}
	}
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "max records to show")
}
