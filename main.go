package main

import (
	"context"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"adb-commander/cmd"
	"adb-commander/internal/config"
	"adb-commander/internal/events"
	"adb-commander/internal/util"

	gspt "github.com/erikdubbelboer/gspt"

	"golang.org/x/term"
)

// truncateToBytes truncates s to at most max bytes without splitting UTF-8 runes.
func truncateToBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	var b []byte
	for _, r := range s {
		rb := []byte(string(r))
		if len(b)+len(rb) > max {
			break
		}
		b = append(b, rb...)
	}
	if len(b) == 0 {
		return s[:max]
	}
	return string(b)
}

func main() {
	// Ensure .adbc_temp/logs directory exists for logging
	if err := os.MkdirAll(".adbc_temp/logs", 0755); err != nil {
		log.Fatalf("failed to create .adbc_temp/logs directory: %v", err)
	}

	f, err := os.OpenFile(".adbc_temp/logs/adb-commander.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("failed to open log file: %v", err)
	}
	defer f.Close()

	// All log output goes to the file; the terminal belongs to the UI.
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	// Process title preference order:
	// 1) project_name in adb-commander.yaml via internal/config
	// 2) PROC_TITLE env var
	// 3) default "adb-commander"
	var procTitle string
	if cfg, err := config.LoadConfig(); err == nil && cfg.ProjectName != "" {
		procTitle = cfg.ProjectName
	} else if t := os.Getenv("PROC_TITLE"); t != "" {
		procTitle = t
	} else {
		procTitle = "adb-commander"
	}
	procTitle = strings.Join(strings.Fields(procTitle), "-")
	// PR_SET_NAME (Linux comm) limited to 16 bytes including NUL, so keep ~15 bytes
	procTitle = truncateToBytes(procTitle, 15)
	gspt.SetProcTitle(procTitle)

	// Capture original terminal state (if stdin is a TTY) so we can restore on forced exit.
	var origState *term.State
	if fi, _ := os.Stdin.Stat(); (fi.Mode() & os.ModeCharDevice) != 0 {
		if st, err := term.GetState(int(os.Stdin.Fd())); err == nil {
			origState = st
		}
	}

	forceExit := func(code int) {
		if origState != nil {
			_ = term.Restore(int(os.Stdin.Fd()), origState)
		}
		os.Exit(code)
	}

	// Context used to issue graceful cancellation to the command tree.
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	done := make(chan struct{})
	shutdown := make(chan struct{})

	// Listen for shutdown events from components via EventBus; it may
	// fire more than once (watcher bridge loss, then user exit)
	var shutdownOnce sync.Once
	events.GlobalBus.Subscribe(events.EventShutdownRequested, func(reason string) {
		log.Printf("shutdown requested from component: %s\n", reason)
		shutdownOnce.Do(func() {
			cancel() // signal all routines via context
			close(shutdown)
		})
	})

	// Run the CLI in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = cmd.ExecuteContext(ctx)
		close(done)
	}()

waitLoop:
	for {
		select {
		case <-shutdown:
			// Component requested shutdown via EventBus
			select {
			case <-done:
				log.Println("goroutine exited cleanly after component shutdown")
				break waitLoop
			case <-time.After(5 * time.Second):
				log.Println("timeout waiting for goroutine after component shutdown, forcing exit")
				forceExit(1)
			}
		case <-done:
			// finished normally before any shutdown request
			log.Println("goroutine finished; exiting.")
			util.Default.ClearLine()
			break waitLoop
		}
	}

	wg.Wait()

	// Restore terminal before normal exit if it was changed (best-effort)
	if origState != nil {
		_ = term.Restore(int(os.Stdin.Fd()), origState)
	}
}
