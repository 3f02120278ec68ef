package shell

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"golang.org/x/term"

	"adb-commander/internal/adb"
	"adb-commander/internal/pty"
	"adb-commander/internal/util"
)

// Session bridges the local terminal to an interactive shell on a device.
type Session struct {
	client *adb.Client
	serial string

	devicePTY   pty.PTY
	termRestore func() error
	ioCancel    chan bool
	ioOnce      sync.Once

	mu sync.RWMutex
}

// NewSession prepares an interactive shell session for the given device.
func NewSession(client *adb.Client, serial string) *Session {
	return &Session{
		client:   client,
		serial:   serial,
		ioCancel: make(chan bool),
	}
}

// Run starts `adb shell` in a PTY and bridges stdin/stdout to the local
// terminal. It blocks until the remote shell exits or Close is called.
func (s *Session) Run() error {
	isTTY := term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))

	cmd := s.client.Command(context.Background(), s.serial, "shell")
	pt, err := pty.Start(cmd)
	if err != nil {
		return fmt.Errorf("failed to start shell pty: %w", err)
	}
	s.mu.Lock()
	s.devicePTY = pt
	s.mu.Unlock()

	if isTTY {
		restore, err := util.EnableRaw(int(os.Stdin.Fd()))
		if err != nil {
			_ = pt.Close()
			return fmt.Errorf("failed to enable raw mode: %w", err)
		}
		s.termRestore = restore
		defer func() { _ = restore() }()

		// background prints would corrupt the raw-mode session
		if !util.Default.IsSuspended() {
			util.Default.Suspend()
			defer util.Default.Resume()
		}
	}

	// match PTY size to the current terminal and track resizes
	s.resize()
	winch := make(chan os.Signal, 1)
	if len(winchSignals) > 0 {
		signal.Notify(winch, winchSignals...)
		defer signal.Stop(winch)
		go func() {
			for {
				select {
				case <-winch:
					s.resize()
				case <-s.ioCancel:
					return
				}
			}
		}()
	}

	f := pt.File()

	// stdin -> device
	go func() {
		buf := make([]byte, 1024)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				if _, werr := f.Write(buf[:n]); werr != nil {
					s.ioOnce.Do(func() { close(s.ioCancel) })
					return
				}
			}
			if err != nil {
				s.ioOnce.Do(func() { close(s.ioCancel) })
				return
			}
		}
	}()

	// device -> stdout
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := f.Read(buf)
			if n > 0 {
				os.Stdout.Write(buf[:n])
			}
			if err != nil {
				s.ioOnce.Do(func() { close(s.ioCancel) })
				return
			}
		}
	}()

	err = cmd.Wait()
	s.ioOnce.Do(func() { close(s.ioCancel) })
	_ = pt.Close()
	return err
}

// Close tears down the PTY and restores the terminal.
func (s *Session) Close() {
	s.ioOnce.Do(func() { close(s.ioCancel) })
	s.mu.RLock()
	pt := s.devicePTY
	s.mu.RUnlock()
	if pt != nil {
		_ = pt.Close()
	}
	if s.termRestore != nil {
		_ = s.termRestore()
	}
}

func (s *Session) resize() {
	s.mu.RLock()
	pt := s.devicePTY
	s.mu.RUnlock()
	if pt == nil {
		return
	}
	if w, h, err := term.GetSize(int(os.Stdin.Fd())); err == nil {
		_ = pt.SetSize(h, w)
	}
}
