//go:build !windows
// +build !windows

package pty

import (
	"os"
	"os/exec"

	creackpty "github.com/creack/pty"
)

// unixPTY wraps the *os.File returned by creack/pty.
type unixPTY struct {
	f   *os.File
	cmd *exec.Cmd
}

// Start runs cmd with its controlling terminal attached to a new PTY.
func Start(cmd *exec.Cmd) (PTY, error) {
	f, err := creackpty.Start(cmd)
	if err != nil {
		return nil, err
	}
	return &unixPTY{f: f, cmd: cmd}, nil
}

func (p *unixPTY) Close() error {
	err := p.f.Close()
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	return err
}

func (p *unixPTY) File() *os.File { return p.f }

func (p *unixPTY) SetSize(rows, cols int) error {
	return creackpty.Setsize(p.f, &creackpty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
}
