//go:build windows
// +build windows

package pty

import (
	"errors"
	"os/exec"
)

// Start is not supported on Windows. Interactive shells require a real
// PTY; callers should fall back to plain exec on this platform.
func Start(cmd *exec.Cmd) (PTY, error) {
	return nil, errors.New("pty: interactive shell is not supported on windows")
}
