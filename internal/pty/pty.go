package pty

import (
	"os"
)

// PTY is a handle on the controlling side of a pseudo-terminal running an
// attached child process. IO goes through File directly; Close also kills
// the child.
type PTY interface {
	Close() error
	File() *os.File
	SetSize(rows, cols int) error
}
