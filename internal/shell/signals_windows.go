//go:build windows
// +build windows

package shell

import "os"

// winchSignals empty on Windows (no SIGWINCH)
var winchSignals = []os.Signal{}
