package util

import (
	"sync"

	"golang.org/x/term"
)

var rawMu sync.Mutex
var rawStates = map[int]*term.State{}

// EnableRaw enables raw mode on fd and returns a restore function.
// Restore is safe to call multiple times.
func EnableRaw(fd int) (func() error, error) {
	rawMu.Lock()
	defer rawMu.Unlock()

	if !term.IsTerminal(fd) {
		return func() error { return nil }, nil
	}
	if _, ok := rawStates[fd]; ok {
		// already raw; return noop restore
		return func() error { return nil }, nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	rawStates[fd] = state

	once := sync.Once{}
	restore := func() error {
		var rerr error
		once.Do(func() {
			rawMu.Lock()
			defer rawMu.Unlock()
			if st, ok := rawStates[fd]; ok {
				rerr = term.Restore(fd, st)
				delete(rawStates, fd)
			}
		})
		return rerr
	}
	return restore, nil
}
