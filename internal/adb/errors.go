package adb

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies adapter and transfer failures. The presentation layer is
// the only place a Kind is turned into a user-facing message.
type Kind int

const (
	KindUnknown Kind = iota
	KindBridgeUnavailable
	KindDeviceUnavailable
	KindDeviceDisconnected
	KindDeviceBusy
	KindPathNotFound
	KindNotADirectory
	KindPermissionDenied
	KindDestinationExists
	KindIOError
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindBridgeUnavailable:
		return "bridge unavailable"
	case KindDeviceUnavailable:
		return "device unavailable"
	case KindDeviceDisconnected:
		return "device disconnected"
	case KindDeviceBusy:
		return "device busy"
	case KindPathNotFound:
		return "path not found"
	case KindNotADirectory:
		return "not a directory"
	case KindPermissionDenied:
		return "permission denied"
	case KindDestinationExists:
		return "destination exists"
	case KindIOError:
		return "i/o error"
	case KindCancelled:
		return "cancelled"
	}
	return "unknown error"
}

// Error is the typed failure returned by the adapter and the transfer
// coordinator. It is always returned, never thrown across goroutines.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a typed error for op on path.
func NewError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf extracts the Kind from err, or KindUnknown.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}

// classifyOutput maps adb stderr/stdout text to an error kind. adb reports
// remote shell failures on stdout and host-side failures on stderr, so both
// streams are inspected together.
func classifyOutput(out string) Kind {
	low := strings.ToLower(out)
	switch {
	case strings.Contains(low, "no such file or directory"):
		return KindPathNotFound
	case strings.Contains(low, "does not exist"):
		return KindPathNotFound
	case strings.Contains(low, "permission denied"):
		return KindPermissionDenied
	case strings.Contains(low, "not a directory"):
		return KindNotADirectory
	case strings.Contains(low, "device offline"):
		return KindDeviceUnavailable
	case strings.Contains(low, "device unauthorized"):
		return KindDeviceUnavailable
	case strings.Contains(low, "not found") && strings.Contains(low, "device"):
		return KindDeviceUnavailable
	case strings.Contains(low, "no devices/emulators found"):
		return KindDeviceUnavailable
	case strings.Contains(low, "read-only file system"):
		return KindPermissionDenied
	case strings.Contains(low, "no space left"):
		return KindIOError
	}
	return KindUnknown
}
