package adb

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// Client wraps the external adb executable. All device and file state in
// the application flows through this type; nothing else is allowed to
// assume the text format of adb output.
type Client struct {
	Path string

	// CommandTimeout bounds quick commands (listings, stat, getprop).
	// Transfers manage their own contexts and are not subject to it.
	CommandTimeout time.Duration
}

// NewClient creates a client for the adb binary at path. An empty path
// triggers auto-detection.
func NewClient(path string) *Client {
	if path == "" {
		path = AutoDetect()
	}
	return &Client{Path: path, CommandTimeout: 10 * time.Second}
}

// bin resolves the executable to invoke, falling back to PATH lookup.
func (c *Client) bin() string {
	if c.Path != "" {
		return c.Path
	}
	return adbExecutableName()
}

// Available reports whether the adb executable can be located.
func (c *Client) Available() bool {
	if c.Path != "" {
		if _, err := os.Stat(c.Path); err == nil {
			return true
		}
	}
	if _, err := exec.LookPath(adbExecutableName()); err == nil {
		return true
	}
	return false
}

// Command builds an exec.Cmd for adb with the serial injected. Used by the
// transfer coordinator and the shell bridge, which need process-level
// control instead of captured output.
func (c *Client) Command(ctx context.Context, serial string, args ...string) *exec.Cmd {
	if strings.TrimSpace(serial) != "" {
		args = append([]string{"-s", serial}, args...)
	}
	cmd := exec.CommandContext(ctx, c.bin(), args...)
	cmd.Env = os.Environ()
	return cmd
}

// run executes adb and returns stdout and stderr separately so failures
// can be classified. A nil error means exit status zero.
func (c *Client) run(ctx context.Context, args ...string) (string, string, error) {
	if c.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.CommandTimeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, c.bin(), args...)
	cmd.Env = os.Environ()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return stdout.String(), stderr.String(),
				NewError(KindBridgeUnavailable, "adb", "", err)
		}
		log.Printf("adb %v failed: %v stderr=%q", args, err, stderr.String())
	}
	return stdout.String(), stderr.String(), err
}

// runSerial is run with "-s <serial>" injected when serial is non-empty.
func (c *Client) runSerial(ctx context.Context, serial string, args ...string) (string, string, error) {
	if strings.TrimSpace(serial) != "" {
		args = append([]string{"-s", serial}, args...)
	}
	return c.run(ctx, args...)
}

// classify turns a failed invocation into a typed error. fallback is used
// when neither stream carries a recognizable message.
func classify(op, path, stdout, stderr string, err error, fallback Kind) error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	kind := classifyOutput(stderr + "\n" + stdout)
	if kind == KindUnknown {
		kind = fallback
	}
	detail := strings.TrimSpace(stderr)
	if detail == "" {
		detail = strings.TrimSpace(stdout)
	}
	if detail != "" {
		err = errors.New(firstLine(detail))
	}
	return NewError(kind, op, path, err)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// Version returns the adb version banner.
func (c *Client) Version(ctx context.Context) (string, error) {
	out, errOut, err := c.run(ctx, "version")
	if err != nil {
		return "", classify("version", "", out, errOut, err, KindBridgeUnavailable)
	}
	return firstLine(out), nil
}

// EnsureServer starts the adb server if it's not already running.
func (c *Client) EnsureServer(ctx context.Context) {
	_, _, _ = c.run(ctx, "start-server")
}

// Pair performs wireless-debugging pairing against host:port with the
// six-digit code shown on the device.
func (c *Client) Pair(ctx context.Context, addr, code string) (string, error) {
	out, errOut, err := c.run(ctx, "pair", addr, code)
	if err != nil {
		return "", classify("pair", addr, out, errOut, err, KindBridgeUnavailable)
	}
	if !strings.Contains(out, "Successfully paired") {
		return "", NewError(KindBridgeUnavailable, "pair", addr, errors.New(firstLine(out)))
	}
	return firstLine(out), nil
}

// AutoDetect tries to find adb in PATH or common install locations.
func AutoDetect() string {
	exe := adbExecutableName()
	if p, err := exec.LookPath(exe); err == nil {
		return p
	}
	sdkRoots := []string{
		os.Getenv("ANDROID_SDK_ROOT"),
		os.Getenv("ANDROID_HOME"),
	}
	if home, err := os.UserHomeDir(); err == nil {
		switch runtime.GOOS {
		case "darwin":
			sdkRoots = append(sdkRoots, filepath.Join(home, "Library", "Android", "sdk"))
		case "windows":
			sdkRoots = append(sdkRoots, filepath.Join(home, "AppData", "Local", "Android", "Sdk"))
		default:
			sdkRoots = append(sdkRoots, filepath.Join(home, "Android", "Sdk"))
			sdkRoots = append(sdkRoots, filepath.Join(home, "Android", "sdk"))
		}
	}
	for _, root := range sdkRoots {
		if root == "" {
			continue
		}
		cand := filepath.Join(root, "platform-tools", exe)
		if fileExists(cand) {
			return cand
		}
	}
	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{"/usr/local/bin/" + exe, "/opt/homebrew/bin/" + exe}
	case "linux":
		candidates = []string{"/usr/bin/" + exe, "/usr/local/bin/" + exe}
	case "windows":
		candidates = []string{filepath.Join("C:\\", "Android", "platform-tools", exe)}
	}
	for _, cand := range candidates {
		if fileExists(cand) {
			return cand
		}
	}
	return ""
}

func adbExecutableName() string {
	if runtime.GOOS == "windows" {
		return "adb.exe"
	}
	return "adb"
}

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	if err != nil {
		return false
	}
	return !st.IsDir()
}
