package adb

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// FileSize probes the byte size of a remote file via `stat -c %s`. A
// missing file surfaces as PathNotFound before any transfer starts.
func (c *Client) FileSize(ctx context.Context, serial, remotePath string) (int64, error) {
	out, errOut, err := c.runSerial(ctx, serial, "shell", "stat", "-c", "%s", remotePath)
	if err != nil {
		return 0, classify("stat", remotePath, out, errOut, err, KindPathNotFound)
	}
	trimmed := strings.TrimSpace(out)
	size, perr := strconv.ParseInt(trimmed, 10, 64)
	if perr != nil {
		if kind := classifyOutput(out); kind != KindUnknown {
			return 0, NewError(kind, "stat", remotePath, nil)
		}
		return 0, NewError(KindIOError, "stat", remotePath, perr)
	}
	return size, nil
}

// Exists reports whether a remote path exists (file or directory).
func (c *Client) Exists(ctx context.Context, serial, remotePath string) (bool, error) {
	out, errOut, err := c.runSerial(ctx, serial, "shell", "test", "-e", remotePath)
	if err == nil {
		return true, nil
	}
	return false, classifyExistsFailure(remotePath, out, errOut, err)
}

// classifyExistsFailure separates the expected exit 1 of a missing path
// from real failures like a vanished device. Only the latter surface.
func classifyExistsFailure(remotePath, out, errOut string, err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if kind := classifyOutput(errOut + "\n" + out); kind != KindUnknown && kind != KindPathNotFound {
		return NewError(kind, "exists", remotePath, err)
	}
	return nil
}

// IsDir reports whether a remote path is a directory.
func (c *Client) IsDir(ctx context.Context, serial, remotePath string) bool {
	_, _, err := c.runSerial(ctx, serial, "shell", "test", "-d", remotePath)
	return err == nil
}

// Mkdir creates a directory (and parents) on the device.
func (c *Client) Mkdir(ctx context.Context, serial, remotePath string) error {
	out, errOut, err := c.runSerial(ctx, serial, "shell", "mkdir", "-p", remotePath)
	if err != nil {
		return classify("mkdir", remotePath, out, errOut, err, KindIOError)
	}
	return nil
}

// Rename moves a file or directory on the device.
func (c *Client) Rename(ctx context.Context, serial, oldPath, newPath string) error {
	out, errOut, err := c.runSerial(ctx, serial, "shell", "mv", oldPath, newPath)
	if err != nil {
		return classify("rename", oldPath, out, errOut, err, KindIOError)
	}
	return nil
}

// Remove deletes a file or directory tree on the device.
func (c *Client) Remove(ctx context.Context, serial, remotePath string) error {
	out, errOut, err := c.runSerial(ctx, serial, "shell", "rm", "-rf", remotePath)
	if err != nil {
		return classify("remove", remotePath, out, errOut, err, KindIOError)
	}
	return nil
}

// ReadLink resolves a symlink target on the device.
func (c *Client) ReadLink(ctx context.Context, serial, linkPath string) (string, error) {
	out, errOut, err := c.runSerial(ctx, serial, "shell", "readlink", linkPath)
	if err != nil {
		return "", classify("readlink", linkPath, out, errOut, err, KindPathNotFound)
	}
	target := strings.TrimSpace(out)
	if target == "" {
		return "", NewError(KindPathNotFound, "readlink", linkPath, nil)
	}
	return target, nil
}
