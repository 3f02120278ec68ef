package adb

import (
	"context"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// EntryKind discriminates directory listing entries.
type EntryKind int

const (
	KindFile EntryKind = iota
	KindDirectory
	KindSymlink
)

// RemoteEntry is one file-or-directory record as reported by a device
// directory listing. Entries are immutable snapshots; re-navigation
// re-fetches, it never mutates.
type RemoteEntry struct {
	Name       string
	Path       string
	Kind       EntryKind
	Size       int64
	Mode       string
	ModTime    time.Time
	LinkTarget string
}

// IsDir reports whether the entry can be navigated into. Symlinks are
// treated as opaque until resolved via ReadLink.
func (e RemoteEntry) IsDir() bool { return e.Kind == KindDirectory }

// toybox/busybox long listing:
// perms links owner group size YYYY-MM-DD HH:MM name
// e.g. "drwxr-xr-x   34 root   root       4096 2025-08-01 15:51 DCIM"
var lsLongRe = regexp.MustCompile(`^(\S+)\s+(\d+)\s+(\S+)\s+(\S+)\s+(\S+)\s+(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2})\s+(.+)$`)

// List returns the entries of a directory on the device, in bridge order.
// Sorting is the presenter's concern. Fails with PathNotFound when the
// target does not exist, PermissionDenied on access errors, and
// DeviceUnavailable when the serial is no longer connected.
func (c *Client) List(ctx context.Context, serial, dirPath string) ([]RemoteEntry, error) {
	if strings.TrimSpace(dirPath) == "" {
		dirPath = "/"
	}
	out, errOut, err := c.runSerial(ctx, serial, "shell", "ls", "-la", dirPath)
	if err != nil {
		return nil, classify("list", dirPath, out, errOut, err, KindIOError)
	}
	// Some ROMs report shell errors on stdout with a zero exit status;
	// those come back as a single diagnostic line.
	if trimmed := strings.TrimSpace(out); trimmed != "" && !strings.Contains(trimmed, "\n") {
		if kind := classifyOutput(trimmed); kind != KindUnknown {
			return nil, NewError(kind, "list", dirPath, nil)
		}
	}

	entries, parsed := parseLongListing(out, dirPath)
	if parsed {
		return entries, nil
	}

	// Long format unsupported on this ROM; fall back to names only with
	// trailing '/' directory markers.
	out, errOut, err = c.runSerial(ctx, serial, "shell", "ls", "-1p", dirPath)
	if err != nil {
		return nil, classify("list", dirPath, out, errOut, err, KindIOError)
	}
	return parseShortListing(out, dirPath), nil
}

// parseLongListing parses `ls -la` output. The second return value is false
// when no line matched the long format at all, which signals the caller to
// retry with a simpler listing.
func parseLongListing(out, dirPath string) ([]RemoteEntry, bool) {
	entries := []RemoteEntry{}
	matched := false
	for _, ln := range strings.Split(out, "\n") {
		line := strings.TrimSpace(ln)
		if line == "" || strings.HasPrefix(line, "total ") {
			continue
		}
		m := lsLongRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		matched = true

		mode := m[1]
		namePart := m[7]

		name := namePart
		linkTarget := ""
		if i := strings.Index(namePart, " -> "); i >= 0 {
			name = strings.TrimSpace(namePart[:i])
			linkTarget = strings.TrimSpace(namePart[i+4:])
		}
		if name == "." || name == ".." {
			continue
		}

		kind := KindFile
		switch {
		case strings.HasPrefix(mode, "d"):
			kind = KindDirectory
		case strings.HasPrefix(mode, "l"):
			kind = KindSymlink
		}

		// size can be "?" for virtual filesystems; best effort
		size, _ := strconv.ParseInt(m[5], 10, 64)
		modTime, _ := time.Parse("2006-01-02 15:04", strings.Join(strings.Fields(m[6]), " "))

		entries = append(entries, RemoteEntry{
			Name:       name,
			Path:       joinRemote(dirPath, name),
			Kind:       kind,
			Size:       size,
			Mode:       mode,
			ModTime:    modTime,
			LinkTarget: linkTarget,
		})
	}
	return entries, matched
}

func parseShortListing(out, dirPath string) []RemoteEntry {
	entries := []RemoteEntry{}
	for _, ln := range strings.Split(out, "\n") {
		name := strings.TrimSpace(ln)
		if name == "" || name == "./" || name == "../" || name == "." || name == ".." {
			continue
		}
		kind := KindFile
		if strings.HasSuffix(name, "/") {
			kind = KindDirectory
			name = strings.TrimSuffix(name, "/")
		}
		entries = append(entries, RemoteEntry{
			Name: name,
			Path: joinRemote(dirPath, name),
			Kind: kind,
		})
	}
	return entries
}

// joinRemote joins device-side paths, which always use forward slashes
// regardless of the host OS.
func joinRemote(dir, name string) string {
	return path.Join(dir, name)
}
