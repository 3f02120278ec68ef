package browser

import (
	"context"
	"path"
	"sort"
	"strings"
	"sync"

	"adb-commander/internal/adb"
)

// Lister is the slice of the device bridge the presenter needs. Satisfied
// by *adb.Client.
type Lister interface {
	List(ctx context.Context, serial, dirPath string) ([]adb.RemoteEntry, error)
}

// Row is one line of the flattened tree view.
type Row struct {
	Entry    adb.RemoteEntry
	Depth    int
	Expanded bool
}

// Presenter holds the in-memory tree of the currently browsed remote
// directory. Listings are cached snapshots: navigation replaces the whole
// set atomically, stale entries never leak across navigations.
type Presenter struct {
	lister Lister
	serial string

	mu       sync.Mutex
	path     string
	entries  []adb.RemoteEntry
	children map[string][]adb.RemoteEntry
	expanded map[string]bool
}

// NewPresenter creates a presenter rooted at startPath for one device.
func NewPresenter(lister Lister, serial, startPath string) *Presenter {
	if startPath == "" {
		startPath = "/"
	}
	return &Presenter{
		lister:   lister,
		serial:   serial,
		path:     startPath,
		children: map[string][]adb.RemoteEntry{},
		expanded: map[string]bool{},
	}
}

// Path returns the currently open directory.
func (p *Presenter) Path() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path
}

// Serial returns the device this presenter browses.
func (p *Presenter) Serial() string { return p.serial }

// Navigate re-fetches path and replaces the cached listing. On failure the
// previous listing stays untouched so the view never shows a mix of old
// and new entries.
func (p *Presenter) Navigate(ctx context.Context, dirPath string) error {
	entries, err := p.lister.List(ctx, p.serial, dirPath)
	if err != nil {
		return err
	}
	sortEntries(entries)

	p.mu.Lock()
	p.path = dirPath
	p.entries = entries
	p.children = map[string][]adb.RemoteEntry{}
	p.expanded = map[string]bool{}
	p.mu.Unlock()
	return nil
}

// Refresh re-fetches the current directory.
func (p *Presenter) Refresh(ctx context.Context) error {
	return p.Navigate(ctx, p.Path())
}

// Up navigates to the parent directory, stopping at the root.
func (p *Presenter) Up(ctx context.Context) error {
	cur := p.Path()
	if cur == "/" {
		return nil
	}
	parent := path.Dir(cur)
	return p.Navigate(ctx, parent)
}

// Expand lazily loads the children of a directory entry into the tree.
// Fails with NotADirectory for anything else.
func (p *Presenter) Expand(ctx context.Context, entry adb.RemoteEntry) error {
	if entry.Kind != adb.KindDirectory {
		return adb.NewError(adb.KindNotADirectory, "expand", entry.Path, nil)
	}

	p.mu.Lock()
	if p.expanded[entry.Path] {
		p.mu.Unlock()
		return nil
	}
	_, cached := p.children[entry.Path]
	p.mu.Unlock()

	if !cached {
		children, err := p.lister.List(ctx, p.serial, entry.Path)
		if err != nil {
			return err
		}
		sortEntries(children)
		p.mu.Lock()
		p.children[entry.Path] = children
		p.mu.Unlock()
	}

	p.mu.Lock()
	p.expanded[entry.Path] = true
	p.mu.Unlock()
	return nil
}

// Collapse hides the children of a previously expanded directory.
func (p *Presenter) Collapse(entryPath string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.expanded[entryPath] = false
}

// IsExpanded reports whether a directory row is currently open.
func (p *Presenter) IsExpanded(entryPath string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.expanded[entryPath]
}

// Rows flattens the tree into display order: the current listing with the
// children of expanded directories inlined beneath their parent.
func (p *Presenter) Rows() []Row {
	p.mu.Lock()
	defer p.mu.Unlock()
	var rows []Row
	p.appendRows(&rows, p.entries, 0)
	return rows
}

func (p *Presenter) appendRows(rows *[]Row, entries []adb.RemoteEntry, depth int) {
	for _, e := range entries {
		open := e.Kind == adb.KindDirectory && p.expanded[e.Path]
		*rows = append(*rows, Row{Entry: e, Depth: depth, Expanded: open})
		if open {
			p.appendRows(rows, p.children[e.Path], depth+1)
		}
	}
}

// sortEntries orders directories before files; within each group names are
// compared case-insensitively (lowercased ordinal), ties broken by the
// original spelling so the order is total.
func sortEntries(entries []adb.RemoteEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := entries[i].Kind == adb.KindDirectory, entries[j].Kind == adb.KindDirectory
		if di != dj {
			return di
		}
		li, lj := strings.ToLower(entries[i].Name), strings.ToLower(entries[j].Name)
		if li != lj {
			return li < lj
		}
		return entries[i].Name < entries[j].Name
	})
}
