package browser

import (
	"context"
	"errors"
	"testing"

	"adb-commander/internal/adb"
)

// fakeLister serves canned listings keyed by path and counts fetches.
type fakeLister struct {
	listings map[string][]adb.RemoteEntry
	calls    map[string]int
}

func newFakeLister() *fakeLister {
	return &fakeLister{
		listings: map[string][]adb.RemoteEntry{},
		calls:    map[string]int{},
	}
}

func (f *fakeLister) set(dir string, entries ...adb.RemoteEntry) {
	f.listings[dir] = entries
}

func (f *fakeLister) List(_ context.Context, _ string, dirPath string) ([]adb.RemoteEntry, error) {
	f.calls[dirPath]++
	entries, ok := f.listings[dirPath]
	if !ok {
		return nil, adb.NewError(adb.KindPathNotFound, "list", dirPath, nil)
	}
	// return a copy so the presenter cannot be affected by later set() calls
	out := make([]adb.RemoteEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func file(dir, name string, size int64) adb.RemoteEntry {
	return adb.RemoteEntry{Name: name, Path: dir + "/" + name, Kind: adb.KindFile, Size: size}
}

func dir(parent, name string) adb.RemoteEntry {
	return adb.RemoteEntry{Name: name, Path: parent + "/" + name, Kind: adb.KindDirectory}
}

func TestOrderingDirectoriesFirstCaseInsensitive(t *testing.T) {
	f := newFakeLister()
	f.set("/sdcard",
		file("/sdcard", "zebra.txt", 1),
		dir("/sdcard", "music"),
		file("/sdcard", "Apple.txt", 1),
		dir("/sdcard", "DCIM"),
		file("/sdcard", "apple.txt", 1),
		dir("/sdcard", "download"),
	)
	p := NewPresenter(f, "R58M123", "/sdcard")
	if err := p.Navigate(context.Background(), "/sdcard"); err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, r := range p.Rows() {
		names = append(names, r.Entry.Name)
	}
	want := []string{"DCIM", "download", "music", "Apple.txt", "apple.txt", "zebra.txt"}
	if len(names) != len(want) {
		t.Fatalf("rows = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("rows = %v, want %v", names, want)
		}
	}
}

func TestNavigateReplacesCacheAtomically(t *testing.T) {
	f := newFakeLister()
	f.set("/sdcard", file("/sdcard", "old.txt", 1))
	f.set("/sdcard/DCIM", file("/sdcard/DCIM", "photo.jpg", 2))

	p := NewPresenter(f, "R58M123", "/sdcard")
	if err := p.Navigate(context.Background(), "/sdcard"); err != nil {
		t.Fatal(err)
	}
	if err := p.Navigate(context.Background(), "/sdcard/DCIM"); err != nil {
		t.Fatal(err)
	}

	// navigate away and back; the listing must reflect only the re-fetch
	f.set("/sdcard", file("/sdcard", "new.txt", 3))
	if err := p.Navigate(context.Background(), "/sdcard"); err != nil {
		t.Fatal(err)
	}
	rows := p.Rows()
	if len(rows) != 1 || rows[0].Entry.Name != "new.txt" {
		t.Fatalf("stale entries leaked across navigations: %+v", rows)
	}
}

func TestNavigateFailureKeepsPreviousListing(t *testing.T) {
	f := newFakeLister()
	f.set("/sdcard", file("/sdcard", "keep.txt", 1))

	p := NewPresenter(f, "R58M123", "/sdcard")
	if err := p.Navigate(context.Background(), "/sdcard"); err != nil {
		t.Fatal(err)
	}

	err := p.Navigate(context.Background(), "/sdcard/missing")
	if !adb.IsKind(err, adb.KindPathNotFound) {
		t.Fatalf("expected PathNotFound, got %v", err)
	}
	if p.Path() != "/sdcard" {
		t.Errorf("path changed on failed navigation: %q", p.Path())
	}
	rows := p.Rows()
	if len(rows) != 1 || rows[0].Entry.Name != "keep.txt" {
		t.Errorf("previous listing lost on failed navigation: %+v", rows)
	}
}

func TestExpandOnlyDirectories(t *testing.T) {
	f := newFakeLister()
	f.set("/sdcard", dir("/sdcard", "DCIM"), file("/sdcard", "a.txt", 1))
	f.set("/sdcard/DCIM", file("/sdcard/DCIM", "photo.jpg", 2))

	p := NewPresenter(f, "R58M123", "/sdcard")
	if err := p.Navigate(context.Background(), "/sdcard"); err != nil {
		t.Fatal(err)
	}

	err := p.Expand(context.Background(), file("/sdcard", "a.txt", 1))
	if !adb.IsKind(err, adb.KindNotADirectory) {
		t.Fatalf("expected NotADirectory, got %v", err)
	}

	if err := p.Expand(context.Background(), dir("/sdcard", "DCIM")); err != nil {
		t.Fatal(err)
	}
	rows := p.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows after expand, got %d", len(rows))
	}
	if rows[1].Entry.Name != "photo.jpg" || rows[1].Depth != 1 {
		t.Errorf("child row wrong: %+v", rows[1])
	}

	p.Collapse("/sdcard/DCIM")
	if got := len(p.Rows()); got != 2 {
		t.Errorf("expected 2 rows after collapse, got %d", got)
	}

	// re-expanding uses the cached children, no second fetch
	if err := p.Expand(context.Background(), dir("/sdcard", "DCIM")); err != nil {
		t.Fatal(err)
	}
	if f.calls["/sdcard/DCIM"] != 1 {
		t.Errorf("expand re-fetched cached children: %d calls", f.calls["/sdcard/DCIM"])
	}
}

func TestUpStopsAtRoot(t *testing.T) {
	f := newFakeLister()
	f.set("/", dir("", "sdcard"))
	f.set("/sdcard", dir("/sdcard", "DCIM"))
	f.set("/sdcard/DCIM", file("/sdcard/DCIM", "photo.jpg", 1))

	p := NewPresenter(f, "R58M123", "/sdcard/DCIM")
	if err := p.Navigate(context.Background(), "/sdcard/DCIM"); err != nil {
		t.Fatal(err)
	}
	if err := p.Up(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.Path() != "/sdcard" {
		t.Fatalf("up from /sdcard/DCIM landed on %q", p.Path())
	}
	if err := p.Up(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.Path() != "/" {
		t.Fatalf("up from /sdcard landed on %q", p.Path())
	}
	if err := p.Up(context.Background()); err != nil {
		t.Fatal(err)
	}
	if p.Path() != "/" {
		t.Fatalf("up from root must stay at root, got %q", p.Path())
	}
}

func TestListerErrorsPassThroughTyped(t *testing.T) {
	f := newFakeLister()
	p := NewPresenter(f, "R58M123", "/sdcard")
	err := p.Navigate(context.Background(), "/sdcard")
	var ae *adb.Error
	if !errors.As(err, &ae) {
		t.Fatalf("expected typed *adb.Error, got %T", err)
	}
}
