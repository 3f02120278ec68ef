package watcher

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rjeczalik/notify"

	"adb-commander/internal/adb"
	"adb-commander/internal/config"
	"adb-commander/internal/events"
	"adb-commander/internal/transfer"
	"adb-commander/internal/util"
)

// EventType classifies a file system change.
type EventType int

const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

// FileEvent is one debounced change under the watched directory.
type FileEvent struct {
	Path      string
	EventType EventType
	IsDir     bool
	Timestamp time.Time
}

// Watcher mirrors local file changes to a device directory by pushing
// through the transfer coordinator.
type Watcher struct {
	serial string
	coord  *transfer.Coordinator
	cfg    config.WatchConfig

	watchChan chan notify.EventInfo
	done      chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup

	eventsMu   sync.Mutex
	lastEvents map[string]FileEvent
}

// NewWatcher validates the watch config and prepares a watcher for the
// given device.
func NewWatcher(serial string, coord *transfer.Coordinator, cfg config.WatchConfig) (*Watcher, error) {
	if cfg.LocalDir == "" || cfg.RemoteDir == "" {
		return nil, fmt.Errorf("watch requires both local_dir and remote_dir")
	}
	info, err := os.Stat(cfg.LocalDir)
	if err != nil {
		return nil, fmt.Errorf("watch local_dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch local_dir %s is not a directory", cfg.LocalDir)
	}
	return &Watcher{
		serial:     serial,
		coord:      coord,
		cfg:        cfg,
		watchChan:  make(chan notify.EventInfo, 100),
		done:       make(chan struct{}),
		lastEvents: make(map[string]FileEvent),
	}, nil
}

// Start begins watching recursively and pushing changed files. It returns
// once the watch is registered; processing runs in the background.
func (w *Watcher) Start() error {
	watchPattern := filepath.Join(w.cfg.LocalDir, "...")
	if err := notify.Watch(watchPattern, w.watchChan, notify.All); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.cfg.LocalDir, err)
	}

	w.wg.Add(1)
	go w.processEvents()

	events.GlobalBus.Publish(events.EventWatcherStarted, w.cfg.LocalDir)
	util.Default.Printf("👀 watching %s -> %s:%s\n", w.cfg.LocalDir, w.serial, w.cfg.RemoteDir)
	return nil
}

// Stop ends the watch and waits for in-flight event handling.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		notify.Stop(w.watchChan)
		close(w.done)
		w.wg.Wait()
		events.GlobalBus.Publish(events.EventWatcherStopped, w.cfg.LocalDir)
	})
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.watchChan:
			if !ok {
				return
			}
			w.handleEvent(event)
		case <-w.done:
			return
		}
	}
}

// handleEvent filters, debounces and pushes a single change.
func (w *Watcher) handleEvent(event notify.EventInfo) {
	p := event.Path()
	if w.shouldIgnore(p) {
		return
	}

	eventType := mapNotifyEvent(event.Event())
	info, err := os.Stat(p)
	isDir := err == nil && info.IsDir()

	fe := FileEvent{Path: p, EventType: eventType, IsDir: isDir, Timestamp: time.Now()}
	if w.isDuplicateEvent(fe) {
		return
	}
	w.storeEvent(fe)

	if isDir {
		return
	}
	switch eventType {
	case EventCreate, EventWrite:
		w.pushFile(p)
	case EventRemove, EventRename:
		// removals are left on the device; a delete mirror needs `rm`
		// semantics the user did not opt into here
	}
}

// pushFile maps the local path under the remote base and hands the file
// to the coordinator, waiting for the job so pushes stay serialized.
func (w *Watcher) pushFile(localPath string) {
	rel, err := filepath.Rel(w.cfg.LocalDir, localPath)
	if err != nil {
		util.Default.Printf("⚠️  could not map %s: %v\n", localPath, err)
		return
	}
	remotePath := path.Join(w.cfg.RemoteDir, filepath.ToSlash(rel))

	job, err := w.coord.Push(context.Background(), w.serial, localPath, remotePath)
	if err != nil {
		util.Default.Printf("⚠️  push %s: %v\n", rel, err)
		return
	}
	res := <-job.Done()
	if res.State == transfer.StateCompleted {
		util.Default.Printf("📤 %s -> %s\n", rel, remotePath)
	} else if res.Err != nil {
		util.Default.Printf("❌ %s: %v\n", rel, res.Err)
		if adb.IsKind(res.Err, adb.KindBridgeUnavailable) {
			// no adb binary means no push will ever succeed again
			events.GlobalBus.Publish(events.EventShutdownRequested, "watcher: adb bridge unavailable")
		}
	}
}

// core ignores are always applied on top of the configured ones
var coreIgnores = []string{
	".adbc_temp",
	config.ConfigFileName,
	".git",
}

func (w *Watcher) shouldIgnore(p string) bool {
	for _, ignore := range coreIgnores {
		if matchesPattern(p, ignore) {
			return true
		}
	}
	for _, ignore := range w.cfg.Ignores {
		if matchesPattern(p, ignore) {
			return true
		}
	}
	return false
}

func matchesPattern(p, pattern string) bool {
	if strings.Contains(pattern, "*") {
		regexPattern := strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*")
		matched, _ := regexp.MatchString(regexPattern, p)
		return matched
	}
	return strings.Contains(p, pattern)
}

func (w *Watcher) isDuplicateEvent(event FileEvent) bool {
	w.eventsMu.Lock()
	defer w.eventsMu.Unlock()
	key := fmt.Sprintf("%s:%d", event.Path, event.EventType)
	if last, exists := w.lastEvents[key]; exists {
		if event.Timestamp.Sub(last.Timestamp) < time.Second {
			return true
		}
	}
	return false
}

func (w *Watcher) storeEvent(event FileEvent) {
	w.eventsMu.Lock()
	defer w.eventsMu.Unlock()
	key := fmt.Sprintf("%s:%d", event.Path, event.EventType)
	w.lastEvents[key] = event
	for k, stored := range w.lastEvents {
		if time.Since(stored.Timestamp) > 5*time.Second {
			delete(w.lastEvents, k)
		}
	}
}

func mapNotifyEvent(event notify.Event) EventType {
	switch {
	case event&notify.Create != 0:
		return EventCreate
	case event&notify.Write != 0:
		return EventWrite
	case event&notify.Remove != 0:
		return EventRemove
	case event&notify.Rename != 0:
		return EventRename
	default:
		return EventWrite
	}
}
