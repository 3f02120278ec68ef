package events

import "github.com/asaskevich/EventBus"

// GlobalBus is the shared event bus for the entire application
var GlobalBus EventBus.Bus

func init() {
	GlobalBus = EventBus.New()
}

// Event types for application-wide coordination
const (
	// Shutdown events
	EventShutdownRequested = "app:shutdown:requested"
	EventShutdownComplete  = "app:shutdown:complete"

	// Transfer events; payloads are defined by internal/transfer
	EventTransferProgress = "transfer:progress"
	EventTransferDone     = "transfer:done"

	// Watcher events
	EventWatcherStarted = "watcher:started"
	EventWatcherStopped = "watcher:stopped"

	// Device events
	EventDevicesRefreshed = "devices:refreshed"
)
