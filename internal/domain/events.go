package domain

// EventKind identifies a daemon push event.
type EventKind string

// Coarse refresh triggers: these signal that some authoritative state
// changed and the client should re-read it.
const (
	EventQueueChanged    EventKind = "queue_changed"
	EventDownloadStarted EventKind = "download_started"
	EventDownloadFailed  EventKind = "download_failed"
	EventMetricsChanged  EventKind = "metrics_changed"
	EventStatusChanged   EventKind = "status_changed"
)

// Per-item lifecycle events driving the runtime status projection.
const (
	EventInQueue          EventKind = "in_queue"
	EventDownloadStart    EventKind = "download_start"
	EventDownloadProgress EventKind = "download_progress"
	EventDownloadFinished EventKind = "download_finished"
	EventHashStart        EventKind = "hash_start"
	EventHashProgress     EventKind = "hash_progress"
	EventHashFinished     EventKind = "hash_finished"
	EventDownloadError    EventKind = "download_error"
	EventDownloadSkipped  EventKind = "download_skipped"
	EventDaemonPaused     EventKind = "daemon_paused"
	EventDaemonResumed    EventKind = "daemon_resumed"
)

// Heartbeat is the literal liveness frame sent on the push channel; it is a
// no-op, not an event.
const Heartbeat = "heartbeat"

var refreshKinds = map[EventKind]bool{
	EventQueueChanged:     true,
	EventDownloadStarted:  true,
	EventDownloadFinished: true,
	EventDownloadFailed:   true,
	EventMetricsChanged:   true,
	EventStatusChanged:    true,
}

var lifecycleKinds = map[EventKind]bool{
	EventInQueue:          true,
	EventDownloadStart:    true,
	EventDownloadProgress: true,
	EventDownloadFinished: true,
	EventHashStart:        true,
	EventHashProgress:     true,
	EventHashFinished:     true,
	EventDownloadError:    true,
	EventDownloadSkipped:  true,
	EventDaemonPaused:     true,
	EventDaemonResumed:    true,
}

// IsRefresh reports whether the kind triggers a state re-read.
func (k EventKind) IsRefresh() bool { return refreshKinds[k] }

// IsLifecycle reports whether the kind feeds the status projector.
func (k EventKind) IsLifecycle() bool { return lifecycleKinds[k] }

// Recognized reports whether the kind causes any state change at all.
// Everything else, including the heartbeat, is a no-op.
func (k EventKind) Recognized() bool { return k.IsRefresh() || k.IsLifecycle() }

// Event is one classified push message.
type Event struct {
	Kind EventKind
	Data EventData
}

// EventData is the payload carried by lifecycle events. Fields are sparse;
// the daemon only sends what the event needs.
type EventData struct {
	ModelID        string
	ModelVersionID string
	Filename       string
	Progress       int
	Speed          string
	ETA            string
	Error          string
	Reason         string
}
