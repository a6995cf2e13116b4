package domain

// QueueEntry is one pending download mirrored from the daemon's queue.
// The local queue is a view of the daemon's queue, never a source of truth,
// and duplicates are allowed: the daemon itself may hold the same
// model/version twice and the mirror reproduces that faithfully.
type QueueEntry struct {
	ModelID        string `json:"model_id"`
	ModelVersionID string `json:"model_version_id,omitempty"`
}

// Matches reports whether the entry refers to the given model. When
// versionID is empty the match is by model id alone; otherwise the version
// must also match. This is the single match rule shared by queue removal,
// downloaded-set membership and button resolution.
func (e QueueEntry) Matches(modelID, versionID string) bool {
	if e.ModelID != modelID {
		return false
	}
	return versionID == "" || e.ModelVersionID == versionID
}

// DownloadedRecord is one completed download. The authoritative copy lives
// on the daemon; the local set is append-only from the client's view.
type DownloadedRecord struct {
	ModelID        string   `json:"model_id"`
	ModelVersionID string   `json:"model_version_id,omitempty"`
	Filename       string   `json:"filename,omitempty"`
	FileSize       *int64   `json:"file_size,omitempty"`
	DownloadTime   *float64 `json:"download_time,omitempty"`
	ModelType      string   `json:"model_type,omitempty"`
}

// Matches applies the shared model/version match rule.
func (r DownloadedRecord) Matches(modelID, versionID string) bool {
	if r.ModelID != modelID {
		return false
	}
	return versionID == "" || r.ModelVersionID == versionID
}

// Manifest is the download request payload sent to the daemon for one
// model/version. Built once per submission, immutable thereafter.
type Manifest struct {
	ModelID        string `json:"model_id"`
	ModelVersionID string `json:"model_version_id"`
	ModelType      string `json:"model_type"`
	BaseModel      string `json:"baseModel"`
	SHA256         string `json:"sha256"`
	URL            string `json:"url"`
	Filename       string `json:"filename"`
	QueueOnly      bool   `json:"queue_only,omitempty"`
}

// Phase is the displayable lifecycle phase of one item.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseQueued
	PhaseDownloading
	PhaseHashing
	PhaseDone
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseQueued:
		return "queued"
	case PhaseDownloading:
		return "downloading"
	case PhaseHashing:
		return "hashing"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// RuntimeStatus is the projected per-item state derived from stream events.
// Owned exclusively by the projector; zero value means idle.
type RuntimeStatus struct {
	Phase    Phase
	Progress int // 0..100, last value wins
	Speed    string
	ETA      string
	Error    string
}

// DaemonStatus mirrors GET /api/status.
type DaemonStatus struct {
	Running   bool `json:"running"`
	Paused    bool `json:"paused"`
	QueueSize int  `json:"queue_size"`
}

// Metrics mirrors GET /api/metrics. Only the scalar totals are typed; the
// per-day and per-type tables are kept raw for pass-through display.
type Metrics struct {
	TotalDownloads   int `json:"total_downloads"`
	UniqueSuccessful int `json:"unique_successful_downloads"`
	UniqueFailed     int `json:"unique_failed_downloads"`
	Raw              []byte
}
