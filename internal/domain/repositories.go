package domain

import "context"

// Daemon is the download daemon's REST surface. The daemon is the source of
// truth for the active queue and the downloaded set; everything here reads
// or mutates that authoritative state.
type Daemon interface {
	// QueueSnapshot returns the daemon's current queue, normalized to
	// canonical entries with malformed items already dropped.
	QueueSnapshot(ctx context.Context) ([]QueueEntry, error)

	// DownloadedIDs returns the daemon's completed-download set.
	DownloadedIDs(ctx context.Context) ([]DownloadedRecord, error)

	// Submit posts one manifest to the submission endpoint.
	Submit(ctx context.Context, m Manifest) error

	// SubmitBatch posts several manifests at once; returns how many the
	// daemon queued and how many it skipped as already downloaded.
	SubmitBatch(ctx context.Context, ms []Manifest) (queued, skipped int, err error)

	Status(ctx context.Context) (DaemonStatus, error)
	Metrics(ctx context.Context) (Metrics, error)

	// Admin commands (fire-and-refresh; callers re-read Status after).
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error

	// Login exchanges a username/role pair for a bearer token.
	Login(ctx context.Context, username, role string) (string, error)
}

// Catalog is the model catalog's search surface.
type Catalog interface {
	Search(ctx context.Context, filters SearchFilters) (SearchPage, error)
}
