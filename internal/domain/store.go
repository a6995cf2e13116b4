package domain

// Store is the durable local mirror of client state (BoltDB-backed).
// Readers never see errors: corrupt or missing data degrades to empty.
// Writers always persist a full normalized snapshot, never an in-place
// partial edit.
type Store interface {
	// === Download queue mirror ===
	Queue() []QueueEntry
	SetQueue(entries []QueueEntry) error
	AddQueueEntry(entry QueueEntry) error
	// RemoveQueueEntries removes every entry matching the model id and,
	// when versionID is nonempty, the version as well.
	RemoveQueueEntries(modelID, versionID string) error

	// === Downloaded set ===
	Downloaded() []DownloadedRecord
	SetDownloaded(records []DownloadedRecord) error
	AddDownloaded(record DownloadedRecord) error

	// === Saved search filters ===
	Filters() (SearchFilters, bool)
	SaveFilters(filters SearchFilters) error

	// === Session ===
	Token() string
	SaveToken(token string) error

	Close() error
}
