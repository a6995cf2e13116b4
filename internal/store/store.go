package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/stavren/modelsync/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketQueue      = []byte("queue")
	bucketDownloaded = []byte("downloaded")
	bucketFilters    = []byte("filters")
	bucketSession    = []byte("session")
)

// Fixed keys within buckets
const (
	keyList  = "list"
	keyToken = "token"
)

// ClientStore implements domain.Store using BoltDB.
type ClientStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

// NewClientStore opens (or creates) the store under dir. An empty dir gives
// a memory-only store with no persistence.
func NewClientStore(dir string) (*ClientStore, error) {
	if dir == "" {
		return &ClientStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "modelsync.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketQueue, bucketDownloaded, bucketFilters, bucketSession} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &ClientStore{db: db, cache: make(map[string][]byte)}, nil
}

func (s *ClientStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

// getRaw returns the stored bytes for bucket/key, promoting to the memory
// cache on a BoltDB hit.
func (s *ClientStore) getRaw(bucket []byte, key string) []byte {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return data
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return nil
	}

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return data
}

func (s *ClientStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

// === Download queue mirror ===

// Queue reads the persisted queue mirror. Heterogeneous stored shapes are
// lifted to canonical entries: the legacy form was a bare array of model
// ids. Corrupt storage yields an empty queue, never an error.
func (s *ClientStore) Queue() []domain.QueueEntry {
	data := s.getRaw(bucketQueue, keyList)
	if data == nil {
		return nil
	}
	return normalizeQueue(data)
}

// SetQueue persists a full queue snapshot. No deduplication is performed:
// callers control uniqueness, and the daemon's queue legitimately holds
// duplicates.
func (s *ClientStore) SetQueue(entries []domain.QueueEntry) error {
	if entries == nil {
		entries = []domain.QueueEntry{}
	}
	return s.set(bucketQueue, keyList, entries)
}

func (s *ClientStore) AddQueueEntry(entry domain.QueueEntry) error {
	return s.SetQueue(append(s.Queue(), entry))
}

// RemoveQueueEntries removes every entry for the model; with a version id
// the version must match too.
func (s *ClientStore) RemoveQueueEntries(modelID, versionID string) error {
	current := s.Queue()
	kept := make([]domain.QueueEntry, 0, len(current))
	for _, e := range current {
		if e.Matches(modelID, versionID) {
			continue
		}
		kept = append(kept, e)
	}
	return s.SetQueue(kept)
}

// normalizeQueue lifts a stored queue value of any historical shape to
// canonical entries. Elements may be canonical objects or bare string ids.
func normalizeQueue(data []byte) []domain.QueueEntry {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	entries := make([]domain.QueueEntry, 0, len(raw))
	for _, item := range raw {
		var entry domain.QueueEntry
		if err := json.Unmarshal(item, &entry); err == nil && entry.ModelID != "" {
			entries = append(entries, entry)
			continue
		}
		// Legacy bare-id element, possibly unquoted.
		var id string
		if err := json.Unmarshal(item, &id); err == nil && id != "" {
			entries = append(entries, domain.QueueEntry{ModelID: id})
			continue
		}
		var n json.Number
		if err := json.Unmarshal(item, &n); err == nil && n.String() != "" {
			entries = append(entries, domain.QueueEntry{ModelID: n.String()})
		}
	}
	return entries
}

// === Downloaded set ===

func (s *ClientStore) Downloaded() []domain.DownloadedRecord {
	data := s.getRaw(bucketDownloaded, keyList)
	if data == nil {
		return nil
	}
	var records []domain.DownloadedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil
	}
	return records
}

func (s *ClientStore) SetDownloaded(records []domain.DownloadedRecord) error {
	if records == nil {
		records = []domain.DownloadedRecord{}
	}
	return s.set(bucketDownloaded, keyList, records)
}

// AddDownloaded appends the record unless an equivalent one is already
// present. Unlike the queue, the downloaded set is deduplicated: it answers
// "do we already have it", so one row per model/version is enough.
func (s *ClientStore) AddDownloaded(record domain.DownloadedRecord) error {
	current := s.Downloaded()
	for _, r := range current {
		if r.Matches(record.ModelID, record.ModelVersionID) {
			return nil
		}
	}
	return s.SetDownloaded(append(current, record))
}

// === Saved search filters ===

func (s *ClientStore) Filters() (domain.SearchFilters, bool) {
	data := s.getRaw(bucketFilters, keyList)
	if data == nil {
		return domain.SearchFilters{}, false
	}
	var filters domain.SearchFilters
	if err := json.Unmarshal(data, &filters); err != nil {
		return domain.SearchFilters{}, false
	}
	return filters, true
}

func (s *ClientStore) SaveFilters(filters domain.SearchFilters) error {
	return s.set(bucketFilters, keyList, filters)
}

// === Session ===

func (s *ClientStore) Token() string {
	data := s.getRaw(bucketSession, keyToken)
	if data == nil {
		return ""
	}
	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		return strings.TrimSpace(string(data))
	}
	return token
}

func (s *ClientStore) SaveToken(token string) error {
	return s.set(bucketSession, keyToken, token)
}
