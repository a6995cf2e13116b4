package daemon

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/stavren/modelsync/internal/domain"
)

// The daemon's wire shapes are heterogeneous by contract: queue items may be
// plain objects, priority tuples serialized as arrays, or free-form strings.
// Everything funnels through decodeQueueItem so no use-site ever trusts a
// raw item shape.

type queueResponse struct {
	Queue []json.RawMessage `json:"queue"`
}

type downloadedResponse struct {
	Downloaded []downloadedItem `json:"downloaded"`
}

type downloadedItem struct {
	ModelID        flexString `json:"model_id"`
	ModelVersionID flexString `json:"model_version_id"`
	Filename       string     `json:"filename"`
	FileSize       *int64     `json:"file_size"`
	DownloadTime   *float64   `json:"download_time"`
	ModelType      string     `json:"model_type"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type batchResponse struct {
	Status  string `json:"status"`
	Queued  int    `json:"queued"`
	Skipped int    `json:"skipped"`
}

// flexString decodes a JSON string, number or null into a string. The
// daemon emits model ids as numbers in some payloads and strings in others.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		*f = ""
		return nil
	}
	if s[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*f = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt decodes a JSON number (possibly fractional) or numeric string
// into an int. Progress values arrive both ways.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == "" {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if v, err := strconv.Atoi(s); err == nil {
		*f = flexInt(v)
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexInt(math.Round(v))
	return nil
}

// queueItemObject is the primary queue item shape. Older daemons use "id"
// instead of "model_id".
type queueItemObject struct {
	ModelID        flexString `json:"model_id"`
	ID             flexString `json:"id"`
	ModelVersionID flexString `json:"model_version_id"`
}

// decodeQueue normalizes every wire item to a canonical entry and drops
// anything whose model id is not a nonempty digit string. Malformed items
// are discarded silently; the daemon pads an empty queue with prose like
// "The queue is empty." and the digit filter removes it.
func decodeQueue(items []json.RawMessage) []domain.QueueEntry {
	entries := make([]domain.QueueEntry, 0, len(items))
	for _, item := range items {
		entry, ok := decodeQueueItem(item)
		if !ok {
			continue
		}
		if !isDigits(entry.ModelID) {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func decodeQueueItem(raw json.RawMessage) (domain.QueueEntry, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" {
		return domain.QueueEntry{}, false
	}

	switch s[0] {
	case '{':
		var obj queueItemObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return domain.QueueEntry{}, false
		}
		id := string(obj.ModelID)
		if id == "" {
			id = string(obj.ID)
		}
		return domain.QueueEntry{
			ModelID:        id,
			ModelVersionID: string(obj.ModelVersionID),
		}, id != ""

	case '[':
		// Priority tuple (priority, timestamp, item): the third element
		// carries the actual item.
		var tuple []json.RawMessage
		if err := json.Unmarshal(raw, &tuple); err != nil || len(tuple) < 3 {
			return domain.QueueEntry{}, false
		}
		return decodeQueueItem(tuple[2])

	case '"':
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return domain.QueueEntry{}, false
		}
		return decodeQueueItemString(str)
	}

	return domain.QueueEntry{}, false
}

// Last-resort decoder for queue items that arrive as free-form strings,
// usually a repr of the daemon's internal job dict. The patterns are
// deliberately narrow; this stage is isolated so it can be tested and
// removed independently of the primary decoder.
var (
	stringModelIDPattern   = regexp.MustCompile(`['"]model_id['"]\s*[:=]\s*(\d+)`)
	stringVersionIDPattern = regexp.MustCompile(`['"]model_version_id['"]\s*[:=]\s*(\d+)`)
)

func decodeQueueItemString(s string) (domain.QueueEntry, bool) {
	entry := domain.QueueEntry{ModelID: s}
	if m := stringModelIDPattern.FindStringSubmatch(s); m != nil {
		entry.ModelID = m[1]
	}
	if m := stringVersionIDPattern.FindStringSubmatch(s); m != nil {
		entry.ModelVersionID = m[1]
	}
	return entry, entry.ModelID != ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func mapDownloaded(items []downloadedItem) []domain.DownloadedRecord {
	records := make([]domain.DownloadedRecord, 0, len(items))
	for _, it := range items {
		records = append(records, domain.DownloadedRecord{
			ModelID:        string(it.ModelID),
			ModelVersionID: string(it.ModelVersionID),
			Filename:       it.Filename,
			FileSize:       it.FileSize,
			DownloadTime:   it.DownloadTime,
			ModelType:      it.ModelType,
		})
	}
	return records
}

// === Push channel frames ===

type wireEvent struct {
	Event string        `json:"event"`
	Data  wireEventData `json:"data"`
}

type wireEventData struct {
	ModelID        flexString `json:"model_id"`
	ModelVersionID flexString `json:"model_version_id"`
	Filename       string     `json:"filename"`
	Progress       flexInt    `json:"progress"`
	Speed          string     `json:"speed"`
	ETA            string     `json:"eta"`
	Error          string     `json:"error"`
	Reason         string     `json:"reason"`
}

// frameClass is the outcome of classifying one inbound text frame.
type frameClass int

const (
	frameIgnored frameClass = iota // heartbeat, empty, unrecognized event
	frameEvent                     // recognized event with payload
	frameOpaque                    // unparseable but non-empty: refresh hint
)

// classifyFrame parses an inbound frame. JSON frames carrying a recognized
// event become events; the literal heartbeat and unrecognized events are
// no-ops; anything unparseable but non-empty falls back to an opaque
// refresh trigger.
func classifyFrame(raw []byte) (domain.Event, frameClass) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == domain.Heartbeat || text == `"`+domain.Heartbeat+`"` {
		return domain.Event{}, frameIgnored
	}

	var msg wireEvent
	if err := json.Unmarshal(raw, &msg); err != nil {
		return domain.Event{}, frameOpaque
	}

	kind := domain.EventKind(msg.Event)
	if !kind.Recognized() {
		return domain.Event{}, frameIgnored
	}

	return domain.Event{
		Kind: kind,
		Data: domain.EventData{
			ModelID:        string(msg.Data.ModelID),
			ModelVersionID: string(msg.Data.ModelVersionID),
			Filename:       msg.Data.Filename,
			Progress:       int(msg.Data.Progress),
			Speed:          msg.Data.Speed,
			ETA:            msg.Data.ETA,
			Error:          msg.Data.Error,
			Reason:         msg.Data.Reason,
		},
	}, frameEvent
}
