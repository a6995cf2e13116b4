package domain

// Model is one catalog entry with its published versions, newest first.
type Model struct {
	ID        string
	Name      string
	Type      string
	BaseModel string
	Versions  []ModelVersion
}

// ModelVersion is one published version of a catalog model.
type ModelVersion struct {
	ID           string
	Name         string
	BaseModel    string
	Availability string // "EarlyAccess" blocks submission
	DownloadURL  string
	PublishedAt  string
	Files        []ModelFile
}

// ModelFile is one downloadable artifact of a version.
type ModelFile struct {
	Name        string
	SHA256      string
	DownloadURL string
	SizeKB      float64
}

// EarlyAccess is the availability flag that blocks download regardless of
// queue or downloaded state.
const EarlyAccess = "EarlyAccess"

// ResolveVersion picks the version a download refers to: the explicit id
// when it is present among the model's versions, else the first listed
// version, else an empty version.
func (m Model) ResolveVersion(versionID string) ModelVersion {
	if len(m.Versions) == 0 {
		return ModelVersion{}
	}
	if versionID != "" {
		for _, v := range m.Versions {
			if v.ID == versionID {
				return v
			}
		}
	}
	return m.Versions[0]
}

// SearchFilters is the persisted catalog search form state.
type SearchFilters struct {
	Type       string `json:"type"`
	NSFW       bool   `json:"nsfw"`
	Period     string `json:"period"`
	SearchTerm string `json:"searchTerm"`
	Limit      string `json:"limit"`
	Sort       string `json:"sort"`
	Cursor     string `json:"cursor,omitempty"`
}

// DefaultFilters returns the filter defaults used when nothing is saved.
func DefaultFilters() SearchFilters {
	return SearchFilters{
		Period: "All Time",
		Limit:  "24",
	}
}

// SearchPage is one page of catalog results plus the cursor for the next.
type SearchPage struct {
	Models     []Model
	NextCursor string
}
