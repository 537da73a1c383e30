package docserve

import "time"

// Kind classifies a documentation entry.
type Kind string

// Entry kinds produced by source adapters.
const (
	KindAPI       Kind = "api"
	KindGuide     Kind = "guide"
	KindExample   Kind = "example"
	KindMigration Kind = "migration"
)

// ValidKind reports whether k is one of the recognized entry kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindAPI, KindGuide, KindExample, KindMigration:
		return true
	}
	return false
}

// Entry represents a single piece of documentation extracted from a source.
// Entries are immutable once produced by an adapter; they are aggregated,
// ranked and cached but never mutated, only discarded.
type Entry struct {
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	URL         string            `json:"url"`
	Kind        Kind              `json:"type"`
	SourceID    string            `json:"source"`
	LastUpdated time.Time         `json:"lastUpdated"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Validate returns an error if the entry contains invalid fields.
func (e *Entry) Validate() error {
	if e.Title == "" {
		return Errorf(EINVALID, "entry title required")
	}
	if e.SourceID == "" {
		return Errorf(EINVALID, "entry source required")
	}
	if !ValidKind(e.Kind) {
		return Errorf(EINVALID, "entry kind %q not recognized", e.Kind)
	}
	return nil
}

// Meta returns the metadata value for key, or "" if absent.
func (e *Entry) Meta(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
