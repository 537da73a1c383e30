package docserve

import "context"

// Limits and defaults for retrieval operations.
const (
	DefaultSearchLimit   = 10
	MaxSearchLimit       = 100
	DefaultExamplesLimit = 5
	MaxExamplesLimit     = 50
)

// SearchRequest holds parameters for a documentation search.
type SearchRequest struct {
	Query   string   `json:"query"`
	Sources []string `json:"sources,omitempty"`
	Kind    Kind     `json:"type,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}

// Normalize applies defaults to optional fields.
func (r *SearchRequest) Normalize() {
	if r.Limit == 0 {
		r.Limit = DefaultSearchLimit
	}
}

// Validate returns an error if the request contains invalid fields.
func (r *SearchRequest) Validate() error {
	if r.Query == "" {
		return Errorf(EINVALID, "search query required")
	}
	if r.Limit < 1 || r.Limit > MaxSearchLimit {
		return Errorf(EINVALID, "search limit must be between 1 and %d", MaxSearchLimit)
	}
	if r.Kind != "" && !ValidKind(r.Kind) {
		return Errorf(EINVALID, "search type %q not recognized", r.Kind)
	}
	return nil
}

// SearchResult is the ranked outcome of a search.
// TotalCount reflects the number of matches before truncation to the
// request limit.
type SearchResult struct {
	Entries    []*Entry      `json:"results"`
	TotalCount int           `json:"totalCount"`
	Errors     []SourceError `json:"errors,omitempty"`
}

// ReferenceRequest holds parameters for a named API lookup.
type ReferenceRequest struct {
	APIName string `json:"apiName"`
	Source  string `json:"source"`
	Version string `json:"version,omitempty"`
}

// Validate returns an error if the request contains invalid fields.
func (r *ReferenceRequest) Validate() error {
	if r.APIName == "" {
		return Errorf(EINVALID, "API name required")
	}
	if r.Source == "" {
		return Errorf(EINVALID, "source required")
	}
	return nil
}

// ReferenceResult is the outcome of an API reference lookup.
// Entry is nil when no candidate could be found.
type ReferenceResult struct {
	Entry  *Entry        `json:"reference"`
	Errors []SourceError `json:"errors,omitempty"`
}

// ExamplesRequest holds parameters for a code example search.
type ExamplesRequest struct {
	Topic    string   `json:"topic"`
	Sources  []string `json:"sources,omitempty"`
	Language string   `json:"language,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// Normalize applies defaults to optional fields.
func (r *ExamplesRequest) Normalize() {
	if r.Limit == 0 {
		r.Limit = DefaultExamplesLimit
	}
}

// Validate returns an error if the request contains invalid fields.
func (r *ExamplesRequest) Validate() error {
	if r.Topic == "" {
		return Errorf(EINVALID, "examples topic required")
	}
	if r.Limit < 1 || r.Limit > MaxExamplesLimit {
		return Errorf(EINVALID, "examples limit must be between 1 and %d", MaxExamplesLimit)
	}
	return nil
}

// ExamplesResult is the ranked outcome of an example search.
type ExamplesResult struct {
	Entries    []*Entry      `json:"examples"`
	TotalCount int           `json:"totalCount"`
	Errors     []SourceError `json:"errors,omitempty"`
}

// MigrationRequest holds parameters for a migration guide lookup.
type MigrationRequest struct {
	Source      string `json:"source"`
	FromVersion string `json:"fromVersion"`
	ToVersion   string `json:"toVersion"`
}

// Validate returns an error if the request contains invalid fields.
func (r *MigrationRequest) Validate() error {
	if r.Source == "" {
		return Errorf(EINVALID, "migration source required")
	}
	if r.FromVersion == "" || r.ToVersion == "" {
		return Errorf(EINVALID, "migration versions required")
	}
	return nil
}

// MigrationResult is the outcome of a migration guide lookup.
type MigrationResult struct {
	Entries []*Entry      `json:"guides"`
	Errors  []SourceError `json:"errors,omitempty"`
}

// Orchestrator implements the four retrieval operations as cache-checked,
// fan-out queries over the configured source adapters.
type Orchestrator interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
	Reference(ctx context.Context, req ReferenceRequest) (*ReferenceResult, error)
	Examples(ctx context.Context, req ExamplesRequest) (*ExamplesResult, error)
	MigrationGuide(ctx context.Context, req MigrationRequest) (*MigrationResult, error)
}
