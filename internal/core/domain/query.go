package domain

import (
	"fmt"
	"slices"
	"strings"
)

// SearchMode selects the retrieval strategy the backend uses.
type SearchMode string

// Available search modes.
const (
	// SearchModeKeyword uses full-text (BM25) matching only.
	SearchModeKeyword SearchMode = "keyword"

	// SearchModeSemantic uses vector similarity only.
	SearchModeSemantic SearchMode = "semantic"

	// SearchModeHybrid combines keyword and semantic retrieval.
	SearchModeHybrid SearchMode = "hybrid"
)

// SearchModes lists every mode in display order.
func SearchModes() []SearchMode {
	return []SearchMode{SearchModeHybrid, SearchModeKeyword, SearchModeSemantic}
}

// IsValid returns true if the search mode is recognised.
func (m SearchMode) IsValid() bool {
	switch m {
	case SearchModeKeyword, SearchModeSemantic, SearchModeHybrid:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (m SearchMode) String() string {
	return string(m)
}

// Next returns the mode after m in display order, wrapping around.
func (m SearchMode) Next() SearchMode {
	modes := SearchModes()
	i := slices.Index(modes, m)
	return modes[(i+1)%len(modes)]
}

// Description returns a human-readable description of the mode.
func (m SearchMode) Description() string {
	switch m {
	case SearchModeKeyword:
		return "Keyword (full-text)"
	case SearchModeSemantic:
		return "Semantic (vector similarity)"
	case SearchModeHybrid:
		return "Hybrid (keyword + semantic)"
	default:
		return "Unknown"
	}
}

// ParseSearchMode converts a user-supplied string to a SearchMode.
func ParseSearchMode(s string) (SearchMode, error) {
	m := SearchMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("%w: unknown search mode %q", ErrInvalidInput, s)
	}
	return m, nil
}

// Default query parameter values.
const (
	DefaultPageSize = 10
	DefaultTopK     = 5
)

// QueryParameters describes one search or question submission.
// A value is treated as immutable once a request is issued with it;
// use WithPage to derive the parameters for another page.
type QueryParameters struct {
	// Query is the search text or question. Must be non-empty.
	Query string

	// Mode is the retrieval strategy.
	Mode SearchMode

	// DocumentIDs restricts results to these documents. Nil means no filter.
	DocumentIDs []string

	// Page is the 1-based page number.
	Page int

	// PageSize is the number of items per page.
	PageSize int

	// IncludeHighlight asks the backend for highlighted snippets.
	IncludeHighlight bool

	// TopK is the number of passages used as RAG context.
	// Zero leaves the choice to the backend.
	TopK int
}

// NewQueryParameters returns parameters for the first page with default sizing.
func NewQueryParameters(query string, mode SearchMode) QueryParameters {
	return QueryParameters{
		Query:    query,
		Mode:     mode,
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

// Validate checks the parameters are well formed.
func (p QueryParameters) Validate() error {
	if strings.TrimSpace(p.Query) == "" {
		return fmt.Errorf("%w: query must not be empty", ErrInvalidInput)
	}
	if !p.Mode.IsValid() {
		return fmt.Errorf("%w: unknown search mode %q", ErrInvalidInput, p.Mode)
	}
	if p.Page < 1 {
		return fmt.Errorf("%w: page %d", ErrOutOfRange, p.Page)
	}
	if p.PageSize < 1 {
		return fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidInput, p.PageSize)
	}
	if p.TopK < 0 {
		return fmt.Errorf("%w: top-k must not be negative, got %d", ErrInvalidInput, p.TopK)
	}
	return nil
}

// WithPage returns a copy of p targeting the given page.
// The document filter is copied so the two values never share storage.
func (p QueryParameters) WithPage(page int) QueryParameters {
	out := p
	out.Page = page
	if p.DocumentIDs != nil {
		out.DocumentIDs = slices.Clone(p.DocumentIDs)
	}
	return out
}

// HasDocumentFilter reports whether results are restricted to specific documents.
func (p QueryParameters) HasDocumentFilter() bool {
	return len(p.DocumentIDs) > 0
}
