package domain

import (
	"fmt"
	"net/url"
	"time"
)

// BackendSettings holds the remote backend connection configuration.
type BackendSettings struct {
	// URL is the backend base URL, e.g. http://localhost:8000.
	URL string

	// Timeout bounds plain request/response calls. Streams are not bounded.
	Timeout time.Duration

	// RequestsPerSecond throttles outgoing requests. Zero disables throttling.
	RequestsPerSecond float64
}

// Validate checks the backend URL is absolute.
func (b BackendSettings) Validate() error {
	u, err := url.Parse(b.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: backend url %q must be absolute", ErrInvalidInput, b.URL)
	}
	if b.Timeout < 0 {
		return fmt.Errorf("%w: backend timeout must not be negative", ErrInvalidInput)
	}
	return nil
}

// SearchSettings holds defaults for plain searches.
type SearchSettings struct {
	// Mode is the default retrieval mode.
	Mode SearchMode

	// PageSize is the default page size.
	PageSize int

	// Highlight requests highlighted snippets by default.
	Highlight bool
}

// RAGSettings holds defaults for question answering.
type RAGSettings struct {
	// TopK is the number of passages used as context.
	TopK int

	// Stream selects the streaming endpoint by default.
	Stream bool
}

// ClientSettings is the complete client configuration.
type ClientSettings struct {
	Backend BackendSettings
	Search  SearchSettings
	RAG     RAGSettings

	// Markers are the highlight delimiters the backend emits.
	Markers HighlightMarkers

	// DocumentCacheTTL is how long document summaries are cached.
	DocumentCacheTTL time.Duration
}

// DefaultClientSettings returns sensible defaults for a local backend.
func DefaultClientSettings() ClientSettings {
	return ClientSettings{
		Backend: BackendSettings{
			URL:               "http://localhost:8000",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
		},
		Search: SearchSettings{
			Mode:      SearchModeHybrid,
			PageSize:  DefaultPageSize,
			Highlight: true,
		},
		RAG: RAGSettings{
			TopK:   DefaultTopK,
			Stream: true,
		},
		Markers:          DefaultHighlightMarkers,
		DocumentCacheTTL: 5 * time.Minute,
	}
}

// Validate checks the settings are usable.
func (s ClientSettings) Validate() error {
	if err := s.Backend.Validate(); err != nil {
		return err
	}
	if !s.Search.Mode.IsValid() {
		return fmt.Errorf("%w: unknown search mode %q", ErrInvalidInput, s.Search.Mode)
	}
	if s.Search.PageSize < 1 {
		return fmt.Errorf("%w: page size must be positive", ErrInvalidInput)
	}
	if s.RAG.TopK < 0 {
		return fmt.Errorf("%w: top-k must not be negative", ErrInvalidInput)
	}
	if !s.Markers.IsValid() {
		return fmt.Errorf("%w: highlight markers must not be empty", ErrInvalidInput)
	}
	return nil
}

// SearchParameters builds first-page search parameters from the defaults.
func (s ClientSettings) SearchParameters(query string) QueryParameters {
	return QueryParameters{
		Query:            query,
		Mode:             s.Search.Mode,
		Page:             1,
		PageSize:         s.Search.PageSize,
		IncludeHighlight: s.Search.Highlight,
	}
}

// QuestionParameters builds RAG parameters from the defaults.
func (s ClientSettings) QuestionParameters(question string) QueryParameters {
	p := s.SearchParameters(question)
	p.TopK = s.RAG.TopK
	return p
}
