package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

// SearchBackend runs paged searches on the remote corpus.
type SearchBackend interface {
	// Search returns the page described by params.
	Search(ctx context.Context, params domain.QueryParameters) (*domain.SearchResultPage, error)
}

// AnswerBackend produces RAG answers.
type AnswerBackend interface {
	// Answer returns a complete answer in one response.
	Answer(ctx context.Context, params domain.QueryParameters) (*domain.RagAnswer, error)

	// OpenAnswerStream sends params and returns the server-pushed event
	// stream. The caller owns the channel and must Close it.
	OpenAnswerStream(ctx context.Context, params domain.QueryParameters) (EventChannel, error)
}

// EventChannel is one open answer stream.
type EventChannel interface {
	// Next blocks until the next raw event payload arrives.
	// The payload is either domain.EndOfStreamSentinel or a JSON event;
	// classifying it is the caller's job. Returns io.EOF when the
	// transport ends without further payloads.
	Next(ctx context.Context) ([]byte, error)

	// Close releases the connection. Safe to call more than once and
	// concurrently with Next, which then returns an error.
	Close() error
}

// DocumentCatalog lists the documents available for filtering.
type DocumentCatalog interface {
	// ListDocuments returns a summary of every indexed document.
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)
}

// HealthChecker reports whether the backend is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
