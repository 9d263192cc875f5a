package driving

import (
	"context"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

// QueryMode tells the UI which result kind is current.
type QueryMode string

// Query modes.
const (
	QueryModeNone   QueryMode = ""
	QueryModeSearch QueryMode = "search"
	QueryModeRAG    QueryMode = "rag"
)

// Submission is one user request.
type Submission struct {
	// Kind selects plain search or question answering.
	Kind domain.QueryKind

	// Params are the query parameters.
	Params domain.QueryParameters

	// Stream selects the streaming answer path for questions.
	Stream bool
}

// QueryView is the merged UI-facing state.
type QueryView struct {
	// Mode is the kind of the current query.
	Mode QueryMode

	// SearchPage is the last successfully displayed search page.
	SearchPage *domain.SearchResultPage

	// SearchParams are the parameters SearchPage was fetched with.
	SearchParams *domain.QueryParameters

	// AnswerState is the current answer, if a question was asked.
	AnswerState *domain.AnswerState

	// Err is the latest error. It sits alongside, never instead of,
	// the previously displayed results.
	Err error
}

// QuerySession is the single entry point the UI layers drive.
type QuerySession interface {
	// Submit routes a submission to search or question answering.
	Submit(ctx context.Context, sub Submission) error

	// GoToPage pages through the current search.
	GoToPage(ctx context.Context, page int) error

	// CancelAnswer stops a live streamed answer.
	CancelAnswer()

	// AwaitAnswer blocks until the current answer is terminal or ctx ends.
	AwaitAnswer(ctx context.Context) (domain.AnswerState, error)

	// View returns a snapshot of the merged state.
	View() QueryView

	// Close releases the live answer connection, if any.
	Close() error
}

// QuerySessionFactory opens a session against the configured backend.
// onChange, when non-nil, is called after every answer change; it must
// return quickly and must not call back into the session.
type QuerySessionFactory func(onChange func()) (QuerySession, error)
