package driving

import (
	"context"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

// AnswerListener is called with a snapshot after every state change.
// It runs while the session lock is held and must not call back into
// the session.
type AnswerListener func(domain.AnswerState)

// AnswerSession drives one RAG answer at a time.
type AnswerSession interface {
	// Start opens a streamed answer, cancelling any live one first.
	Start(ctx context.Context, params domain.QueryParameters) error

	// Answer fetches a complete answer without streaming.
	Answer(ctx context.Context, params domain.QueryParameters) error

	// Cancel stops a live answer. No-op once terminal.
	Cancel()

	// Reset returns the session to a fresh idle state.
	Reset()

	// State returns a snapshot of the current answer.
	State() domain.AnswerState

	// Done returns a channel closed when the current run reaches a
	// terminal phase.
	Done() <-chan struct{}
}
