package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ask/internal/logger"
)

// Ensure QueryOrchestrator implements the interface.
var _ driving.QuerySession = (*QueryOrchestrator)(nil)

// HistoryRecorder receives finished submissions. Implementations must
// not block the caller.
type HistoryRecorder interface {
	Record(entry domain.HistoryEntry)
}

// QueryOrchestrator routes submissions to the search controller or the
// answer session and merges their state into one view.
type QueryOrchestrator struct {
	search   *SearchController
	answers  *AnswerSession
	history  HistoryRecorder
	onChange func()

	// question holds the parameters of the answer being produced, read
	// by the answer listener without taking mu.
	question atomic.Pointer[domain.QueryParameters]

	mu      sync.Mutex
	gen     uint64
	mode    driving.QueryMode
	lastErr error
	closed  bool
}

// OrchestratorOption configures a QueryOrchestrator.
type OrchestratorOption func(*QueryOrchestrator)

// WithHistory records finished submissions.
func WithHistory(h HistoryRecorder) OrchestratorOption {
	return func(o *QueryOrchestrator) {
		o.history = h
	}
}

// WithChangeNotifier registers fn, called whenever the answer changes.
// fn runs while the answer session is locked and must return quickly
// without calling back into the orchestrator.
func WithChangeNotifier(fn func()) OrchestratorOption {
	return func(o *QueryOrchestrator) {
		o.onChange = fn
	}
}

// NewQueryOrchestrator creates an orchestrator over the given backends.
func NewQueryOrchestrator(
	search *SearchController,
	newAnswers func(driving.AnswerListener) *AnswerSession,
	opts ...OrchestratorOption,
) *QueryOrchestrator {
	o := &QueryOrchestrator{search: search}
	for _, opt := range opts {
		opt(o)
	}
	o.answers = newAnswers(o.answerChanged)
	return o
}

// Submit routes sub to search or question answering. A live streamed
// answer is cancelled before anything else starts. Errors are also kept
// in the view next to the previous results.
func (o *QueryOrchestrator) Submit(ctx context.Context, sub driving.Submission) error {
	gen, err := o.begin()
	if err != nil {
		return err
	}

	o.CancelAnswer()

	switch sub.Kind {
	case domain.QueryKindSearch:
		return o.submitSearch(ctx, gen, sub.Params)
	case domain.QueryKindRAG:
		return o.submitQuestion(ctx, gen, sub.Params, sub.Stream)
	default:
		err := fmt.Errorf("%w: unknown submission kind %q", domain.ErrInvalidInput, sub.Kind)
		return o.settle(gen, driving.QueryModeNone, err)
	}
}

func (o *QueryOrchestrator) submitSearch(ctx context.Context, gen uint64, params domain.QueryParameters) error {
	page, err := o.search.SubmitNewSearch(ctx, params)
	if err != nil {
		return o.settle(gen, driving.QueryModeNone, err)
	}

	o.record(domain.HistoryEntry{
		Kind:         domain.QueryKindSearch,
		Query:        params.Query,
		Mode:         params.Mode,
		TotalMatches: page.TotalMatches,
	})
	return o.settle(gen, driving.QueryModeSearch, nil)
}

func (o *QueryOrchestrator) submitQuestion(
	ctx context.Context, gen uint64, params domain.QueryParameters, stream bool,
) error {
	if err := validateQuestion(params); err != nil {
		return o.settle(gen, driving.QueryModeNone, err)
	}

	q := params.WithPage(params.Page)
	o.mu.Lock()
	if gen != o.gen {
		o.mu.Unlock()
		return nil
	}
	o.question.Store(&q)
	o.mode = driving.QueryModeRAG
	o.lastErr = nil
	o.mu.Unlock()

	var err error
	if stream {
		err = o.answers.Start(ctx, params)
	} else {
		err = o.answers.Answer(ctx, params)
	}
	if err != nil {
		return o.settle(gen, driving.QueryModeNone, err)
	}
	return nil
}

// GoToPage pages through the current search.
func (o *QueryOrchestrator) GoToPage(ctx context.Context, page int) error {
	gen, err := o.begin()
	if err != nil {
		return err
	}
	if _, err := o.search.GoToPage(ctx, page); err != nil {
		return o.settle(gen, driving.QueryModeNone, err)
	}
	return o.settle(gen, driving.QueryModeSearch, nil)
}

// CancelAnswer stops a live streamed answer. No-op otherwise.
func (o *QueryOrchestrator) CancelAnswer() {
	if o.answers.State().Phase.IsLive() {
		o.answers.Cancel()
	}
}

// AwaitAnswer blocks until the current answer is terminal or ctx ends.
func (o *QueryOrchestrator) AwaitAnswer(ctx context.Context) (domain.AnswerState, error) {
	select {
	case <-o.answers.Done():
		return o.answers.State(), nil
	case <-ctx.Done():
		return o.answers.State(), ctx.Err()
	}
}

// View returns a snapshot of the merged state.
func (o *QueryOrchestrator) View() driving.QueryView {
	o.mu.Lock()
	view := driving.QueryView{Mode: o.mode, Err: o.lastErr}
	o.mu.Unlock()

	if params, page, ok := o.search.Current(); ok {
		view.SearchPage = page
		view.SearchParams = &params
	}
	if st := o.answers.State(); st.Phase != domain.PhaseIdle {
		view.AnswerState = &st
	}
	return view
}

// Close cancels any live answer. Further submissions are rejected.
func (o *QueryOrchestrator) Close() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	o.CancelAnswer()
	return nil
}

// begin starts a submission and returns its generation. Only the
// newest generation may change the view's mode or error.
func (o *QueryOrchestrator) begin() (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return 0, fmt.Errorf("%w: session closed", domain.ErrInvalidState)
	}
	o.gen++
	return o.gen, nil
}

// settle applies the outcome of submission gen to the view. A nil err
// moves the view to mode and clears the error; QueryModeNone keeps the mode.
// Outcomes of submissions that a newer one has replaced are dropped,
// and so are lost races reported by the search controller or the
// answer session.
func (o *QueryOrchestrator) settle(gen uint64, mode driving.QueryMode, err error) error {
	if errors.Is(err, domain.ErrSuperseded) {
		logger.Debug("query #%d: %v", gen, err)
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.gen {
		if err != nil {
			logger.Debug("query #%d: dropping error, #%d is current: %v", gen, o.gen, err)
		}
		return nil
	}
	if err != nil {
		o.lastErr = err
		return err
	}
	if mode != driving.QueryModeNone {
		o.mode = mode
	}
	o.lastErr = nil
	return nil
}

func (o *QueryOrchestrator) answerChanged(st domain.AnswerState) {
	if st.Phase.IsTerminal() {
		if q := o.question.Load(); q != nil {
			o.record(domain.HistoryEntry{
				Kind:          domain.QueryKindRAG,
				Query:         q.Query,
				Mode:          q.Mode,
				Answer:        st.Answer,
				CitationCount: len(st.Citations),
				Phase:         st.Phase.String(),
			})
		}
	}
	if o.onChange != nil {
		o.onChange()
	}
}

func (o *QueryOrchestrator) record(entry domain.HistoryEntry) {
	if o.history != nil {
		o.history.Record(entry)
	}
}
