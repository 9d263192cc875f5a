package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
)

// recordingHistory implements HistoryRecorder for testing.
type recordingHistory struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (r *recordingHistory) Record(e domain.HistoryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

func (r *recordingHistory) Entries() []domain.HistoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.HistoryEntry(nil), r.entries...)
}

func newTestOrchestrator(
	search *mockSearchBackend, answers *mockAnswerBackend, opts ...OrchestratorOption,
) *QueryOrchestrator {
	return NewQueryOrchestrator(
		NewSearchController(search),
		func(l driving.AnswerListener) *AnswerSession {
			return NewAnswerSession(answers, WithAnswerListener(l))
		},
		opts...,
	)
}

func searchSub(q string) driving.Submission {
	return driving.Submission{Kind: domain.QueryKindSearch, Params: domain.NewQueryParameters(q, domain.SearchModeHybrid)}
}

func ragSub(q string, stream bool) driving.Submission {
	return driving.Submission{Kind: domain.QueryKindRAG, Params: question(q), Stream: stream}
}

func TestQueryOrchestrator_InitialView(t *testing.T) {
	o := newTestOrchestrator(pagedBackend(0), newMockAnswerBackend())

	view := o.View()

	assert.Equal(t, driving.QueryModeNone, view.Mode)
	assert.Nil(t, view.SearchPage)
	assert.Nil(t, view.AnswerState)
	assert.NoError(t, view.Err)
}

func TestQueryOrchestrator_Search(t *testing.T) {
	history := &recordingHistory{}
	o := newTestOrchestrator(pagedBackend(45), newMockAnswerBackend(), WithHistory(history))
	ctx := context.Background()

	require.NoError(t, o.Submit(ctx, searchSub("leave")))
	require.NoError(t, o.GoToPage(ctx, 3))

	view := o.View()
	assert.Equal(t, driving.QueryModeSearch, view.Mode)
	require.NotNil(t, view.SearchPage)
	assert.Equal(t, 3, view.SearchPage.RequestedPage)
	assert.Equal(t, 5, view.SearchPage.PageCount())
	require.NotNil(t, view.SearchParams)
	assert.Equal(t, "leave", view.SearchParams.Query)

	entries := history.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.QueryKindSearch, entries[0].Kind)
	assert.Equal(t, 45, entries[0].TotalMatches)
}

func TestQueryOrchestrator_ErrorSitsBesideResults(t *testing.T) {
	fail := atomic.Bool{}
	good := pagedBackend(20)
	backend := &mockSearchBackend{
		search: func(ctx context.Context, p domain.QueryParameters) (*domain.SearchResultPage, error) {
			if fail.Load() {
				return nil, errors.New("timeout")
			}
			return good.search(ctx, p)
		},
	}
	o := newTestOrchestrator(backend, newMockAnswerBackend())
	ctx := context.Background()

	require.NoError(t, o.Submit(ctx, searchSub("first")))
	fail.Store(true)
	err := o.GoToPage(ctx, 2)
	require.ErrorIs(t, err, domain.ErrSearch)

	view := o.View()
	assert.ErrorIs(t, view.Err, domain.ErrSearch)
	require.NotNil(t, view.SearchPage)
	assert.Equal(t, 1, view.SearchPage.RequestedPage)

	// A later success clears the error.
	fail.Store(false)
	require.NoError(t, o.GoToPage(ctx, 2))
	assert.NoError(t, o.View().Err)
}

func TestQueryOrchestrator_GoToPageBeforeSearch(t *testing.T) {
	o := newTestOrchestrator(pagedBackend(10), newMockAnswerBackend())

	err := o.GoToPage(context.Background(), 1)

	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.ErrorIs(t, o.View().Err, domain.ErrInvalidState)
}

func TestQueryOrchestrator_StreamingQuestion(t *testing.T) {
	answers := newMockAnswerBackend()
	history := &recordingHistory{}
	var changes atomic.Int32
	o := newTestOrchestrator(pagedBackend(0), answers,
		WithHistory(history),
		WithChangeNotifier(func() { changes.Add(1) }),
	)
	ctx := context.Background()

	require.NoError(t, o.Submit(ctx, ragSub("how many days?", true)))
	stream := openStream(t, answers)
	stream.Send(`{"type": "answer", "content": "Twenty"}`)
	stream.Send(`{"type": "answer", "content": " days."}`)
	stream.Send(`{"type": "citations", "content": [{"documentId": "d1", "marker": "[1]"}]}`)
	stream.Send("[DONE]")

	st, err := o.AwaitAnswer(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseCompleted, st.Phase)
	assert.Equal(t, "Twenty days.", st.Answer)

	view := o.View()
	assert.Equal(t, driving.QueryModeRAG, view.Mode)
	require.NotNil(t, view.AnswerState)
	assert.Equal(t, "Twenty days.", view.AnswerState.Answer)
	assert.GreaterOrEqual(t, changes.Load(), int32(5))

	require.Eventually(t, func() bool { return len(history.Entries()) == 1 }, waitFor, time.Millisecond)
	entry := history.Entries()[0]
	assert.Equal(t, domain.QueryKindRAG, entry.Kind)
	assert.Equal(t, "how many days?", entry.Query)
	assert.Equal(t, "completed", entry.Phase)
	assert.Equal(t, 1, entry.CitationCount)
}

func TestQueryOrchestrator_NonStreamingQuestion(t *testing.T) {
	answers := newMockAnswerBackend()
	answers.answer = func(context.Context, domain.QueryParameters) (*domain.RagAnswer, error) {
		return &domain.RagAnswer{Answer: "Yes."}, nil
	}
	o := newTestOrchestrator(pagedBackend(0), answers)

	require.NoError(t, o.Submit(context.Background(), ragSub("q", false)))

	view := o.View()
	require.NotNil(t, view.AnswerState)
	assert.Equal(t, domain.PhaseCompleted, view.AnswerState.Phase)
	assert.Equal(t, "Yes.", view.AnswerState.Answer)
}

func TestQueryOrchestrator_NewSubmissionCancelsLiveStream(t *testing.T) {
	answers := newMockAnswerBackend()
	history := &recordingHistory{}
	o := newTestOrchestrator(pagedBackend(10), answers, WithHistory(history))
	ctx := context.Background()

	require.NoError(t, o.Submit(ctx, ragSub("first question", true)))
	first := openStream(t, answers)
	first.Send(`{"type": "answer", "content": "partial"}`)
	require.Eventually(t, func() bool {
		v := o.View()
		return v.AnswerState != nil && v.AnswerState.Answer == "partial"
	}, waitFor, time.Millisecond)

	require.NoError(t, o.Submit(ctx, searchSub("now a search")))

	assert.Equal(t, int32(1), first.closes.Load())
	view := o.View()
	assert.Equal(t, driving.QueryModeSearch, view.Mode)
	require.NotNil(t, view.AnswerState)
	assert.Equal(t, domain.PhaseCancelled, view.AnswerState.Phase)

	require.Eventually(t, func() bool { return len(history.Entries()) == 2 }, waitFor, time.Millisecond)
	entries := history.Entries()
	assert.Equal(t, "first question", entries[0].Query)
	assert.Equal(t, "cancelled", entries[0].Phase)
	assert.Equal(t, "now a search", entries[1].Query)
}

func TestQueryOrchestrator_QuestionReplacesQuestion(t *testing.T) {
	answers := newMockAnswerBackend()
	o := newTestOrchestrator(pagedBackend(0), answers)
	ctx := context.Background()

	require.NoError(t, o.Submit(ctx, ragSub("one", true)))
	first := openStream(t, answers)

	require.NoError(t, o.Submit(ctx, ragSub("two", true)))
	second := openStream(t, answers)
	assert.Equal(t, int32(1), first.closes.Load())

	first.Send(`{"type": "answer", "content": "stale"}`)
	second.Send(`{"type": "answer", "content": "fresh"}`)
	second.Send("[DONE]")

	st, err := o.AwaitAnswer(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fresh", st.Answer)
}

func TestQueryOrchestrator_StreamFailureInView(t *testing.T) {
	answers := newMockAnswerBackend()
	o := newTestOrchestrator(pagedBackend(0), answers)
	ctx := context.Background()

	require.NoError(t, o.Submit(ctx, ragSub("q", true)))
	stream := openStream(t, answers)
	stream.Send(`{"type": "answer", "content": "half"}`)
	stream.Send(`{"type": "error", "content": "boom"}`)

	st, err := o.AwaitAnswer(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseFailed, st.Phase)
	assert.Equal(t, "half", st.Answer)
	assert.ErrorIs(t, o.View().AnswerState.Err, domain.ErrAnswerFailed)
}

func TestQueryOrchestrator_CancelAnswer(t *testing.T) {
	answers := newMockAnswerBackend()
	o := newTestOrchestrator(pagedBackend(0), answers)
	ctx := context.Background()

	// No live answer: nothing changes.
	o.CancelAnswer()
	assert.Nil(t, o.View().AnswerState)

	require.NoError(t, o.Submit(ctx, ragSub("q", true)))
	stream := openStream(t, answers)
	o.CancelAnswer()
	o.CancelAnswer()

	assert.Equal(t, domain.PhaseCancelled, o.View().AnswerState.Phase)
	assert.Equal(t, int32(1), stream.closes.Load())
}

func TestQueryOrchestrator_AwaitAnswerContext(t *testing.T) {
	answers := newMockAnswerBackend()
	o := newTestOrchestrator(pagedBackend(0), answers)

	require.NoError(t, o.Submit(context.Background(), ragSub("q", true)))
	openStream(t, answers)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	st, err := o.AwaitAnswer(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, st.Phase.IsLive())
	require.NoError(t, o.Close())
}

func TestQueryOrchestrator_Close(t *testing.T) {
	answers := newMockAnswerBackend()
	o := newTestOrchestrator(pagedBackend(5), answers)
	ctx := context.Background()

	require.NoError(t, o.Submit(ctx, ragSub("q", true)))
	stream := openStream(t, answers)

	require.NoError(t, o.Close())
	assert.Equal(t, int32(1), stream.closes.Load())

	err := o.Submit(ctx, searchSub("after close"))
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestQueryOrchestrator_UnknownKind(t *testing.T) {
	o := newTestOrchestrator(pagedBackend(0), newMockAnswerBackend())

	err := o.Submit(context.Background(), driving.Submission{Kind: "browse", Params: question("q")})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, o.View().Err, domain.ErrInvalidInput)
}

func TestQueryOrchestrator_SupersededSearchIsNotAnError(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	backend := &mockSearchBackend{
		search: func(_ context.Context, p domain.QueryParameters) (*domain.SearchResultPage, error) {
			if p.Query == "slow" {
				close(started)
				<-release
			}
			return &domain.SearchResultPage{TotalMatches: 0, RequestedPage: p.Page, PageSize: p.PageSize}, nil
		},
	}
	o := newTestOrchestrator(backend, newMockAnswerBackend())
	ctx := context.Background()

	errs := make(chan error, 1)
	go func() { errs <- o.Submit(ctx, searchSub("slow")) }()
	<-started
	require.NoError(t, o.Submit(ctx, searchSub("fast")))
	close(release)

	assert.NoError(t, <-errs)
	assert.NoError(t, o.View().Err)
	assert.Equal(t, "fast", o.View().SearchParams.Query)
}

func TestQueryOrchestrator_SlowSearchKeepsNewerQuestion(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	backend := &mockSearchBackend{
		search: func(_ context.Context, p domain.QueryParameters) (*domain.SearchResultPage, error) {
			close(started)
			<-release
			return &domain.SearchResultPage{TotalMatches: 3, RequestedPage: p.Page, PageSize: p.PageSize}, nil
		},
	}
	answers := newMockAnswerBackend()
	answers.answer = func(context.Context, domain.QueryParameters) (*domain.RagAnswer, error) {
		return &domain.RagAnswer{Answer: "Twenty days."}, nil
	}
	history := &recordingHistory{}
	o := newTestOrchestrator(backend, answers, WithHistory(history))
	ctx := context.Background()

	errs := make(chan error, 1)
	go func() { errs <- o.Submit(ctx, searchSub("slow")) }()
	<-started
	require.NoError(t, o.Submit(ctx, ragSub("how much leave?", false)))
	close(release)
	require.NoError(t, <-errs)

	view := o.View()
	assert.Equal(t, driving.QueryModeRAG, view.Mode)
	assert.NoError(t, view.Err)
	require.NotNil(t, view.AnswerState)
	assert.Equal(t, "Twenty days.", view.AnswerState.Answer)
}

func TestQueryOrchestrator_StaleSearchFailureIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	backend := &mockSearchBackend{
		search: func(_ context.Context, p domain.QueryParameters) (*domain.SearchResultPage, error) {
			if p.Query == "slow" {
				close(started)
				<-release
				return nil, errors.New("boom")
			}
			return &domain.SearchResultPage{TotalMatches: 4, RequestedPage: p.Page, PageSize: p.PageSize}, nil
		},
	}
	o := newTestOrchestrator(backend, newMockAnswerBackend())
	ctx := context.Background()

	errs := make(chan error, 1)
	go func() { errs <- o.Submit(ctx, searchSub("slow")) }()
	<-started
	require.NoError(t, o.Submit(ctx, searchSub("fast")))
	close(release)

	assert.NoError(t, <-errs)
	view := o.View()
	assert.NoError(t, view.Err)
	assert.Equal(t, driving.QueryModeSearch, view.Mode)
	require.NotNil(t, view.SearchParams)
	assert.Equal(t, "fast", view.SearchParams.Query)
}

func TestQueryOrchestrator_StalePageFailureIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	backend := &mockSearchBackend{
		search: func(_ context.Context, p domain.QueryParameters) (*domain.SearchResultPage, error) {
			if p.Page == 2 {
				close(started)
				<-release
				return nil, errors.New("timeout")
			}
			return &domain.SearchResultPage{TotalMatches: 30, RequestedPage: p.Page, PageSize: p.PageSize}, nil
		},
	}
	o := newTestOrchestrator(backend, newMockAnswerBackend())
	ctx := context.Background()

	require.NoError(t, o.Submit(ctx, searchSub("leave")))

	errs := make(chan error, 1)
	go func() { errs <- o.GoToPage(ctx, 2) }()
	<-started
	require.NoError(t, o.GoToPage(ctx, 3))
	close(release)

	assert.NoError(t, <-errs)
	view := o.View()
	assert.NoError(t, view.Err)
	require.NotNil(t, view.SearchPage)
	assert.Equal(t, 3, view.SearchPage.RequestedPage)
}
