package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driven"
)

// mockSearchBackend implements driven.SearchBackend for testing.
type mockSearchBackend struct {
	mu     sync.Mutex
	calls  []domain.QueryParameters
	search func(ctx context.Context, params domain.QueryParameters) (*domain.SearchResultPage, error)
}

func (m *mockSearchBackend) Search(ctx context.Context, params domain.QueryParameters) (*domain.SearchResultPage, error) {
	m.mu.Lock()
	m.calls = append(m.calls, params)
	m.mu.Unlock()
	return m.search(ctx, params)
}

func (m *mockSearchBackend) Calls() []domain.QueryParameters {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.QueryParameters(nil), m.calls...)
}

// pagedBackend serves total synthetic hits split into pages.
func pagedBackend(total int) *mockSearchBackend {
	return &mockSearchBackend{
		search: func(_ context.Context, p domain.QueryParameters) (*domain.SearchResultPage, error) {
			start := (p.Page - 1) * p.PageSize
			end := min(start+p.PageSize, total)
			var items []domain.SearchResultItem
			for i := start; i < end; i++ {
				items = append(items, domain.SearchResultItem{DocumentID: p.Query, Text: "hit", Score: 1})
			}
			return &domain.SearchResultPage{
				Items:         items,
				TotalMatches:  total,
				RequestedPage: p.Page,
				PageSize:      p.PageSize,
			}, nil
		},
	}
}

// scriptedStream implements driven.EventChannel. Payloads are fed
// through a channel so tests control timing.
type scriptedStream struct {
	payloads chan []byte
	errs     chan error
	closed   chan struct{}
	once     sync.Once
	closes   atomic.Int32
}

func newScriptedStream() *scriptedStream {
	return &scriptedStream{
		payloads: make(chan []byte, 16),
		errs:     make(chan error, 1),
		closed:   make(chan struct{}),
	}
}

func (s *scriptedStream) Send(payload string) { s.payloads <- []byte(payload) }

func (s *scriptedStream) Fail(err error) { s.errs <- err }

func (s *scriptedStream) Next(ctx context.Context) ([]byte, error) {
	select {
	case p := <-s.payloads:
		return p, nil
	case err := <-s.errs:
		return nil, err
	case <-s.closed:
		return nil, errors.New("use of closed stream")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *scriptedStream) Close() error {
	s.closes.Add(1)
	s.once.Do(func() { close(s.closed) })
	return nil
}

var _ driven.EventChannel = (*scriptedStream)(nil)

// mockAnswerBackend implements driven.AnswerBackend for testing.
type mockAnswerBackend struct {
	mu      sync.Mutex
	streams []*scriptedStream
	opened  chan *scriptedStream
	openErr error
	answer  func(ctx context.Context, params domain.QueryParameters) (*domain.RagAnswer, error)
}

func newMockAnswerBackend() *mockAnswerBackend {
	return &mockAnswerBackend{opened: make(chan *scriptedStream, 8)}
}

func (m *mockAnswerBackend) Answer(ctx context.Context, params domain.QueryParameters) (*domain.RagAnswer, error) {
	return m.answer(ctx, params)
}

func (m *mockAnswerBackend) OpenAnswerStream(_ context.Context, _ domain.QueryParameters) (driven.EventChannel, error) {
	if m.openErr != nil {
		return nil, m.openErr
	}
	s := newScriptedStream()
	m.mu.Lock()
	m.streams = append(m.streams, s)
	m.mu.Unlock()
	m.opened <- s
	return s, nil
}

// endlessEOF is a stream that ends without a sentinel.
type endlessEOF struct{ closes atomic.Int32 }

func (e *endlessEOF) Next(context.Context) ([]byte, error) { return nil, io.EOF }
func (e *endlessEOF) Close() error                         { e.closes.Add(1); return nil }

// mockHistoryStore implements driven.HistoryStore for testing.
type mockHistoryStore struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
	saveErr error
}

func (m *mockHistoryStore) Save(_ context.Context, e domain.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockHistoryStore) Recent(_ context.Context, limit int) ([]domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.HistoryEntry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *mockHistoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

func (m *mockHistoryStore) Entries() []domain.HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.HistoryEntry(nil), m.entries...)
}
