package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

func TestHistoryService_RecordFillsIdentity(t *testing.T) {
	store := &mockHistoryStore{}
	svc := NewHistoryService(store)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	svc.Record(domain.HistoryEntry{Kind: domain.QueryKindSearch, Query: "leave"})
	svc.Record(domain.HistoryEntry{ID: "keep", Kind: domain.QueryKindRAG, Query: "why"})
	svc.Wait()

	entries := store.Entries()
	require.Len(t, entries, 2)
	byQuery := map[string]domain.HistoryEntry{}
	for _, e := range entries {
		byQuery[e.Query] = e
	}
	assert.NotEmpty(t, byQuery["leave"].ID)
	assert.Equal(t, fixed, byQuery["leave"].CreatedAt)
	assert.Equal(t, "keep", byQuery["why"].ID)
}

func TestHistoryService_SaveFailureIsSwallowed(t *testing.T) {
	store := &mockHistoryStore{saveErr: errors.New("disk full")}
	svc := NewHistoryService(store)

	svc.Record(domain.HistoryEntry{Kind: domain.QueryKindSearch, Query: "q"})
	svc.Wait()

	assert.Empty(t, store.Entries())
}

func TestHistoryService_Recent(t *testing.T) {
	store := &mockHistoryStore{}
	svc := NewHistoryService(store)
	ctx := context.Background()

	for _, q := range []string{"one", "two", "three"} {
		svc.Record(domain.HistoryEntry{Kind: domain.QueryKindSearch, Query: q})
		svc.Wait()
	}

	entries, err := svc.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "three", entries[0].Query)
	assert.Equal(t, "two", entries[1].Query)

	_, err = svc.Recent(ctx, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestHistoryService_Clear(t *testing.T) {
	store := &mockHistoryStore{}
	svc := NewHistoryService(store)
	ctx := context.Background()
	svc.Record(domain.HistoryEntry{Kind: domain.QueryKindSearch, Query: "q"})

	require.NoError(t, svc.Clear(ctx))

	entries, err := svc.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHistoryService_NilStore(t *testing.T) {
	svc := NewHistoryService(nil)
	ctx := context.Background()

	svc.Record(domain.HistoryEntry{Query: "ignored"})

	_, err := svc.Recent(ctx, 5)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.ErrorIs(t, svc.Clear(ctx), domain.ErrBackendUnavailable)
}

func TestHistoryService_RecordsOrchestratedQueries(t *testing.T) {
	store := &mockHistoryStore{}
	history := NewHistoryService(store)
	answers := newMockAnswerBackend()
	answers.answer = func(context.Context, domain.QueryParameters) (*domain.RagAnswer, error) {
		return &domain.RagAnswer{Answer: "42", Citations: []domain.Citation{{DocumentID: "d"}}}, nil
	}
	o := newTestOrchestrator(pagedBackend(7), answers, WithHistory(history))
	ctx := context.Background()

	require.NoError(t, o.Submit(ctx, searchSub("find")))
	require.NoError(t, o.Submit(ctx, ragSub("ask", false)))

	entries, err := history.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	kinds := map[domain.QueryKind]domain.HistoryEntry{}
	for _, e := range entries {
		kinds[e.Kind] = e
	}
	assert.Equal(t, 7, kinds[domain.QueryKindSearch].TotalMatches)
	assert.Equal(t, "42", kinds[domain.QueryKindRAG].Answer)
	assert.Equal(t, 1, kinds[domain.QueryKindRAG].CitationCount)
}
