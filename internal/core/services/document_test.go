package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

// mockCatalog implements driven.DocumentCatalog for testing.
type mockCatalog struct {
	mu    sync.Mutex
	docs  []domain.DocumentSummary
	err   error
	calls int
}

func (m *mockCatalog) ListDocuments(context.Context) ([]domain.DocumentSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return append([]domain.DocumentSummary(nil), m.docs...), nil
}

func (m *mockCatalog) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func sampleCatalog() *mockCatalog {
	return &mockCatalog{docs: []domain.DocumentSummary{
		{ID: "3", Filename: "zeta.pdf"},
		{ID: "1", Filename: "Alpha.docx"},
		{ID: "b-only-id"},
		{ID: "2", Filename: "beta.txt"},
	}}
}

func TestDocumentService_ListSortsByName(t *testing.T) {
	svc := NewDocumentService(sampleCatalog(), 0)

	docs, err := svc.List(context.Background())

	require.NoError(t, err)
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.DisplayName()
	}
	assert.Equal(t, []string{"Alpha.docx", "b-only-id", "beta.txt", "zeta.pdf"}, names)
}

func TestDocumentService_ListCaches(t *testing.T) {
	catalog := sampleCatalog()
	svc := NewDocumentService(catalog, time.Minute)
	ctx := context.Background()

	first, err := svc.List(ctx)
	require.NoError(t, err)
	first[0].Filename = "mutated"

	second, err := svc.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, catalog.Calls())
	assert.Equal(t, "Alpha.docx", second[0].Filename)
}

func TestDocumentService_Refresh(t *testing.T) {
	catalog := sampleCatalog()
	svc := NewDocumentService(catalog, time.Minute)
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.NoError(t, err)
	svc.Refresh()
	_, err = svc.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, catalog.Calls())
}

func TestDocumentService_NoCache(t *testing.T) {
	catalog := sampleCatalog()
	svc := NewDocumentService(catalog, 0)
	ctx := context.Background()

	for range 3 {
		_, err := svc.List(ctx)
		require.NoError(t, err)
	}
	svc.Refresh()

	assert.Equal(t, 3, catalog.Calls())
}

func TestDocumentService_Errors(t *testing.T) {
	t.Run("catalog error is not cached", func(t *testing.T) {
		catalog := &mockCatalog{err: errors.New("connection refused")}
		svc := NewDocumentService(catalog, time.Minute)

		_, err := svc.List(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")

		catalog.mu.Lock()
		catalog.err = nil
		catalog.mu.Unlock()
		_, err = svc.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, catalog.Calls())
	})

	t.Run("nil catalog", func(t *testing.T) {
		svc := NewDocumentService(nil, time.Minute)

		_, err := svc.List(context.Background())

		assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	})
}
