package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ask/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

const documentsCacheKey = "documents"

// DocumentService lists backend documents for the filter selector.
// Summaries are cached for the configured TTL.
type DocumentService struct {
	catalog driven.DocumentCatalog
	cache   *cache.Cache
}

// NewDocumentService creates a document service. A ttl of zero or less
// disables caching.
func NewDocumentService(catalog driven.DocumentCatalog, ttl time.Duration) *DocumentService {
	var c *cache.Cache
	if ttl > 0 {
		c = cache.New(ttl, 2*ttl)
	}
	return &DocumentService{catalog: catalog, cache: c}
}

// List returns document summaries sorted by filename.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentSummary, error) {
	if s.catalog == nil {
		return nil, domain.ErrBackendUnavailable
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(documentsCacheKey); ok {
			logger.Debug("documents: cache hit")
			return cloneSummaries(cached.([]domain.DocumentSummary)), nil
		}
	}

	docs, err := s.catalog.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return strings.ToLower(docs[i].DisplayName()) < strings.ToLower(docs[j].DisplayName())
	})
	logger.Debug("documents: fetched %d", len(docs))

	if s.cache != nil {
		s.cache.SetDefault(documentsCacheKey, cloneSummaries(docs))
	}
	return docs, nil
}

// Refresh drops cached summaries.
func (s *DocumentService) Refresh() {
	if s.cache != nil {
		s.cache.Delete(documentsCacheKey)
	}
}

func cloneSummaries(in []domain.DocumentSummary) []domain.DocumentSummary {
	return append([]domain.DocumentSummary(nil), in...)
}
