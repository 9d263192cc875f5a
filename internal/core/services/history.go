package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ask/internal/logger"
)

// Ensure HistoryService implements the interfaces.
var (
	_ driving.HistoryService = (*HistoryService)(nil)
	_ HistoryRecorder        = (*HistoryService)(nil)
)

// historySaveTimeout bounds one background save.
const historySaveTimeout = 5 * time.Second

// HistoryService records finished submissions and lists them.
// Recording happens in the background; failures are logged and never
// reach the query that produced the entry.
type HistoryService struct {
	store driven.HistoryStore
	now   func() time.Time
	wg    sync.WaitGroup
}

// NewHistoryService creates a history service.
func NewHistoryService(store driven.HistoryStore) *HistoryService {
	return &HistoryService{store: store, now: time.Now}
}

// Record saves entry in the background, filling in ID and CreatedAt.
func (s *HistoryService) Record(entry domain.HistoryEntry) {
	if s.store == nil {
		return
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), historySaveTimeout)
		defer cancel()
		if err := s.store.Save(ctx, entry); err != nil {
			logger.Warn("history: save %s entry: %v", entry.Kind, err)
		}
	}()
}

// Wait blocks until all pending saves have finished.
func (s *HistoryService) Wait() {
	s.wg.Wait()
}

// Recent returns up to limit entries, newest first.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if s.store == nil {
		return nil, domain.ErrBackendUnavailable
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", domain.ErrInvalidInput, limit)
	}
	s.Wait()
	return s.store.Recent(ctx, limit)
}

// Clear deletes all entries.
func (s *HistoryService) Clear(ctx context.Context) error {
	if s.store == nil {
		return domain.ErrBackendUnavailable
	}
	s.Wait()
	return s.store.Clear(ctx)
}
