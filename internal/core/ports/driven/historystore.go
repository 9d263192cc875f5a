package driven

import (
	"context"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

// HistoryStore persists finished submissions.
type HistoryStore interface {
	// Save records an entry.
	Save(ctx context.Context, entry domain.HistoryEntry) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error)

	// Clear deletes every entry.
	Clear(ctx context.Context) error
}
