package driving

import (
	"context"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

// HistoryService exposes recorded queries.
type HistoryService interface {
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error)

	// Clear deletes all entries.
	Clear(ctx context.Context) error
}
