package driving

import (
	"context"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

// DocumentService lists documents for the filter selector.
type DocumentService interface {
	// List returns document summaries sorted by filename.
	List(ctx context.Context) ([]domain.DocumentSummary, error)

	// Refresh drops cached summaries.
	Refresh()
}
