package driving

import (
	"context"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

// SearchPaginator runs searches and pages through their results while
// keeping the query parameters stable across page changes.
type SearchPaginator interface {
	// SubmitNewSearch runs params from page 1 and makes it current.
	SubmitNewSearch(ctx context.Context, params domain.QueryParameters) (*domain.SearchResultPage, error)

	// GoToPage re-runs the current search on another page.
	GoToPage(ctx context.Context, page int) (*domain.SearchResultPage, error)

	// Current returns the current parameters and page, if any search succeeded.
	Current() (domain.QueryParameters, *domain.SearchResultPage, bool)
}
