package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ask/internal/logger"
)

// Ensure SearchController implements the interface.
var _ driving.SearchPaginator = (*SearchController)(nil)

// SearchController runs searches and pages through their results.
//
// Every request takes a sequence number when issued. A successful
// response replaces the current parameters and page together, and only
// when no newer request has been issued since, so neither a slow
// response nor one that overtakes a newer request is ever shown.
type SearchController struct {
	backend driven.SearchBackend

	mu         sync.Mutex
	issued     uint64
	applied    uint64
	params     domain.QueryParameters
	page       *domain.SearchResultPage
	hasCurrent bool
}

// NewSearchController creates a search controller.
func NewSearchController(backend driven.SearchBackend) *SearchController {
	return &SearchController{backend: backend}
}

// SubmitNewSearch runs params from page 1, whatever page it names.
// On failure the previous page stays current.
func (c *SearchController) SubmitNewSearch(
	ctx context.Context, params domain.QueryParameters,
) (*domain.SearchResultPage, error) {
	params = params.WithPage(1)
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return c.run(ctx, params)
}

// GoToPage re-runs the current search on the given page.
// The page is forwarded as is; pages past the end return whatever the
// backend sends, usually an empty item list.
func (c *SearchController) GoToPage(ctx context.Context, page int) (*domain.SearchResultPage, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page %d", domain.ErrOutOfRange, page)
	}

	c.mu.Lock()
	if !c.hasCurrent {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: no search to paginate", domain.ErrInvalidState)
	}
	params := c.params.WithPage(page)
	c.mu.Unlock()

	return c.run(ctx, params)
}

// Current returns the current parameters and page.
func (c *SearchController) Current() (domain.QueryParameters, *domain.SearchResultPage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasCurrent {
		return domain.QueryParameters{}, nil, false
	}
	return c.params.WithPage(c.params.Page), c.page.Clone(), true
}

func (c *SearchController) run(
	ctx context.Context, params domain.QueryParameters,
) (*domain.SearchResultPage, error) {
	if c.backend == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSearch, domain.ErrBackendUnavailable)
	}

	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	logger.Debug("search #%d: query=%q mode=%s page=%d size=%d", seq, params.Query, params.Mode, params.Page, params.PageSize)

	page, err := c.backend.Search(ctx, params)
	if err != nil {
		logger.Warn("search #%d failed: %v", seq, err)
		if errors.Is(err, domain.ErrSearch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrSearch, err)
	}
	if err := checkPage(page, params); err != nil {
		logger.Warn("search #%d returned invalid page: %v", seq, err)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.issued {
		logger.Debug("search #%d discarded: #%d is newer", seq, c.issued)
		return page, fmt.Errorf("search #%d: %w", seq, domain.ErrSuperseded)
	}
	c.applied = seq
	c.params = params
	c.page = page
	c.hasCurrent = true
	logger.Debug("search #%d applied: %d items, %d total", seq, len(page.Items), page.TotalMatches)

	return page.Clone(), nil
}

// checkPage rejects responses that break the page contract and fills in
// the request fields the backend left out.
func checkPage(page *domain.SearchResultPage, params domain.QueryParameters) error {
	if page == nil {
		return fmt.Errorf("%w: empty response", domain.ErrSearch)
	}
	if page.RequestedPage == 0 {
		page.RequestedPage = params.Page
	}
	if page.PageSize == 0 {
		page.PageSize = params.PageSize
	}
	if len(page.Items) > page.PageSize {
		return fmt.Errorf("%w: %d items exceed page size %d", domain.ErrSearch, len(page.Items), page.PageSize)
	}
	if page.TotalMatches < 0 {
		return fmt.Errorf("%w: negative total %d", domain.ErrSearch, page.TotalMatches)
	}
	return nil
}
