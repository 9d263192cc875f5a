package domain

// SearchResultItem represents a single search hit.
type SearchResultItem struct {
	// DocumentID identifies the matched document.
	DocumentID string `json:"documentId"`

	// Filename is the display name of the document.
	Filename string `json:"filename"`

	// PageNumber is the page the text was found on, if known.
	PageNumber *int `json:"pageNumber,omitempty"`

	// Text is the matched chunk text.
	Text string `json:"text"`

	// Highlights contains snippets with inline highlight markers.
	// Nil when highlighting was not requested or nothing matched.
	Highlights []string `json:"highlights,omitempty"`

	// Score is the relevance score in [0,1].
	Score float64 `json:"score"`
}

// SearchResultPage is one page of search results.
type SearchResultPage struct {
	// Items are the hits on this page, at most PageSize of them.
	Items []SearchResultItem `json:"items"`

	// TotalMatches is the backend's count over the whole corpus.
	TotalMatches int `json:"totalMatches"`

	// RequestedPage is the 1-based page that was requested.
	RequestedPage int `json:"requestedPage"`

	// PageSize is the page size that was requested.
	PageSize int `json:"pageSize"`
}

// PageCount returns ceil(TotalMatches / PageSize), the navigation bound.
func (p *SearchResultPage) PageCount() int {
	if p == nil || p.PageSize <= 0 || p.TotalMatches <= 0 {
		return 0
	}
	return (p.TotalMatches + p.PageSize - 1) / p.PageSize
}

// HasNext reports whether a page after RequestedPage exists.
func (p *SearchResultPage) HasNext() bool {
	return p != nil && p.RequestedPage < p.PageCount()
}

// HasPrevious reports whether a page before RequestedPage exists.
func (p *SearchResultPage) HasPrevious() bool {
	return p != nil && p.RequestedPage > 1
}

// IsEmpty reports whether the page has no items.
func (p *SearchResultPage) IsEmpty() bool {
	return p == nil || len(p.Items) == 0
}

// Clone returns a deep copy of the page.
func (p *SearchResultPage) Clone() *SearchResultPage {
	if p == nil {
		return nil
	}
	out := *p
	out.Items = make([]SearchResultItem, len(p.Items))
	for i, item := range p.Items {
		if item.Highlights != nil {
			item.Highlights = append([]string(nil), item.Highlights...)
		}
		if item.PageNumber != nil {
			n := *item.PageNumber
			item.PageNumber = &n
		}
		out.Items[i] = item
	}
	return &out
}
