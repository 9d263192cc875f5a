package httpapi

import (
	"time"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

// searchRequest is the POST /api/search body.
type searchRequest struct {
	Query            string   `json:"query"`
	SearchType       string   `json:"searchType"`
	DocumentIDs      []string `json:"documentIds,omitempty"`
	Page             int      `json:"page"`
	PageSize         int      `json:"pageSize"`
	IncludeHighlight bool     `json:"includeHighlight"`
}

// searchResult is one hit in a search response.
type searchResult struct {
	DocumentID    string   `json:"documentId"`
	Filename      string   `json:"filename"`
	PageNumber    *int     `json:"pageNumber"`
	Text          string   `json:"text"`
	TextHighlight []string `json:"textHighlight"`
	Score         float64  `json:"score"`
}

// searchResponse is the POST /api/search response.
type searchResponse struct {
	Results    []searchResult `json:"results"`
	Total      int            `json:"total"`
	Count      int            `json:"count"`
	Query      string         `json:"query"`
	SearchType string         `json:"searchType"`
}

// ragRequest is the body of both RAG endpoints.
type ragRequest struct {
	Query       string   `json:"query"`
	SearchType  string   `json:"searchType"`
	TopK        int      `json:"topK,omitempty"`
	DocumentIDs []string `json:"documentIds,omitempty"`
	Stream      bool     `json:"stream"`
}

// ragResponse is the POST /api/search/rag response.
type ragResponse struct {
	Answer    string            `json:"answer"`
	Citations []domain.Citation `json:"citations"`
	Query     string            `json:"query"`
}

// documentVO is one entry of GET /api/documents/.
type documentVO struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	Size         int64  `json:"size"`
	ContentType  string `json:"contentType"`
	LastModified string `json:"lastModified"`
}

// errorBody is the backend's error envelope.
type errorBody struct {
	Detail any `json:"detail"`
}

func newSearchRequest(p domain.QueryParameters) searchRequest {
	return searchRequest{
		Query:            p.Query,
		SearchType:       p.Mode.String(),
		DocumentIDs:      p.DocumentIDs,
		Page:             p.Page,
		PageSize:         p.PageSize,
		IncludeHighlight: p.IncludeHighlight,
	}
}

func newRAGRequest(p domain.QueryParameters, stream bool) ragRequest {
	return ragRequest{
		Query:       p.Query,
		SearchType:  p.Mode.String(),
		TopK:        p.TopK,
		DocumentIDs: p.DocumentIDs,
		Stream:      stream,
	}
}

func (r searchResponse) toPage(p domain.QueryParameters) *domain.SearchResultPage {
	items := make([]domain.SearchResultItem, 0, len(r.Results))
	for _, res := range r.Results {
		items = append(items, domain.SearchResultItem{
			DocumentID: res.DocumentID,
			Filename:   res.Filename,
			PageNumber: res.PageNumber,
			Text:       res.Text,
			Highlights: res.TextHighlight,
			Score:      res.Score,
		})
	}

	// Older backends leave total at zero and only fill count.
	total := r.Total
	if total == 0 && len(items) > 0 {
		total = (p.Page-1)*p.PageSize + len(items)
	}

	return &domain.SearchResultPage{
		Items:         items,
		TotalMatches:  total,
		RequestedPage: p.Page,
		PageSize:      p.PageSize,
	}
}

func (d documentVO) toSummary() domain.DocumentSummary {
	s := domain.DocumentSummary{
		ID:          d.ID,
		Filename:    d.Filename,
		Size:        d.Size,
		ContentType: d.ContentType,
	}
	s.LastModified = parseTimestamp(d.LastModified)
	return s
}

// timestampLayouts covers RFC 3339 and the zone-less ISO form Python
// emits for naive datetimes.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
