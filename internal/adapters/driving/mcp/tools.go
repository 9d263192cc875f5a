package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query       string   `json:"query" jsonschema:"the search text"`
	Mode        string   `json:"mode,omitempty" jsonschema:"keyword, semantic or hybrid (default from settings)"`
	Page        int      `json:"page,omitempty" jsonschema:"1-based page number (default 1)"`
	PageSize    int      `json:"pageSize,omitempty" jsonschema:"results per page (default from settings)"`
	DocumentIDs []string `json:"documentIds,omitempty" jsonschema:"only search these document ids"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results   []SearchResultOutput `json:"results"`
	Total     int                  `json:"total"`
	Page      int                  `json:"page"`
	PageCount int                  `json:"pageCount"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID string  `json:"documentId"`
	Filename   string  `json:"filename"`
	PageNumber *int    `json:"pageNumber,omitempty"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
	// Snippets are highlighted passages with matches in **bold**.
	Snippets []string `json:"snippets,omitempty"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question    string   `json:"question" jsonschema:"the question to answer from the documents"`
	Mode        string   `json:"mode,omitempty" jsonschema:"retrieval mode: keyword, semantic or hybrid"`
	TopK        int      `json:"topK,omitempty" jsonschema:"number of passages used as context"`
	DocumentIDs []string `json:"documentIds,omitempty" jsonschema:"only use these document ids"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string           `json:"answer"`
	Citations []CitationOutput `json:"citations"`
}

// CitationOutput is one source the answer refers to.
type CitationOutput struct {
	Marker     string `json:"marker,omitempty"`
	DocumentID string `json:"documentId"`
	Filename   string `json:"filename,omitempty"`
	PageNumber *int   `json:"pageNumber,omitempty"`
	Text       string `json:"text,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search the document corpus and return one page of matching passages",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the document corpus, with citations",
	}, s.handleAsk)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	settings := s.ports.settings()
	params := settings.SearchParameters(input.Query)
	params.IncludeHighlight = true
	params.DocumentIDs = input.DocumentIDs
	if input.PageSize > 0 {
		params.PageSize = input.PageSize
	}
	if err := applyMode(&params, input.Mode); err != nil {
		return nil, SearchOutput{}, err
	}

	session, err := s.ports.NewQuerySession(nil)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	defer session.Close()

	sub := driving.Submission{Kind: domain.QueryKindSearch, Params: params}
	if err := session.Submit(ctx, sub); err != nil {
		return nil, SearchOutput{}, err
	}
	if input.Page > 1 {
		if err := session.GoToPage(ctx, input.Page); err != nil {
			return nil, SearchOutput{}, err
		}
	}

	page := session.View().SearchPage
	if page == nil {
		return nil, SearchOutput{Results: []SearchResultOutput{}}, nil
	}

	output := SearchOutput{
		Results:   make([]SearchResultOutput, len(page.Items)),
		Total:     page.TotalMatches,
		Page:      page.RequestedPage,
		PageCount: page.PageCount(),
	}
	for i, item := range page.Items {
		output.Results[i] = SearchResultOutput{
			DocumentID: item.DocumentID,
			Filename:   item.Filename,
			PageNumber: item.PageNumber,
			Score:      item.Score,
			Text:       item.Text,
			Snippets:   markdownSnippets(settings.Markers, item.Highlights),
		}
	}

	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	settings := s.ports.settings()
	params := settings.QuestionParameters(input.Question)
	params.DocumentIDs = input.DocumentIDs
	if input.TopK > 0 {
		params.TopK = input.TopK
	}
	if err := applyMode(&params, input.Mode); err != nil {
		return nil, AskOutput{}, err
	}

	session, err := s.ports.NewQuerySession(nil)
	if err != nil {
		return nil, AskOutput{}, err
	}
	defer session.Close()

	sub := driving.Submission{Kind: domain.QueryKindRAG, Params: params}
	if err := session.Submit(ctx, sub); err != nil {
		return nil, AskOutput{}, err
	}

	st, err := session.AwaitAnswer(ctx)
	if err != nil {
		return nil, AskOutput{}, err
	}
	if st.Phase != domain.PhaseCompleted {
		if st.Err != nil {
			return nil, AskOutput{}, st.Err
		}
		return nil, AskOutput{}, fmt.Errorf("answer %s", st.Phase)
	}

	output := AskOutput{
		Answer:    st.Answer,
		Citations: make([]CitationOutput, len(st.Citations)),
	}
	for i, c := range st.Citations {
		output.Citations[i] = CitationOutput{
			Marker:     c.Marker,
			DocumentID: c.DocumentID,
			Filename:   c.Filename,
			PageNumber: c.PageNumber,
			Text:       c.SourceText,
		}
	}

	return nil, output, nil
}

func applyMode(params *domain.QueryParameters, mode string) error {
	if mode == "" {
		return nil
	}
	m, err := domain.ParseSearchMode(mode)
	if err != nil {
		return err
	}
	params.Mode = m
	return nil
}

// markdownSnippets renders highlight markers as markdown bold.
func markdownSnippets(markers domain.HighlightMarkers, snippets []string) []string {
	if len(snippets) == 0 {
		return nil
	}
	out := make([]string, len(snippets))
	for i, snippet := range snippets {
		var b strings.Builder
		for _, seg := range markers.Parse(snippet) {
			if seg.Highlighted {
				b.WriteString("**" + seg.Text + "**")
			} else {
				b.WriteString(seg.Text)
			}
		}
		out[i] = b.String()
	}
	return out
}
