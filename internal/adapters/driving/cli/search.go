package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
)

var (
	searchMode      string
	searchPage      int
	searchPageSize  int
	searchDocuments []string
	searchHighlight bool
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search backend documents",
	Long: `Searches the backend and prints one page of results.

Modes:
  hybrid    - keyword and semantic results combined (default)
  keyword   - full-text matching
  semantic  - vector similarity

Matched terms in snippets are shown in bold.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "", "search mode (hybrid, keyword, semantic)")
	searchCmd.Flags().IntVarP(&searchPage, "page", "p", 1, "result page to show")
	searchCmd.Flags().IntVar(&searchPageSize, "page-size", 0, "results per page (0 = configured default)")
	searchCmd.Flags().StringSliceVar(&searchDocuments, "doc", nil, "restrict to document ID (repeatable)")
	searchCmd.Flags().BoolVar(&searchHighlight, "highlight", true, "request highlighted snippets")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchPage < 1 {
		return fmt.Errorf("%w: --page must be at least 1", domain.ErrOutOfRange)
	}

	settings := currentSettings()
	params := settings.SearchParameters(args[0])
	if err := applyQueryFlags(&params, searchMode, searchDocuments); err != nil {
		return err
	}
	if searchPageSize > 0 {
		params.PageSize = searchPageSize
	}
	if cmd.Flags().Changed("highlight") {
		params.IncludeHighlight = searchHighlight
	}

	session, err := openSession(nil)
	if err != nil {
		return err
	}
	defer session.Close()

	ctx := cmd.Context()
	sub := driving.Submission{Kind: domain.QueryKindSearch, Params: params}
	if err := session.Submit(ctx, sub); err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if searchPage > 1 {
		if err := session.GoToPage(ctx, searchPage); err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
	}

	view := session.View()
	if searchJSON {
		return outputSearchJSON(cmd.OutOrStdout(), params, view.SearchPage)
	}
	outputSearchText(cmd.OutOrStdout(), view.SearchPage, settings.Markers)
	return nil
}

// applyQueryFlags applies the flags shared by search and ask.
func applyQueryFlags(params *domain.QueryParameters, mode string, docs []string) error {
	if mode != "" {
		m, err := domain.ParseSearchMode(mode)
		if err != nil {
			return err
		}
		params.Mode = m
	}
	if len(docs) > 0 {
		params.DocumentIDs = docs
	}
	return nil
}

type searchOutput struct {
	Query        string                    `json:"query"`
	Mode         domain.SearchMode         `json:"mode"`
	Page         int                       `json:"page"`
	PageCount    int                       `json:"pageCount"`
	TotalMatches int                       `json:"totalMatches"`
	Items        []domain.SearchResultItem `json:"items"`
}

func outputSearchJSON(w io.Writer, params domain.QueryParameters, page *domain.SearchResultPage) error {
	out := searchOutput{
		Query: params.Query,
		Mode:  params.Mode,
		Items: []domain.SearchResultItem{},
	}
	if page != nil {
		out.Page = page.RequestedPage
		out.PageCount = page.PageCount()
		out.TotalMatches = page.TotalMatches
		if page.Items != nil {
			out.Items = page.Items
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func outputSearchText(w io.Writer, page *domain.SearchResultPage, markers domain.HighlightMarkers) {
	if page.IsEmpty() {
		fmt.Fprintln(w, "No results found.")
		if page != nil && page.TotalMatches > 0 {
			fmt.Fprintf(w, "Page %d of %d (%d matches)\n", page.RequestedPage, page.PageCount(), page.TotalMatches)
		}
		return
	}

	offset := (page.RequestedPage - 1) * page.PageSize
	for i, item := range page.Items {
		fmt.Fprintf(w, "  [%d] %s %s\n", offset+i+1, itemTitle(item), mutedStyle.Render(fmt.Sprintf("(%.2f)", item.Score)))
		for _, line := range snippetLines(item, markers) {
			fmt.Fprintf(w, "      %s\n", line)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Page %d of %d (%d matches)\n", page.RequestedPage, page.PageCount(), page.TotalMatches)
}
