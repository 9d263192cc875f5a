// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

// linesPerResult is the rendered height of one result: title, snippet, gap.
const linesPerResult = 3

// ResultList displays one page of search results in a navigable list.
type ResultList struct {
	page     *domain.SearchResultPage
	markers  domain.HighlightMarkers
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewResultList creates a new result list component.
func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ResultList{
		markers: domain.DefaultHighlightMarkers,
		styles:  s,
		width:   80,
		height:  10,
	}
}

// Init initialises the result list.
func (r *ResultList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the result list.
func (r *ResultList) View() string {
	if r.IsEmpty() {
		return r.styles.Muted.Render("No results")
	}

	items := r.page.Items
	lines := make([]string, 0, len(items)*linesPerResult+2)

	header := fmt.Sprintf("Results %d-%d of %d", r.offset()+1, r.offset()+len(items), r.page.TotalMatches)
	lines = append(lines, r.styles.Subtitle.Render(header), "")

	visibleCount := (r.height - 4) / linesPerResult
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(items))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderResult(i, &items[i]))
	}

	return strings.Join(lines, "\n")
}

// renderResult formats one item with its first highlighted snippet.
func (r *ResultList) renderResult(index int, item *domain.SearchResultItem) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	title := item.Filename
	if title == "" {
		title = item.DocumentID
	}
	if item.PageNumber != nil {
		title = fmt.Sprintf("%s (page %d)", title, *item.PageNumber)
	}
	title = fmt.Sprintf("%d. %s", r.offset()+index+1, title)
	title = truncate(title, max(r.width-20, 10))

	score := fmt.Sprintf("%.2f", item.Score)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(indicator+title) + "  " + r.styles.Score.Render(score)
	} else {
		titleLine = r.styles.Normal.Render(indicator+title) + "  " + r.styles.Score.Render(score)
	}

	return titleLine + "\n    " + r.renderSnippet(item) + "\n"
}

// renderSnippet styles the highlighted runs of the first snippet.
func (r *ResultList) renderSnippet(item *domain.SearchResultItem) string {
	segments := r.markers.HighlightItem(item.Text, item.Highlights)[0]

	budget := max(r.width-6, 20)
	var b strings.Builder
	for _, seg := range segments {
		if budget <= 0 {
			break
		}
		text := truncate(strings.ReplaceAll(seg.Text, "\n", " "), budget)
		budget -= len([]rune(text))

		if seg.Highlighted {
			b.WriteString(r.styles.Highlight.Render(text))
		} else {
			b.WriteString(r.styles.Muted.Render(text))
		}
	}
	return b.String()
}

// offset is the zero-based rank of the first item on the page.
func (r *ResultList) offset() int {
	if r.page == nil || r.page.RequestedPage < 1 {
		return 0
	}
	return (r.page.RequestedPage - 1) * r.page.PageSize
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// SetPage replaces the displayed page and resets the selection.
func (r *ResultList) SetPage(page *domain.SearchResultPage) {
	r.page = page
	r.selected = 0
}

// Page returns the displayed page.
func (r *ResultList) Page() *domain.SearchResultPage {
	return r.page
}

// SetMarkers sets the highlight markers snippets are parsed with.
func (r *ResultList) SetMarkers(m domain.HighlightMarkers) {
	if m.IsValid() {
		r.markers = m
	}
}

// Selected returns the index of the selected result.
func (r *ResultList) Selected() int {
	return r.selected
}

// SetSelected sets the selected index.
func (r *ResultList) SetSelected(index int) {
	if index >= 0 && index < r.Count() {
		r.selected = index
	}
}

// SelectedItem returns the currently selected item, or nil if none.
func (r *ResultList) SelectedItem() *domain.SearchResultItem {
	if r.IsEmpty() || r.selected < 0 || r.selected >= r.Count() {
		return nil
	}
	return &r.page.Items[r.selected]
}

// MoveUp moves selection up.
func (r *ResultList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ResultList) MoveDown() {
	if r.selected < r.Count()-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Width returns the current width.
func (r *ResultList) Width() int {
	return r.width
}

// Height returns the current height.
func (r *ResultList) Height() int {
	return r.height
}

// Count returns the number of items on the page.
func (r *ResultList) Count() int {
	if r.page == nil {
		return 0
	}
	return len(r.page.Items)
}

// IsEmpty returns whether the list is empty.
func (r *ResultList) IsEmpty() bool {
	return r.page.IsEmpty()
}
