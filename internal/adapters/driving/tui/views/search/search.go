// Package search provides the search view for the TUI.
package search

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

// View represents the search view with input, results list, and status bar.
// It emits request messages and renders the session views it is sent back.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QueryInput
	list      *list.ResultList
	statusbar *status.Bar

	mode      domain.SearchMode
	page      *domain.SearchResultPage
	searching bool

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = typing a query, false = navigating results
}

// NewView creates a new search view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQueryInput(s, "Search", "Enter search query..."),
		list:       list.NewResultList(s),
		statusbar:  status.NewBar(s, km),
		mode:       domain.SearchModeHybrid,
		width:      80,
		height:     24,
		focusInput: true,
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the search view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SearchCompleted:
		v.handleSearchCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusInput {
		v.input, cmd = v.input.Update(msg)
	}
	return v, cmd
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	if keymap.Matches(key, v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if keymap.Matches(key, v.keymap.CycleMode) {
		v.SetMode(v.mode.Next())
		return v, nil
	}

	if v.focusInput {
		if keymap.Matches(key, v.keymap.Submit) {
			return v, v.submit()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case keymap.Matches(key, v.keymap.Up):
		v.list.MoveUp()
	case keymap.Matches(key, v.keymap.Down):
		v.list.MoveDown()
	case keymap.Matches(key, v.keymap.NextPage):
		if v.page.HasNext() && !v.searching {
			return v, v.requestPage(v.page.RequestedPage + 1)
		}
	case keymap.Matches(key, v.keymap.PrevPage):
		if v.page.HasPrevious() && !v.searching {
			return v, v.requestPage(v.page.RequestedPage - 1)
		}
	case keymap.Matches(key, v.keymap.NewQuery):
		v.focusInput = true
		v.input.SetValue("")
		return v, v.input.Focus()
	}

	return v, nil
}

// submit emits a search request for the typed query.
func (v *View) submit() tea.Cmd {
	query := v.input.Value()
	if query == "" {
		return nil
	}

	v.searching = true
	v.statusbar.SetState(status.StateSearching)
	v.focusInput = false
	v.input.Blur()

	mode := v.mode
	return func() tea.Msg {
		return messages.SearchRequested{Query: query, Mode: mode}
	}
}

// Run searches for query as if it had been typed and submitted.
func (v *View) Run(query string) tea.Cmd {
	v.input.SetValue(query)
	return v.submit()
}

func (v *View) requestPage(page int) tea.Cmd {
	v.searching = true
	v.statusbar.SetState(status.StateSearching)
	return func() tea.Msg {
		return messages.PageRequested{Page: page}
	}
}

// handleSearchCompleted shows the session's current page. A failed
// request keeps the previous page visible next to the error.
func (v *View) handleSearchCompleted(msg messages.SearchCompleted) {
	v.searching = false

	if msg.View.SearchPage != nil {
		v.page = msg.View.SearchPage
		v.list.SetPage(msg.View.SearchPage)
	}

	err := msg.Err
	if err == nil {
		err = msg.View.Err
	}
	if err != nil {
		v.setError(err)
		return
	}

	v.err = nil
	v.statusbar.SetMessage("")
	v.statusbar.SetState(status.StateResults)
	v.statusbar.SetResultCount(totalMatches(v.page))
}

func totalMatches(p *domain.SearchResultPage) int {
	if p == nil {
		return 0
	}
	return p.TotalMatches
}

func pageLine(p *domain.SearchResultPage) string {
	line := fmt.Sprintf("Page %d of %d", p.RequestedPage, p.PageCount())
	if p.HasPrevious() {
		line = "[ prev  " + line
	}
	if p.HasNext() {
		line += "  next ]"
	}
	return line
}

func (v *View) setError(err error) {
	v.searching = false
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the search view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)

	sections = append(sections,
		v.styles.Title.Render("Search")+"  "+v.styles.Muted.Render(v.mode.Description()), "",
		v.input.View(), "",
	)

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	sections = append(sections, v.list.View())

	if v.page != nil && v.page.PageCount() > 1 {
		sections = append(sections, v.styles.Muted.Render(pageLine(v.page)))
	}

	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10) // header, input, page line, status
	v.statusbar.SetWidth(width)
}

// SetMode sets the mode new searches run with.
func (v *View) SetMode(mode domain.SearchMode) {
	if !mode.IsValid() {
		return
	}
	v.mode = mode
	v.statusbar.SetMode(mode)
}

// Mode returns the mode new searches run with.
func (v *View) Mode() domain.SearchMode {
	return v.mode
}

// SetMarkers sets the highlight markers snippets are parsed with.
func (v *View) SetMarkers(m domain.HighlightMarkers) {
	v.list.SetMarkers(m)
}

// SetFilterCount shows how many documents queries are restricted to.
func (v *View) SetFilterCount(n int) {
	v.statusbar.SetFilterCount(n)
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Query returns the current search query.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the search query.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Page returns the displayed page.
func (v *View) Page() *domain.SearchResultPage {
	return v.page
}

// SelectedIndex returns the index of the selected result.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Searching reports whether a request is in flight.
func (v *View) Searching() bool {
	return v.searching
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset resets the view to input mode with no results.
func (v *View) Reset() {
	v.focusInput = true
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetPage(nil)
	v.page = nil
	v.searching = false
	v.err = nil
	v.statusbar.Clear()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
