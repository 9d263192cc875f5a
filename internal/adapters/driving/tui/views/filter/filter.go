// Package filter provides the document filter view for the TUI.
package filter

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

// View lists backend documents and lets the user pick the ones
// searches and questions are restricted to.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	documents []domain.DocumentSummary
	chosen    map[string]bool
	cursor    int
	loading   bool
	err       error

	width  int
	height int
	ready  bool
}

// NewView creates a new filter view.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles: s,
		keymap: km,
		chosen: make(map[string]bool),
		width:  80,
		height: 24,
	}
}

// Init requests the document list.
func (v *View) Init() tea.Cmd {
	return v.load(false)
}

func (v *View) load(refresh bool) tea.Cmd {
	v.loading = true
	return func() tea.Msg {
		return messages.DocumentsRequested{Refresh: refresh}
	}
}

// Update handles messages for the filter view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.documents = msg.Documents
			if v.cursor >= len(v.documents) {
				v.cursor = max(len(v.documents)-1, 0)
			}
		}
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case keymap.Matches(key, v.keymap.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case keymap.Matches(key, v.keymap.Down):
		if v.cursor < len(v.documents)-1 {
			v.cursor++
		}
	case keymap.Matches(key, v.keymap.Toggle):
		if v.cursor < len(v.documents) {
			id := v.documents[v.cursor].ID
			if v.chosen[id] {
				delete(v.chosen, id)
			} else {
				v.chosen[id] = true
			}
		}
	case key == "c":
		clear(v.chosen)
	case keymap.Matches(key, v.keymap.Refresh):
		if !v.loading {
			return v, v.load(true)
		}
	case keymap.Matches(key, v.keymap.Select):
		ids := v.SelectedIDs()
		return v, func() tea.Msg {
			return messages.FilterChanged{DocumentIDs: ids}
		}
	}

	return v, nil
}

// View renders the filter view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Filter Documents"))
	b.WriteString("\n\n")

	switch {
	case v.loading && len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents found."))
	default:
		b.WriteString(v.renderList())
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render(v.summary()))
	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[space] Toggle  [c] Clear  [enter] Apply  [r] Refresh  [esc] Back"))

	return b.String()
}

func (v *View) renderList() string {
	visible := max(v.height-8, 1)
	start := 0
	if v.cursor >= visible {
		start = v.cursor - visible + 1
	}
	end := min(start+visible, len(v.documents))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		doc := v.documents[i]
		box := "[ ]"
		if v.chosen[doc.ID] {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s", box, doc.DisplayName())
		if i == v.cursor {
			lines = append(lines, v.styles.Selected.Render("> "+line))
		} else {
			lines = append(lines, v.styles.Normal.Render("  "+line))
		}
	}
	return strings.Join(lines, "\n")
}

func (v *View) summary() string {
	n := len(v.chosen)
	if n == 0 {
		return "No filter: queries search all documents"
	}
	if n == 1 {
		return "Queries restricted to 1 document"
	}
	return fmt.Sprintf("Queries restricted to %d documents", n)
}

// SelectedIDs returns the chosen document IDs in list order, followed
// by chosen IDs no longer in the list.
func (v *View) SelectedIDs() []string {
	ids := make([]string, 0, len(v.chosen))
	listed := make(map[string]bool, len(v.documents))
	for _, doc := range v.documents {
		listed[doc.ID] = true
		if v.chosen[doc.ID] {
			ids = append(ids, doc.ID)
		}
	}
	for id := range v.chosen {
		if !listed[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// SetSelected marks ids as chosen, replacing the current choice.
func (v *View) SetSelected(ids []string) {
	clear(v.chosen)
	for _, id := range ids {
		v.chosen[id] = true
	}
}

// Documents returns the listed documents.
func (v *View) Documents() []domain.DocumentSummary {
	return v.documents
}

// Cursor returns the highlighted row.
func (v *View) Cursor() int {
	return v.cursor
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}
