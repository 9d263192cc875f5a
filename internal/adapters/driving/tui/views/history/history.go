// Package history provides the recent queries view for the TUI.
package history

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

const timeLayout = "Jan 02 15:04"

// View lists recent searches and questions. Enter repeats one.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	entries    []domain.HistoryEntry
	cursor     int
	loading    bool
	confirming bool
	err        error

	width  int
	height int
	ready  bool
}

// NewView creates a new history view.
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
		width:  80,
		height: 24,
	}
}

// Init requests recent entries.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.confirming = false
	return func() tea.Msg { return messages.HistoryRequested{} }
}

// Update handles messages for the history view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.HistoryLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.entries = msg.Entries
			v.cursor = 0
		}

	case messages.HistoryCleared:
		v.err = msg.Err
		if msg.Err == nil {
			v.entries = nil
			v.cursor = 0
		}

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	if v.confirming {
		v.confirming = false
		if key == "y" {
			return v, func() tea.Msg { return messages.ClearHistoryRequested{} }
		}
		return v, nil
	}

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
		if v.cursor < len(v.entries)-1 {
			v.cursor++
		}
	case keymap.Matches(key, v.keymap.Select):
		if entry := v.SelectedEntry(); entry != nil {
			e := *entry
			return v, func() tea.Msg { return messages.RerunRequested{Entry: e} }
		}
	case keymap.Matches(key, v.keymap.Refresh):
		return v, v.Init()
	case key == "c":
		if len(v.entries) > 0 {
			v.confirming = true
		}
	}

	return v, nil
}

// View renders the history view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder

	b.WriteString(v.styles.Title.Render("History"))
	b.WriteString("\n\n")

	switch {
	case v.loading && len(v.entries) == 0:
		b.WriteString(v.styles.Muted.Render("Loading history..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
	case len(v.entries) == 0:
		b.WriteString(v.styles.Muted.Render("No history yet."))
	default:
		b.WriteString(v.renderEntries())
	}

	b.WriteString("\n\n")
	if v.confirming {
		b.WriteString(v.styles.Warning.Render("Clear all history? [y/N]"))
	} else {
		b.WriteString(v.styles.Help.Render("[enter] Run again  [r] Reload  [c] Clear  [esc] Back"))
	}

	return b.String()
}

func (v *View) renderEntries() string {
	// Two lines per entry.
	visible := max((v.height-6)/2, 1)
	start := 0
	if v.cursor >= visible {
		start = v.cursor - visible + 1
	}
	end := min(start+visible, len(v.entries))

	lines := make([]string, 0, (end-start)*2)
	for i := start; i < end; i++ {
		e := v.entries[i]
		head := fmt.Sprintf("%s  %-6s %-8s %s", e.CreatedAt.Local().Format(timeLayout), e.Kind, e.Mode, e.Query)
		if i == v.cursor {
			lines = append(lines, v.styles.Selected.Render("> "+head))
		} else {
			lines = append(lines, v.styles.Normal.Render("  "+head))
		}
		lines = append(lines, v.styles.Muted.Render("    "+detail(e, max(v.width-8, 20))))
	}
	return strings.Join(lines, "\n")
}

// detail summarises an entry's outcome on one line.
func detail(e domain.HistoryEntry, maxLen int) string {
	if e.Kind == domain.QueryKindSearch {
		return fmt.Sprintf("%d matches", e.TotalMatches)
	}

	s := fmt.Sprintf("%s, %d citations", e.Phase, e.CitationCount)
	if answer := strings.Join(strings.Fields(e.Answer), " "); answer != "" {
		s += ": " + answer
	}
	runes := []rune(s)
	if len(runes) > maxLen {
		s = string(runes[:maxLen-3]) + "..."
	}
	return s
}

// SelectedEntry returns the highlighted entry, or nil if none.
func (v *View) SelectedEntry() *domain.HistoryEntry {
	if v.cursor < 0 || v.cursor >= len(v.entries) {
		return nil
	}
	return &v.entries[v.cursor]
}

// Entries returns the listed entries.
func (v *View) Entries() []domain.HistoryEntry {
	return v.entries
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}
