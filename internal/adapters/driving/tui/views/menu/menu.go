// Package menu provides the main navigation menu view for the TUI.
package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-ask/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. Quit items exit instead of changing view.
type Item struct {
	Label       string
	Description string
	View        messages.ViewType
	Quit        bool
}

var defaultItems = []Item{
	{Label: "Search", Description: "Find passages across your documents", View: messages.ViewSearch},
	{Label: "Ask", Description: "Get an answer with citations", View: messages.ViewAsk},
	{Label: "Filter documents", Description: "Restrict queries to chosen documents", View: messages.ViewFilter},
	{Label: "History", Description: "Repeat a recent query", View: messages.ViewHistory},
	{Label: "Help", View: messages.ViewHelp},
	{Label: "Quit", Quit: true},
}

var (
	searchShortcut = key.NewBinding(key.WithKeys("s", "/"), key.WithHelp("s", "search"))
	askShortcut    = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "ask"))
	quitShortcut   = key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit"))
)

// View is the main menu.
type View struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	items       []Item
	selected    int
	backend     string
	filterCount int
	width       int
	height      int
	ready       bool
}

// NewView creates a menu view.
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
		items:  defaultItems,
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor and emits ViewChanged on selection.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Up):
			v.selected = max(v.selected-1, 0)
		case key.Matches(msg, v.keymap.Down):
			v.selected = min(v.selected+1, len(v.items)-1)
		case key.Matches(msg, v.keymap.Select):
			return v, v.activate(v.items[v.selected])
		case key.Matches(msg, searchShortcut):
			return v, changeView(messages.ViewSearch)
		case key.Matches(msg, askShortcut):
			return v, changeView(messages.ViewAsk)
		case key.Matches(msg, quitShortcut):
			return v, tea.Quit
		}
	}
	return v, nil
}

func (v *View) activate(item Item) tea.Cmd {
	if item.Quit {
		return tea.Quit
	}
	return changeView(item.View)
}

func changeView(view messages.ViewType) tea.Cmd {
	return func() tea.Msg {
		return messages.ViewChanged{View: view}
	}
}

// View renders the menu.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Sercha Ask"))
	b.WriteString("\n\n")

	subtitle := "Search and question your document index"
	if v.backend != "" {
		subtitle += " at " + v.backend
	}
	b.WriteString(v.styles.Muted.Render(subtitle))
	b.WriteString("\n\n")

	for i, item := range v.items {
		b.WriteString(v.renderItem(item, i == v.selected))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render(helpLine(v.keymap.Up, v.keymap.Down, v.keymap.Select, searchShortcut, askShortcut, quitShortcut)))
	return b.String()
}

func (v *View) renderItem(item Item, selected bool) string {
	label := item.Label
	if item.View == messages.ViewFilter && v.filterCount > 0 {
		label += fmt.Sprintf(" (%d selected)", v.filterCount)
	}
	if !selected {
		return "  " + v.styles.Normal.Render(label)
	}
	line := "> " + v.styles.Subtitle.Render(label)
	if item.Description != "" {
		line += v.styles.Muted.Render("  " + item.Description)
	}
	return line
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, fmt.Sprintf("[%s] %s", h.Key, h.Desc))
	}
	return strings.Join(parts, "  ")
}

// SetBackend sets the backend URL shown under the title.
func (v *View) SetBackend(url string) {
	v.backend = url
}

// SetFilterCount sets how many documents the active filter selects.
func (v *View) SetFilterCount(n int) {
	v.filterCount = n
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the cursor index.
func (v *View) Selected() int {
	return v.selected
}
