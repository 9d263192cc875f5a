// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

// Palette is the set of colours the styles are built from.
type Palette struct {
	Accent  lipgloss.Color // titles, selection background
	Link    lipgloss.Color // subtitles, citations
	Text    lipgloss.Color
	Dim     lipgloss.Color
	Match   lipgloss.Color // highlighted search terms
	Good    lipgloss.Color
	Pending lipgloss.Color
	Bad     lipgloss.Color
	Frame   lipgloss.Color
	Bar     lipgloss.Color
}

// DefaultPalette returns the dark palette used by sercha-ask.
func DefaultPalette() Palette {
	return Palette{
		Accent:  lipgloss.Color("#7C3AED"),
		Link:    lipgloss.Color("#06B6D4"),
		Text:    lipgloss.Color("#CDD6F4"),
		Dim:     lipgloss.Color("#6C7086"),
		Match:   lipgloss.Color("#FAB387"),
		Good:    lipgloss.Color("#A6E3A1"),
		Pending: lipgloss.Color("#F9E2AF"),
		Bad:     lipgloss.Color("#F38BA8"),
		Frame:   lipgloss.Color("#45475A"),
		Bar:     lipgloss.Color("#181825"),
	}
}

// Styles holds the lipgloss styles shared by views and components.
type Styles struct {
	palette Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	// Highlight marks matched terms inside snippets.
	Highlight lipgloss.Style
	// Score renders relevance scores next to results.
	Score lipgloss.Style
	// Answer indents generated answer text.
	Answer   lipgloss.Style
	Citation lipgloss.Style
}

// NewStyles builds styles from p.
func NewStyles(p Palette) *Styles {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	return &Styles{
		palette: p,

		Title:    fg(p.Accent).Bold(true),
		Subtitle: fg(p.Link).Bold(true),
		Normal:   fg(p.Text),
		Muted:    fg(p.Dim),
		Selected: fg(p.Text).Background(p.Accent).Bold(true),
		Help:     fg(p.Dim),

		Error:   fg(p.Bad),
		Success: fg(p.Good),
		Warning: fg(p.Pending),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Frame).
			Padding(0, 1),
		StatusBar: fg(p.Dim).Background(p.Bar).Padding(0, 1),

		Highlight: fg(p.Match).Bold(true),
		Score:     fg(p.Dim).Italic(true),
		Answer:    fg(p.Text).PaddingLeft(2),
		Citation:  fg(p.Link),
	}
}

// DefaultStyles returns styles built from the default palette.
func DefaultStyles() *Styles {
	return NewStyles(DefaultPalette())
}

// Palette returns the colours these styles were built from.
func (s *Styles) Palette() Palette {
	return s.palette
}

// Phase returns the style for an answer phase label.
func (s *Styles) Phase(p domain.AnswerPhase) lipgloss.Style {
	switch p {
	case domain.PhaseFailed:
		return s.Error
	case domain.PhaseCompleted:
		return s.Success
	case domain.PhaseCancelled, domain.PhaseIdle:
		return s.Muted
	default:
		return s.Warning
	}
}
