package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
)

var (
	highlightStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle     = lipgloss.NewStyle().Faint(true)
)

// renderSegments joins segments, rendering highlighted ones in bold.
func renderSegments(segments []domain.HighlightSegment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Highlighted {
			b.WriteString(highlightStyle.Render(s.Text))
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// snippetLines returns the display lines for one search result.
func snippetLines(item domain.SearchResultItem, markers domain.HighlightMarkers) []string {
	parsed := markers.HighlightItem(item.Text, item.Highlights)
	lines := make([]string, 0, len(parsed))
	for _, segments := range parsed {
		line := strings.Join(strings.Fields(renderSegments(segments)), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func itemTitle(item domain.SearchResultItem) string {
	title := item.Filename
	if title == "" {
		title = item.DocumentID
	}
	if item.PageNumber != nil {
		title = fmt.Sprintf("%s (page %d)", title, *item.PageNumber)
	}
	return title
}

// wrap breaks text at width when width is positive.
func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

// formatSize formats bytes as a human-readable string.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
