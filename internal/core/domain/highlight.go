package domain

import "strings"

// HighlightMarkers is the inline delimiter pair around matched text.
type HighlightMarkers struct {
	Start string
	End   string
}

// DefaultHighlightMarkers are the markers the search backend emits.
var DefaultHighlightMarkers = HighlightMarkers{Start: "<em>", End: "</em>"}

// IsValid reports whether both markers are non-empty.
func (m HighlightMarkers) IsValid() bool {
	return m.Start != "" && m.End != ""
}

// HighlightSegment is one renderable piece of a snippet.
type HighlightSegment struct {
	Text        string
	Highlighted bool
}

// ParseHighlights splits a snippet on the default markers.
func ParseHighlights(snippet string) []HighlightSegment {
	return DefaultHighlightMarkers.Parse(snippet)
}

// Parse splits snippet into plain and highlighted segments.
//
// Each start marker is paired with the first end marker after it.
// Concatenating the segment texts yields the snippet with the matched
// marker pairs removed. Text after the last complete pair, including
// any dangling marker, is returned as plain text. Parse never fails;
// invalid markers turn the whole snippet into one plain segment.
func (m HighlightMarkers) Parse(snippet string) []HighlightSegment {
	if !m.IsValid() {
		return []HighlightSegment{{Text: snippet}}
	}

	var segments []HighlightSegment
	rest := snippet
	for {
		start := strings.Index(rest, m.Start)
		if start < 0 {
			break
		}
		innerFrom := start + len(m.Start)
		end := strings.Index(rest[innerFrom:], m.End)
		if end < 0 {
			break
		}
		end += innerFrom

		if start > 0 {
			segments = append(segments, HighlightSegment{Text: rest[:start]})
		}
		if end > innerFrom {
			segments = append(segments, HighlightSegment{Text: rest[innerFrom:end], Highlighted: true})
		}
		rest = rest[end+len(m.End):]
	}

	if rest != "" || len(segments) == 0 {
		segments = append(segments, HighlightSegment{Text: rest})
	}
	return segments
}

// HighlightItem returns one segment list per snippet. With no snippets
// the item text is returned as a single plain segment.
func (m HighlightMarkers) HighlightItem(text string, snippets []string) [][]HighlightSegment {
	if len(snippets) == 0 {
		return [][]HighlightSegment{{{Text: text}}}
	}
	out := make([][]HighlightSegment, len(snippets))
	for i, s := range snippets {
		out[i] = m.Parse(s)
	}
	return out
}

// PlainText joins segment texts, dropping highlight information.
func PlainText(segments []HighlightSegment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}
