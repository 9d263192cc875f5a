package domain

import "fmt"

// Citation ties a span of generated answer text back to a source document.
type Citation struct {
	// DocumentID identifies the cited document.
	DocumentID string `json:"documentId"`

	// Filename is the display name of the cited document.
	Filename string `json:"filename"`

	// Marker is the label used in the answer text, e.g. "[1]".
	// Unique within one answer.
	Marker string `json:"marker"`

	// PageNumber is the cited page, if known.
	PageNumber *int `json:"pageNumber,omitempty"`

	// SourceText is the passage the citation refers to.
	SourceText string `json:"text"`
}

// Label returns a short human-readable reference, e.g. "[1] report.pdf p.3".
func (c Citation) Label() string {
	label := c.Filename
	if label == "" {
		label = c.DocumentID
	}
	if c.Marker != "" {
		label = c.Marker + " " + label
	}
	if c.PageNumber != nil {
		label = fmt.Sprintf("%s p.%d", label, *c.PageNumber)
	}
	return label
}

// CloneCitations returns a copy of the list that shares no storage with it.
func CloneCitations(in []Citation) []Citation {
	if in == nil {
		return nil
	}
	out := make([]Citation, len(in))
	for i, c := range in {
		if c.PageNumber != nil {
			n := *c.PageNumber
			c.PageNumber = &n
		}
		out[i] = c
	}
	return out
}

// RagAnswer is a complete, non-streamed answer.
type RagAnswer struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
}
