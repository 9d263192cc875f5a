package domain

import "time"

// DocumentSummary is the minimal description of an indexed document,
// used to build the document filter.
type DocumentSummary struct {
	// ID is the backend document identifier.
	ID string `json:"id"`

	// Filename is the original file name.
	Filename string `json:"filename"`

	// Size is the stored file size in bytes.
	Size int64 `json:"size,omitempty"`

	// ContentType is the MIME type, e.g. "application/pdf".
	ContentType string `json:"contentType,omitempty"`

	// LastModified is when the document was last changed, if known.
	LastModified time.Time `json:"lastModified,omitempty"`
}

// DisplayName returns the filename, or the ID when no filename is known.
func (d DocumentSummary) DisplayName() string {
	if d.Filename != "" {
		return d.Filename
	}
	return d.ID
}
