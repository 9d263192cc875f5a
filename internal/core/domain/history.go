package domain

import "time"

// QueryKind distinguishes plain searches from questions.
type QueryKind string

// Query kinds.
const (
	QueryKindSearch QueryKind = "search"
	QueryKindRAG    QueryKind = "rag"
)

// HistoryEntry records one finished submission.
type HistoryEntry struct {
	ID            string     `json:"id"`
	Kind          QueryKind  `json:"kind"`
	Query         string     `json:"query"`
	Mode          SearchMode `json:"mode"`
	Answer        string     `json:"answer,omitempty"`
	CitationCount int        `json:"citationCount,omitempty"`
	TotalMatches  int        `json:"totalMatches,omitempty"`
	// Phase is the terminal answer phase for questions; empty for searches.
	Phase     string    `json:"phase,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
