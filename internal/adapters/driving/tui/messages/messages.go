// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
)

// SearchRequested asks the app to run a new search.
type SearchRequested struct {
	Query string
	Mode  domain.SearchMode
}

// PageRequested asks the app to show another page of the current search.
type PageRequested struct {
	Page int
}

// SearchCompleted carries the session view after a search or page change.
type SearchCompleted struct {
	View driving.QueryView
	Err  error
}

// AskRequested asks the app to answer a question.
type AskRequested struct {
	Question string
	Mode     domain.SearchMode
}

// CancelAnswerRequested asks the app to stop a live answer.
type CancelAnswerRequested struct{}

// AnswerChanged signals that the live answer changed. The app replies
// with AnswerUpdated.
type AnswerChanged struct{}

// AnswerUpdated carries the session view after an answer change.
type AnswerUpdated struct {
	View driving.QueryView
	Err  error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewSearch is the search input and results view.
	ViewSearch
	// ViewAsk is the question and answer view.
	ViewAsk
	// ViewFilter selects the documents queries are restricted to.
	ViewFilter
	// ViewHistory lists recent queries.
	ViewHistory
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewSearch:
		return "search"
	case ViewAsk:
		return "ask"
	case ViewFilter:
		return "filter"
	case ViewHistory:
		return "history"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// DocumentsRequested asks the app to load the document list.
type DocumentsRequested struct {
	// Refresh drops cached summaries first.
	Refresh bool
}

// DocumentsLoaded carries the backend document list.
type DocumentsLoaded struct {
	Documents []domain.DocumentSummary
	Err       error
}

// FilterChanged carries the document IDs queries are restricted to.
// An empty list removes the filter.
type FilterChanged struct {
	DocumentIDs []string
}

// HistoryRequested asks the app to load recent history.
type HistoryRequested struct{}

// ClearHistoryRequested asks the app to delete all history.
type ClearHistoryRequested struct{}

// HistoryLoaded carries recent history entries.
type HistoryLoaded struct {
	Entries []domain.HistoryEntry
	Err     error
}

// HistoryCleared signals the history was deleted.
type HistoryCleared struct {
	Err error
}

// RerunRequested asks the app to repeat a history entry.
type RerunRequested struct {
	Entry domain.HistoryEntry
}

// ConfigChanged signals the config file was written.
type ConfigChanged struct{}

// SettingsLoaded carries the client settings.
type SettingsLoaded struct {
	Settings domain.ClientSettings
	Err      error
}
