package tui

import "errors"

// ErrMissingQuerySession is returned when no query session factory is provided.
var ErrMissingQuerySession = errors.New("tui: query session factory is required")

// ErrMissingSettingsService is returned when the settings service is not provided.
var ErrMissingSettingsService = errors.New("tui: settings service is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")

// ErrNoDocumentService is returned when the filter view is used without a document service.
var ErrNoDocumentService = errors.New("tui: document listing is not available")

// ErrNoHistoryService is returned when the history view is used without a history service.
var ErrNoHistoryService = errors.New("tui: history is not available")
