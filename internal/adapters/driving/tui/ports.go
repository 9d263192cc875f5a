// Package tui provides an interactive terminal user interface for sercha-ask.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"context"

	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// NewQuerySession opens the session searches and questions run through.
	NewQuerySession driving.QuerySessionFactory

	// Settings provides the search defaults.
	Settings driving.SettingsService

	// Documents lists documents for the filter view. Optional.
	Documents driving.DocumentService

	// History lists recent queries. Optional.
	History driving.HistoryService

	// WatchConfig blocks until ctx ends, calling onChange after every
	// config file write. Optional.
	WatchConfig func(ctx context.Context, onChange func()) error
}

// NewPorts creates a new Ports aggregate with the required services.
func NewPorts(newSession driving.QuerySessionFactory, settings driving.SettingsService) *Ports {
	return &Ports{
		NewQuerySession: newSession,
		Settings:        settings,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.NewQuerySession == nil {
		return ErrMissingQuerySession
	}
	if p.Settings == nil {
		return ErrMissingSettingsService
	}
	return nil
}
