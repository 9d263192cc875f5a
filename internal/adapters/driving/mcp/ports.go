package mcp

import (
	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ask/internal/logger"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// NewQuerySession opens a session per tool call.
	NewQuerySession driving.QuerySessionFactory

	// Settings supplies defaults for omitted tool arguments.
	Settings driving.SettingsService

	// Documents lists documents for the documents resource.
	Documents driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.NewQuerySession == nil {
		return ErrMissingQuerySession
	}
	// Settings and Documents are optional
	return nil
}

// settings returns the configured settings, or defaults when they
// cannot be read.
func (p *Ports) settings() domain.ClientSettings {
	if p.Settings == nil {
		return domain.DefaultClientSettings()
	}
	s, err := p.Settings.Get()
	if err != nil {
		logger.Warn("mcp: using default settings: %v", err)
		return domain.DefaultClientSettings()
	}
	return *s
}
