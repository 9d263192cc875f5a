package cli

import (
	"context"
	"errors"

	"github.com/custodia-labs/sercha-ask/internal/core/domain"
	"github.com/custodia-labs/sercha-ask/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-ask/internal/logger"
)

// Services holds the driving ports the commands run against.
type Services struct {
	// Settings reads and writes client settings.
	Settings driving.SettingsService

	// Documents lists backend documents.
	Documents driving.DocumentService

	// History exposes recorded queries.
	History driving.HistoryService

	// NewQuerySession opens a query session against the configured backend.
	NewQuerySession driving.QuerySessionFactory

	// WatchConfig calls onChange whenever the config file changes.
	WatchConfig func(ctx context.Context, onChange func()) error

	// CheckBackend reports whether the backend described by b is reachable.
	CheckBackend func(ctx context.Context, b domain.BackendSettings) error
}

var services Services

var errNoQuerySession = errors.New("query session not configured")

// SetServices sets the services used by all commands.
func SetServices(s Services) {
	services = s
}

// currentSettings returns the stored settings, or defaults when none
// can be read.
func currentSettings() domain.ClientSettings {
	if services.Settings == nil {
		return domain.DefaultClientSettings()
	}
	settings, err := services.Settings.Get()
	if err != nil {
		logger.Warn("using default settings: %v", err)
		return services.Settings.GetDefaults()
	}
	return *settings
}

func openSession(onChange func()) (driving.QuerySession, error) {
	if services.NewQuerySession == nil {
		return nil, errNoQuerySession
	}
	return services.NewQuerySession(onChange)
}
