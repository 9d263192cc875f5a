package driving

import "github.com/custodia-labs/sercha-ask/internal/core/domain"

// SettingsService manages client settings.
type SettingsService interface {
	// Get retrieves current settings, falling back to defaults.
	Get() (*domain.ClientSettings, error)

	// Save validates and persists settings.
	Save(settings *domain.ClientSettings) error

	// Set updates one setting by its config key.
	Set(key, value string) error

	// Values returns the effective value of every key as text.
	Values() (map[string]string, error)

	// Keys lists the supported config keys.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.ClientSettings
}
