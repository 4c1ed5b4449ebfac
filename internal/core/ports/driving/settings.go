package driving

import "github.com/custodia-labs/urbanlex/internal/core/domain"

// SettingsService reads and updates application settings.
type SettingsService interface {
	// Get returns the effective settings: defaults overlaid with
	// the config file.
	Get() (*domain.Settings, error)

	// Set stores a single setting by dotted key.
	Set(key string, value any) error

	// Path returns the config file path.
	Path() string
}
