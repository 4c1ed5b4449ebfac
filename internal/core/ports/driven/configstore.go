package driven

import "time"

// ConfigStore reads and writes dotted settings keys such as
// "search.timeout" or "classifier.urban_keywords". Typed getters return
// the zero value when a key is missing or has the wrong type.
type ConfigStore interface {
	// Get reports the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string

	// GetInt accepts whole floats, as TOML and JSON decoders may yield them.
	GetInt(key string) int

	// GetFloat accepts integers.
	GetFloat(key string) float64

	// GetDuration parses "1m30s" strings and treats bare numbers as seconds.
	GetDuration(key string) time.Duration

	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set updates a key and persists the file.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path is the backing file, or "" for stores without one.
	Path() string
}
