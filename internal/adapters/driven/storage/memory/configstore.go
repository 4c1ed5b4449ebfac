package memory

import (
	"maps"
	"sync"

	"github.com/custodia-labs/urbanlex/internal/adapters/driven/config"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore holds settings in a map. It backs tests and the
// URBANLEX_CONFIG_DIR=:memory: runs, where nothing may touch disk.
type ConfigStore struct {
	config.Getters

	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates a store seeded with values; later maps win.
func NewConfigStore(values ...map[string]any) *ConfigStore {
	s := &ConfigStore{values: make(map[string]any)}
	for _, v := range values {
		maps.Copy(s.values, v)
	}
	s.Getters = config.NewGetters(s.Get)
	return s
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Save and Load have nothing to do.
func (s *ConfigStore) Save() error { return nil }
func (s *ConfigStore) Load() error { return nil }

// Path reports ":memory:", matching the sqlite convention.
func (s *ConfigStore) Path() string {
	return ":memory:"
}
