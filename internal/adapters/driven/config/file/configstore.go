package file

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/urbanlex/internal/adapters/driven/config"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in a TOML file. Keys are dotted paths
// ("search.top_k"); the file keeps them as tables:
//
//	[search]
//	top_k = 10
//
// Any key can be overridden from the environment, see config.EnvKey.
// Overrides are read-only and never written back to the file.
type ConfigStore struct {
	config.Getters

	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.urbanlex/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".urbanlex")
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}
	s.Getters = config.NewGetters(s.Get)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the environment override for key when one is set, and the
// file value otherwise.
func (s *ConfigStore) Get(key string) (any, bool) {
	if v, ok := os.LookupEnv(config.EnvKey(key)); ok {
		return v, true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	return val, ok
}

// Set stores a configuration value and persists immediately.
// A failed write leaves the previous value in place.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.data[key]
	s.data[key] = value
	if err := s.save(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

// Save persists the current configuration to disk.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save writes configuration to the TOML file (caller must hold lock).
func (s *ConfigStore) save() error {
	data, err := toml.Marshal(nestMap(s.data))
	if err != nil {
		return err
	}

	// Write with restricted permissions: the file may hold API keys.
	return os.WriteFile(s.filePath, data, 0o600)
}

// Load reads configuration from the TOML file.
// A missing file leaves the store empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		s.data = make(map[string]any)
		return nil
	}
	if err != nil {
		return err
	}

	var loaded map[string]any
	if err := toml.Unmarshal(data, &loaded); err != nil {
		return err
	}
	s.data = flattenMap(loaded, "")
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// flattenMap converts nested maps to dot-notation keys.
// E.g., {"a": {"b": 1}} becomes {"a.b": 1}.
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any, len(m))

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
			continue
		}
		result[fullKey] = value
	}
	return result
}

// nestMap is the inverse of flattenMap. A key that is both a value and
// a table prefix keeps the value and drops the nested keys.
func nestMap(flat map[string]any) map[string]any {
	root := make(map[string]any)
	for key, value := range flat {
		parts := strings.Split(key, ".")
		node := root
		for _, p := range parts[:len(parts)-1] {
			child, ok := node[p].(map[string]any)
			if !ok {
				if _, taken := node[p]; taken {
					node = nil
					break
				}
				child = make(map[string]any)
				node[p] = child
			}
			node = child
		}
		if node != nil {
			node[parts[len(parts)-1]] = value
		}
	}
	return root
}
