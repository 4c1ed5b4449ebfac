package services

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyEmbedDimensions  = "embedding.dimensions"
	keyEmbedMaxRetries  = "embedding.max_retries"
	keyChunkMinTokens   = "chunker.min_tokens"
	keyChunkMaxTokens   = "chunker.max_tokens"
	keyChunkOverlap     = "chunker.overlap_tokens"
	keyChunkCharsPerTok = "chunker.chars_per_token"
	keyLegalThreshold   = "classifier.legal_threshold"
	keyRegionThreshold  = "classifier.regional_threshold"
	keyRulesFile        = "classifier.rules_file"
	keySearchTopK       = "search.top_k"
	keySearchMaxTopK    = "search.max_top_k"
	keySearchCandidates = "search.max_candidates"
	keySearchThreshold  = "search.threshold"
	keyLegalBoost       = "search.legal_boost"
	keyDiversityBoost   = "search.diversity_boost"
	keyNamespaceTimeout = "search.namespace_timeout"
	keyGlobalTimeout    = "search.global_timeout"
	keyDocumentDelay    = "ingest.document_delay"
	keyCacheBackend     = "cache.backend"
	keyCacheTTL         = "cache.ttl"
	keyRedisAddr        = "cache.redis_addr"
	keyRedisDB          = "cache.redis_db"
	keyStoreBackend     = "store.backend"
	keyStoreDataDir     = "store.data_dir"
)

// Environment variables that override the config file.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIKey = "OPENAI_API_KEY"
	EnvRedisAddr = "URBANLEX_REDIS_ADDR"
)

// SettingsKeys returns every recognised config key in file order.
func SettingsKeys() []string {
	return []string{
		keyEmbedProvider, keyEmbedModel, keyEmbedBaseURL, keyEmbedAPIKey, keyEmbedDimensions, keyEmbedMaxRetries,
		keyChunkMinTokens, keyChunkMaxTokens, keyChunkOverlap, keyChunkCharsPerTok,
		keyLegalThreshold, keyRegionThreshold, keyRulesFile,
		keySearchTopK, keySearchMaxTopK, keySearchCandidates, keySearchThreshold,
		keyLegalBoost, keyDiversityBoost, keyNamespaceTimeout, keyGlobalTimeout,
		keyDocumentDelay,
		keyCacheBackend, keyCacheTTL, keyRedisAddr, keyRedisDB,
		keyStoreBackend, keyStoreDataDir,
	}
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get returns the defaults overlaid with the config file, then with
// the environment.
func (s *SettingsService) Get() (*domain.Settings, error) {
	d := domain.DefaultSettings()

	settings := &domain.Settings{
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(d.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDimensions, d.Embedding.Dimensions),
			MaxRetries: s.getInt(keyEmbedMaxRetries, d.Embedding.MaxRetries),
		},
		Chunker: domain.ChunkerSettings{
			MinTokens:     s.getInt(keyChunkMinTokens, d.Chunker.MinTokens),
			MaxTokens:     s.getInt(keyChunkMaxTokens, d.Chunker.MaxTokens),
			OverlapTokens: s.getIntAllowZero(keyChunkOverlap, d.Chunker.OverlapTokens),
			CharsPerToken: s.getFloat(keyChunkCharsPerTok, d.Chunker.CharsPerToken),
		},
		Classifier: domain.ClassifierSettings{
			LegalThreshold:    s.getFloat(keyLegalThreshold, d.Classifier.LegalThreshold),
			RegionalThreshold: s.getFloat(keyRegionThreshold, d.Classifier.RegionalThreshold),
			RulesFile:         s.configStore.GetString(keyRulesFile),
		},
		Search: domain.SearchSettings{
			TopK:             s.getInt(keySearchTopK, d.Search.TopK),
			MaxTopK:          s.getInt(keySearchMaxTopK, d.Search.MaxTopK),
			MaxCandidates:    s.getInt(keySearchCandidates, d.Search.MaxCandidates),
			Threshold:        s.getRatio(keySearchThreshold, d.Search.Threshold),
			LegalBoost:       s.getRatio(keyLegalBoost, d.Search.LegalBoost),
			DiversityBoost:   s.getRatio(keyDiversityBoost, d.Search.DiversityBoost),
			NamespaceTimeout: s.getDuration(keyNamespaceTimeout, d.Search.NamespaceTimeout),
			GlobalTimeout:    s.getDuration(keyGlobalTimeout, d.Search.GlobalTimeout),
		},
		Ingest: domain.IngestSettings{
			DocumentDelay: s.getDuration(keyDocumentDelay, d.Ingest.DocumentDelay),
		},
		Cache: domain.CacheSettings{
			Backend:   domain.CacheBackend(s.getChoice(keyCacheBackend, string(d.Cache.Backend), cacheBackends())),
			TTL:       s.getDuration(keyCacheTTL, d.Cache.TTL),
			RedisAddr: s.configStore.GetString(keyRedisAddr),
			RedisDB:   s.configStore.GetInt(keyRedisDB),
		},
		Store: domain.StoreSettings{
			Backend: domain.StoreBackend(s.getChoice(keyStoreBackend, string(d.Store.Backend), storeBackends())),
			DataDir: s.configStore.GetString(keyStoreDataDir),
		},
	}

	if key := os.Getenv(EnvOpenAIKey); key != "" && settings.Embedding.APIKey == "" {
		settings.Embedding.APIKey = key
	}
	if addr := os.Getenv(EnvRedisAddr); addr != "" {
		settings.Cache.RedisAddr = addr
	}

	return settings, nil
}

// Set validates and stores a single setting by dotted key.
func (s *SettingsService) Set(key string, value any) error {
	if !slices.Contains(SettingsKeys(), key) {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	switch key {
	case keyEmbedProvider:
		if !domain.EmbeddingProvider(fmt.Sprint(value)).IsValid() {
			return fmt.Errorf("%w: invalid embedding provider: %v", domain.ErrInvalidInput, value)
		}
	case keyCacheBackend:
		if !slices.Contains(cacheBackends(), fmt.Sprint(value)) {
			return fmt.Errorf("%w: invalid cache backend: %v", domain.ErrInvalidInput, value)
		}
	case keyStoreBackend:
		if !slices.Contains(storeBackends(), fmt.Sprint(value)) {
			return fmt.Errorf("%w: invalid store backend: %v", domain.ErrInvalidInput, value)
		}
	}

	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Path returns the config file path.
func (s *SettingsService) Path() string {
	return s.configStore.Path()
}

// PipelineConfigs returns the per-processor configuration used to
// build the post-processing pipeline.
func PipelineConfigs(settings *domain.Settings) map[string]map[string]any {
	return map[string]map[string]any{
		"chunker": {
			"min_tokens":      settings.Chunker.MinTokens,
			"max_tokens":      settings.Chunker.MaxTokens,
			"overlap_tokens":  settings.Chunker.OverlapTokens,
			"chars_per_token": settings.Chunker.CharsPerToken,
		},
	}
}

func cacheBackends() []string {
	return []string{string(domain.CacheBackendMemory), string(domain.CacheBackendRedis), string(domain.CacheBackendNone)}
}

func storeBackends() []string {
	return []string{string(domain.StoreBackendSQLite), string(domain.StoreBackendMemory)}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return max(0, s.configStore.GetInt(key))
}

// getFloat keeps explicit negative values, which disable boosts.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	if val := s.configStore.GetFloat(key); val != 0 {
		return val
	}
	return defaultVal
}

// getRatio reads a threshold or boost. A configured zero turns it off.
func (s *SettingsService) getRatio(key string, defaultVal float64) float64 {
	raw, exists := s.configStore.Get(key)
	if !exists {
		return defaultVal
	}
	val := s.configStore.GetFloat(key)
	switch {
	case val < 0, val == 0 && isZero(raw):
		return domain.Off
	case val > 0:
		return val
	default:
		return defaultVal
	}
}

func isZero(v any) bool {
	switch n := v.(type) {
	case int:
		return n == 0
	case int64:
		return n == 0
	case float64:
		return n == 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return err == nil && f == 0
	default:
		return false
	}
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if val := s.configStore.GetDuration(key); val > 0 {
		return val
	}
	return defaultVal
}

func (s *SettingsService) getChoice(key, defaultVal string, allowed []string) string {
	val := s.configStore.GetString(key)
	if !slices.Contains(allowed, val) {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(defaultVal domain.EmbeddingProvider) domain.EmbeddingProvider {
	provider := domain.EmbeddingProvider(s.configStore.GetString(keyEmbedProvider))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
