package domain

import "time"

const unknownDescription = "Unknown"

// EmbeddingProvider identifies an embedding backend.
type EmbeddingProvider string

// Available embedding providers.
const (
	// EmbeddingProviderOpenAI is the OpenAI cloud API.
	EmbeddingProviderOpenAI EmbeddingProvider = "openai"

	// EmbeddingProviderOllama is a local Ollama instance.
	EmbeddingProviderOllama EmbeddingProvider = "ollama"

	// EmbeddingProviderHashing is the offline feature-hashing embedder.
	EmbeddingProviderHashing EmbeddingProvider = "hashing"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case EmbeddingProviderOpenAI, EmbeddingProviderOllama, EmbeddingProviderHashing:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == EmbeddingProviderOpenAI
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case EmbeddingProviderOpenAI:
		return "OpenAI (cloud)"
	case EmbeddingProviderOllama:
		return "Ollama (local)"
	case EmbeddingProviderHashing:
		return "Feature hashing (offline)"
	default:
		return unknownDescription
	}
}

// StoreBackend identifies where documents and vectors are kept.
type StoreBackend string

// Available store backends.
const (
	StoreBackendSQLite StoreBackend = "sqlite"
	StoreBackendMemory StoreBackend = "memory"
)

// CacheBackend identifies the response cache implementation.
type CacheBackend string

// Available cache backends.
const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendRedis  CacheBackend = "redis"
	CacheBackendNone   CacheBackend = "none"
)

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider   EmbeddingProvider
	Model      string
	BaseURL    string
	APIKey     string
	Dimensions int
	MaxRetries int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ChunkerSettings holds token budgets for the chunker.
type ChunkerSettings struct {
	MinTokens     int
	MaxTokens     int
	OverlapTokens int
	CharsPerToken float64
}

// ClassifierSettings holds the strategy thresholds.
type ClassifierSettings struct {
	LegalThreshold    float64
	RegionalThreshold float64

	// RulesFile optionally points at a YAML keyword table override.
	RulesFile string
}

// Off disables a ratio setting (search threshold or boost). Any
// negative value does the same.
const Off = -1.0

// SearchSettings holds ranking and fan-out configuration. A zero
// Threshold, LegalBoost or DiversityBoost selects the default; Off
// turns it off.
type SearchSettings struct {
	TopK             int
	MaxTopK          int
	MaxCandidates    int
	Threshold        float64
	LegalBoost       float64
	DiversityBoost   float64
	NamespaceTimeout time.Duration
	GlobalTimeout    time.Duration
}

// IngestSettings holds batch ingestion pacing.
type IngestSettings struct {
	// DocumentDelay is the minimum interval between documents in a batch.
	DocumentDelay time.Duration
}

// CacheSettings holds response cache configuration.
type CacheSettings struct {
	Backend   CacheBackend
	TTL       time.Duration
	RedisAddr string
	RedisDB   int
}

// StoreSettings holds persistence configuration.
type StoreSettings struct {
	Backend StoreBackend
	DataDir string
}

// Settings is the complete application configuration.
type Settings struct {
	Embedding  EmbeddingSettings
	Chunker    ChunkerSettings
	Classifier ClassifierSettings
	Search     SearchSettings
	Ingest     IngestSettings
	Cache      CacheSettings
	Store      StoreSettings
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			Provider:   EmbeddingProviderHashing,
			Model:      "text-embedding-3-small",
			Dimensions: 384,
			MaxRetries: 3,
		},
		Chunker: ChunkerSettings{
			MinTokens:     800,
			MaxTokens:     1500,
			OverlapTokens: 100,
			CharsPerToken: 4,
		},
		Classifier: ClassifierSettings{
			LegalThreshold:    0.1,
			RegionalThreshold: 0.3,
		},
		Search: SearchSettings{
			TopK:             10,
			MaxTopK:          100,
			MaxCandidates:    50,
			Threshold:        0.5,
			LegalBoost:       0.15,
			DiversityBoost:   0.05,
			NamespaceTimeout: 30 * time.Second,
			GlobalTimeout:    45 * time.Second,
		},
		Ingest: IngestSettings{
			DocumentDelay: time.Second,
		},
		Cache: CacheSettings{
			Backend: CacheBackendMemory,
			TTL:     15 * time.Minute,
		},
		Store: StoreSettings{
			Backend: StoreBackendSQLite,
		},
	}
}
