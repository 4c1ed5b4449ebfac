// Package factory creates driven adapters from settings.
package factory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/urbanlex/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/urbanlex/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/urbanlex/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/urbanlex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/urbanlex/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/urbanlex/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// ollamaDimensions lists the output size of common Ollama embedding models.
var ollamaDimensions = map[string]int{
	"nomic-embed-text":  768,
	"all-minilm":        384,
	"mxbai-embed-large": 1024,
	"bge-m3":            1024,
}

// Backends holds every driven adapter the services need.
type Backends struct {
	Embedding driven.EmbeddingService
	Documents driven.DocumentStore
	Vectors   driven.VectorStore
	Cache     driven.Cache // nil when caching is disabled.
	Warnings  []string     // Non-fatal issues that caused fallback.

	closers []func() error
}

// Close releases all resources held by the backends.
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open creates the embedding service, stores and cache selected by settings.
// An unreachable Redis falls back to the memory cache with a warning.
func Open(settings *domain.Settings) (*Backends, error) {
	b := &Backends{}

	embedder, err := CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}
	b.Embedding = embedder
	b.closers = append(b.closers, embedder.Close)

	switch settings.Store.Backend {
	case domain.StoreBackendMemory:
		b.Documents = memory.NewDocumentStore()
		b.Vectors = memory.NewVectorStore()
	case domain.StoreBackendSQLite, "":
		store, err := sqlite.NewStore(settings.Store.DataDir)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("opening store: %w", err)
		}
		b.Documents = store.DocumentStore()
		b.Vectors = store.VectorStore()
		b.closers = append(b.closers, store.Close)
	default:
		b.Close()
		return nil, fmt.Errorf("%w: unsupported store backend %q", domain.ErrInvalidInput, settings.Store.Backend)
	}

	cache, closer, warning := createCache(&settings.Cache)
	b.Cache = cache
	if closer != nil {
		b.closers = append(b.closers, closer)
	}
	if warning != "" {
		logger.Warn("%s", warning)
		b.Warnings = append(b.Warnings, warning)
	}

	return b, nil
}

// CreateEmbeddingService creates the embedding service selected by settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	switch settings.Provider {
	case domain.EmbeddingProviderHashing, "":
		return hashing.NewEmbeddingService(settings.Dimensions), nil

	case domain.EmbeddingProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.EmbeddingProviderOpenAI:
		return createOpenAIEmbedding(settings)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrEmbeddingUnavailable, settings.Provider)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w. Run 'urbanlex settings set embedding.provider hashing' to work offline", err)
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// createOllamaEmbedding creates an Ollama embedding service. OpenAI
// model names left over from the defaults select the Ollama default model.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	model := settings.Model
	if model == openaiembed.DefaultModel {
		model = ollamaembed.DefaultModel
	}
	dimensions := ollamaDimensions[model]
	if dimensions == 0 {
		dimensions = settings.Dimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return svc, nil
}

// createCache returns the configured cache, its closer and a warning
// when Redis could not be reached.
func createCache(settings *domain.CacheSettings) (driven.Cache, func() error, string) {
	switch settings.Backend {
	case domain.CacheBackendNone:
		return nil, nil, ""
	case domain.CacheBackendRedis:
		c, err := redis.NewCache(redis.Config{
			Addr: settings.RedisAddr,
			DB:   settings.RedisDB,
		})
		if err != nil {
			return memory.NewCache(), nil, fmt.Sprintf("redis cache unavailable, using memory cache: %v", err)
		}
		return c, c.Close, ""
	default:
		return memory.NewCache(), nil, ""
	}
}
