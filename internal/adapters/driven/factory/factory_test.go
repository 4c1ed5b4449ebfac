package factory

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/urbanlex/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/urbanlex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

func TestCreateEmbeddingService(t *testing.T) {
	tests := []struct {
		name      string
		settings  domain.EmbeddingSettings
		wantModel string
		wantDims  int
		wantErr   bool
	}{
		{
			name:      "hashing is the default",
			settings:  domain.EmbeddingSettings{},
			wantModel: "feature-hashing",
			wantDims:  hashing.DefaultDimensions,
		},
		{
			name:      "hashing honours dimensions",
			settings:  domain.EmbeddingSettings{Provider: domain.EmbeddingProviderHashing, Dimensions: 128},
			wantModel: "feature-hashing",
			wantDims:  128,
		},
		{
			name:      "ollama replaces openai default model",
			settings:  domain.EmbeddingSettings{Provider: domain.EmbeddingProviderOllama, Model: "text-embedding-3-small"},
			wantModel: "nomic-embed-text",
			wantDims:  768,
		},
		{
			name:      "ollama unknown model uses configured dimensions",
			settings:  domain.EmbeddingSettings{Provider: domain.EmbeddingProviderOllama, Model: "custom-embed", Dimensions: 512},
			wantModel: "custom-embed",
			wantDims:  512,
		},
		{
			name:      "openai with key",
			settings:  domain.EmbeddingSettings{Provider: domain.EmbeddingProviderOpenAI, APIKey: "sk-test", Model: "text-embedding-3-small"},
			wantModel: "text-embedding-3-small",
			wantDims:  1536,
		},
		{
			name:     "openai without key",
			settings: domain.EmbeddingSettings{Provider: domain.EmbeddingProviderOpenAI},
			wantErr:  true,
		},
		{
			name:     "unknown provider",
			settings: domain.EmbeddingSettings{Provider: "cohere"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := CreateEmbeddingService(&tt.settings)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, svc.ModelName())
			assert.Equal(t, tt.wantDims, svc.Dimensions())
		})
	}
}

func TestCreateAndValidateEmbeddingService_Hashing(t *testing.T) {
	svc, err := CreateAndValidateEmbeddingService(context.Background(), &domain.EmbeddingSettings{
		Provider: domain.EmbeddingProviderHashing,
	})

	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestOpen_MemoryBackends(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.Store.Backend = domain.StoreBackendMemory

	b, err := Open(&settings)
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &memory.DocumentStore{}, b.Documents)
	assert.IsType(t, &memory.VectorStore{}, b.Vectors)
	assert.IsType(t, &memory.Cache{}, b.Cache)
	assert.Empty(t, b.Warnings)
}

func TestOpen_SQLite(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.Store.DataDir = t.TempDir()
	settings.Cache.Backend = domain.CacheBackendNone

	b, err := Open(&settings)
	require.NoError(t, err)

	require.NoError(t, b.Documents.SaveDocument(context.Background(), &domain.Document{ID: "d1", Title: "Legge"}))
	doc, err := b.Documents.GetDocument(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "Legge", doc.Title)
	assert.Nil(t, b.Cache)
	assert.NoError(t, b.Close())
}

func TestOpen_UnknownStore(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.Store.Backend = "postgres"

	_, err := Open(&settings)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestOpen_RedisFallsBackToMemory(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	settings := domain.DefaultSettings()
	settings.Store.Backend = domain.StoreBackendMemory
	settings.Cache.Backend = domain.CacheBackendRedis
	settings.Cache.RedisAddr = addr

	b, err := Open(&settings)
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &memory.Cache{}, b.Cache)
	require.Len(t, b.Warnings, 1)
	assert.Contains(t, b.Warnings[0], "redis")
}
