package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
)

func seedVectors(t *testing.T) *VectorStore {
	t.Helper()
	store := NewVectorStore()
	require.NoError(t, store.Upsert(context.Background(), domain.NamespaceNational, []driven.VectorRecord{
		{ID: "dpr380_art3", Vector: []float32{1, 0, 0}, Metadata: map[string]any{"document_type": "dpr"}},
		{ID: "l241_art1", Vector: []float32{0.6, 0.8, 0}, Metadata: map[string]any{"document_type": "legge"}},
		{ID: "l241_art2", Vector: []float32{0, 0, 1}, Metadata: map[string]any{"document_type": "legge"}},
	}))
	return store
}

func TestVectorStore_Query(t *testing.T) {
	store := seedVectors(t)

	hits, err := store.Query(context.Background(), domain.NamespaceNational, []float32{1, 0, 0}, 2, nil)

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "dpr380_art3", hits[0].ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.Equal(t, "l241_art1", hits[1].ID)
	assert.InDelta(t, 0.6, hits[1].Score, 1e-6)
}

func TestVectorStore_QueryFilter(t *testing.T) {
	store := seedVectors(t)

	hits, err := store.Query(context.Background(), domain.NamespaceNational, []float32{1, 0, 0}, 10,
		driven.VectorFilter{"document_type": "legge"})

	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "l241_art1", hits[0].ID)
}

func TestVectorStore_NamespacesAreIsolated(t *testing.T) {
	store := seedVectors(t)

	hits, err := store.Query(context.Background(), domain.NamespaceUrban, []float32{1, 0, 0}, 10, nil)

	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Equal(t, 3, store.Count(domain.NamespaceNational))
	assert.Zero(t, store.Count(domain.NamespaceUrban))
}

func TestVectorStore_UpsertReplaces(t *testing.T) {
	store := seedVectors(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, domain.NamespaceNational, []driven.VectorRecord{
		{ID: "l241_art2", Vector: []float32{1, 0, 0}, Metadata: map[string]any{"document_type": "legge"}},
	}))

	assert.Equal(t, 3, store.Count(domain.NamespaceNational))
	recs, err := store.Fetch(ctx, domain.NamespaceNational, []string{"l241_art2", "missing"})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, []float32{1, 0, 0}, recs[0].Vector)
}

func TestVectorStore_UpsertValidation(t *testing.T) {
	store := seedVectors(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		ns      domain.Namespace
		records []driven.VectorRecord
	}{
		{"unknown namespace", "other", []driven.VectorRecord{{ID: "a", Vector: []float32{1}}}},
		{"missing ID", domain.NamespaceNational, []driven.VectorRecord{{Vector: []float32{1, 0, 0}}}},
		{"wrong dimensions", domain.NamespaceNational, []driven.VectorRecord{{ID: "a", Vector: []float32{1, 0}}}},
		{"empty vector", domain.NamespaceUrban, []driven.VectorRecord{{ID: "a"}}},
		{"nested metadata", domain.NamespaceUrban, []driven.VectorRecord{
			{ID: "a", Vector: []float32{1}, Metadata: map[string]any{"scope": map[string]any{"level": "local"}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.Upsert(ctx, tt.ns, tt.records), domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, 3, store.Count(domain.NamespaceNational))
	assert.Zero(t, store.Count(domain.NamespaceUrban))
}

func TestVectorStore_QueryWrongDimensions(t *testing.T) {
	store := seedVectors(t)

	_, err := store.Query(context.Background(), domain.NamespaceNational, []float32{1, 0}, 5, nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestVectorStore_Delete(t *testing.T) {
	store := seedVectors(t)
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx, domain.NamespaceNational, []string{"l241_art1", "missing"}))
	require.NoError(t, store.Delete(ctx, domain.NamespaceUrban, []string{"x"}))
	assert.Equal(t, 2, store.Count(domain.NamespaceNational))

	require.NoError(t, store.DeleteNamespace(ctx, domain.NamespaceNational))
	assert.Zero(t, store.Count(domain.NamespaceNational))

	// A cleared namespace accepts a new dimension.
	require.NoError(t, store.Upsert(ctx, domain.NamespaceNational, []driven.VectorRecord{{ID: "a", Vector: []float32{1, 1}}}))
}

func TestVectorStore_CanceledContext(t *testing.T) {
	store := seedVectors(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Query(ctx, domain.NamespaceNational, []float32{1, 0, 0}, 1, nil)

	assert.ErrorIs(t, err, context.Canceled)
}
