package vectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, Cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestCheckDimensions(t *testing.T) {
	require.NoError(t, CheckDimensions([]float32{1, 2}, 0))
	require.NoError(t, CheckDimensions([]float32{1, 2}, 2))
	assert.ErrorIs(t, CheckDimensions(nil, 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, CheckDimensions([]float32{1}, 2), domain.ErrInvalidInput)
}

func TestRanker(t *testing.T) {
	r := NewRanker([]float32{1, 0}, driven.VectorFilter{"kind": "legal"})
	r.Add(driven.VectorRecord{ID: "b", Vector: []float32{1, 0}, Metadata: map[string]any{"kind": "legal"}})
	r.Add(driven.VectorRecord{ID: "a", Vector: []float32{2, 0}, Metadata: map[string]any{"kind": "legal"}})
	r.Add(driven.VectorRecord{ID: "c", Vector: []float32{1, 1}, Metadata: map[string]any{"kind": "legal"}})
	r.Add(driven.VectorRecord{ID: "d", Vector: []float32{1, 0}, Metadata: map[string]any{"kind": "urban"}})
	r.Add(driven.VectorRecord{ID: "e", Vector: []float32{1, 0, 0}, Metadata: map[string]any{"kind": "legal"}})

	hits := r.Top(2)

	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].ID)
	assert.Equal(t, "b", hits[1].ID)
	assert.Len(t, r.Top(0), 3)
}
