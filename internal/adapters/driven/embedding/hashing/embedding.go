// Package hashing provides an offline embedding service based on
// feature hashing of normalised Italian tokens. It needs no network
// and yields identical vectors for identical text, which makes it the
// default for local use and tests.
package hashing

import (
	"context"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/lexicon"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the vector size used when none is configured.
const DefaultDimensions = 384

const bigramWeight = 0.5

// EmbeddingService hashes unigrams and bigrams into a fixed-size,
// L2-normalised vector.
type EmbeddingService struct {
	dims       int
	normalizer *lexicon.Normalizer
}

// NewEmbeddingService creates a hashing embedder with dims dimensions.
func NewEmbeddingService(dims int) *EmbeddingService {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &EmbeddingService{
		dims:       dims,
		normalizer: lexicon.NewNormalizer(lexicon.DefaultTables().Abbreviations),
	}
}

// Embed generates a vector embedding for the given text.
// Text without tokens yields a zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, s.dims)
	tokens := s.normalizer.Tokens(text)
	for i, tok := range tokens {
		s.add(vec, tok, 1)
		if i > 0 {
			s.add(vec, tokens[i-1]+" "+tok, bigramWeight)
		}
	}
	return normalize(vec), nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// add accumulates one feature. The top bit of the hash picks the sign
// so collisions tend to cancel out.
func (s *EmbeddingService) add(vec []float64, feature string, weight float64) {
	h := xxhash.Sum64String(feature)
	idx := int(h % uint64(s.dims))
	if h>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

func normalize(vec []float64) []float32 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	out := make([]float32, len(vec))
	if sum == 0 {
		return out
	}
	inv := 1 / math.Sqrt(sum)
	for i, v := range vec {
		out[i] = float32(v * inv)
	}
	return out
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dims
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return "feature-hashing"
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
