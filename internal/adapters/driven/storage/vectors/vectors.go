// Package vectors holds the similarity scoring shared by the vector
// store adapters.
package vectors

import (
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
)

// Cosine returns the cosine similarity of a and b.
// Zero vectors score 0.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// CheckDimensions rejects a vector whose length differs from want.
// A zero want accepts any non-empty vector.
func CheckDimensions(vec []float32, want int) error {
	if len(vec) == 0 {
		return fmt.Errorf("%w: empty vector", domain.ErrInvalidInput)
	}
	if want != 0 && len(vec) != want {
		return fmt.Errorf("%w: vector has %d dimensions, namespace uses %d", domain.ErrInvalidInput, len(vec), want)
	}
	return nil
}

// Ranker collects scored records and returns the best topK.
type Ranker struct {
	query  []float32
	filter driven.VectorFilter
	hits   []driven.VectorHit
}

// NewRanker creates a ranker for one query.
func NewRanker(query []float32, filter driven.VectorFilter) *Ranker {
	return &Ranker{query: query, filter: filter}
}

// Add scores a record unless the filter rejects it or its
// dimensions differ from the query.
func (r *Ranker) Add(rec driven.VectorRecord) {
	if len(rec.Vector) != len(r.query) || !r.filter.Matches(rec.Metadata) {
		return
	}
	r.hits = append(r.hits, driven.VectorHit{
		ID:       rec.ID,
		Score:    Cosine(r.query, rec.Vector),
		Metadata: rec.Metadata,
	})
}

// Top returns up to topK hits ordered by score descending, then ID.
func (r *Ranker) Top(topK int) []driven.VectorHit {
	sort.Slice(r.hits, func(i, j int) bool {
		if r.hits[i].Score != r.hits[j].Score {
			return r.hits[i].Score > r.hits[j].Score
		}
		return r.hits[i].ID < r.hits[j].ID
	})
	if topK > 0 && len(r.hits) > topK {
		return r.hits[:topK]
	}
	return r.hits
}
