package driven

import (
	"context"
	"fmt"
	"slices"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// VectorRecord is a vector with its identifier and flat metadata.
type VectorRecord struct {
	ID       string
	Vector   []float32
	Metadata map[string]any
}

// VectorHit is a single nearest-neighbour result.
type VectorHit struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// VectorFilter restricts a query to records whose metadata equals
// every given value. String slice metadata matches when it contains
// the value.
type VectorFilter map[string]string

// VectorStore stores vectors in isolated namespaces and answers
// nearest-neighbour queries per namespace.
type VectorStore interface {
	// Upsert inserts or replaces records in a namespace.
	// Metadata must satisfy domain.ValidateFlatMetadata.
	Upsert(ctx context.Context, ns domain.Namespace, records []VectorRecord) error

	// Query returns up to topK records most similar to vector,
	// best first. Scores are cosine similarities.
	Query(ctx context.Context, ns domain.Namespace, vector []float32, topK int, filter VectorFilter) ([]VectorHit, error)

	// Fetch returns the records with the given IDs. Missing IDs are skipped.
	Fetch(ctx context.Context, ns domain.Namespace, ids []string) ([]VectorRecord, error)

	// Delete removes the records with the given IDs. Missing IDs are skipped.
	Delete(ctx context.Context, ns domain.Namespace, ids []string) error

	// DeleteNamespace removes every record in a namespace.
	DeleteNamespace(ctx context.Context, ns domain.Namespace) error

	// Close releases resources.
	Close() error
}

// Matches reports whether metadata satisfies every filter entry.
// Non-string scalars are compared by their printed form.
func (f VectorFilter) Matches(md map[string]any) bool {
	for key, want := range f {
		switch v := md[key].(type) {
		case string:
			if v != want {
				return false
			}
		case []string:
			if !slices.Contains(v, want) {
				return false
			}
		case nil:
			return false
		default:
			if fmt.Sprint(v) != want {
				return false
			}
		}
	}
	return true
}
