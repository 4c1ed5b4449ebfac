package driving

import (
	"context"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// SearchService merges nearest-neighbour matches across weighted corpora.
type SearchService interface {
	// Search fans out to the namespaces of the classification.
	// Namespace failures are reported in the result, never as an error;
	// an error is returned only for invalid input.
	Search(ctx context.Context, embedding []float32, cls domain.QueryClassification, opts domain.SearchOptions) (*domain.SearchResult, error)
}

// ResponseComposer turns ranked matches into a user-facing answer.
type ResponseComposer interface {
	Compose(query string, result *domain.SearchResult, cls domain.QueryClassification) *domain.Response
}
