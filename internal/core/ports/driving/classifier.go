package driving

import "github.com/custodia-labs/urbanlex/internal/core/domain"

// QueryClassifier maps a free-text query to a retrieval strategy.
type QueryClassifier interface {
	// Classify is pure and never fails; unknown queries fall back
	// to the urban-only strategy.
	Classify(query string) domain.QueryClassification
}
