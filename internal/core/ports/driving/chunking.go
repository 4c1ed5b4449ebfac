package driving

import (
	"context"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// ChunkingService splits documents into token-bounded chunks.
type ChunkingService interface {
	// ChunkDocument segments the document if needed and returns its chunks.
	// An empty document yields zero chunks, not an error.
	ChunkDocument(ctx context.Context, doc *domain.Document) (*domain.ChunkingResult, error)
}

// MetadataService classifies documents.
type MetadataService interface {
	// ExtractMetadata computes enriched metadata from the document text
	// and the externally supplied hints. It is deterministic.
	ExtractMetadata(ctx context.Context, doc *domain.Document, hints domain.DocumentConfig) (*domain.EnrichedMetadata, error)
}
