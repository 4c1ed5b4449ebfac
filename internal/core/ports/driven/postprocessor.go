package driven

import (
	"context"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// PostProcessor is one stage of document processing. The segmenter fills
// doc.Articles and passes chunks through, the chunker replaces the chunk
// slice, and the enricher decorates the chunks it is given.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline runs every stage over a document and returns the
// final chunks.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}

// MetadataExtractor derives document-level metadata without chunking.
// The same document and hints always yield the same metadata.
type MetadataExtractor interface {
	Extract(doc *domain.Document, hints domain.DocumentConfig) domain.EnrichedMetadata
}
