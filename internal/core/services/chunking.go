package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driving"
	"github.com/custodia-labs/urbanlex/internal/logger"
)

// Ensure services implement the interfaces.
var (
	_ driving.ChunkingService = (*ChunkingService)(nil)
	_ driving.MetadataService = (*MetadataService)(nil)
)

// ChunkingService runs segmentation and chunking without enrichment.
type ChunkingService struct {
	segmenter driven.PostProcessor
	chunker   driven.PostProcessor
}

// NewChunkingService creates a new chunking service.
// The segmenter is skipped for documents that already carry articles.
func NewChunkingService(segmenter, chunker driven.PostProcessor) *ChunkingService {
	return &ChunkingService{
		segmenter: segmenter,
		chunker:   chunker,
	}
}

// ChunkDocument segments the document if needed and returns its chunks.
func (s *ChunkingService) ChunkDocument(ctx context.Context, doc *domain.Document) (*domain.ChunkingResult, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}
	if s.chunker == nil {
		return nil, fmt.Errorf("%w: chunker not configured", domain.ErrInvalidChunkConfig)
	}

	if !doc.HasStructure() && s.segmenter != nil {
		if _, err := s.segmenter.Process(ctx, doc, nil); err != nil {
			return nil, fmt.Errorf("segment: %w", err)
		}
	}

	chunks, err := s.chunker.Process(ctx, doc, nil)
	if err != nil {
		return nil, fmt.Errorf("chunk: %w", err)
	}

	result := &domain.ChunkingResult{
		DocumentID: doc.ID,
		Chunks:     chunks,
		Strategy:   domain.ChunkingSeparatorBased,
		Stats:      domain.ComputeChunkingStats(chunks),
	}
	if doc.HasStructure() {
		result.Strategy = domain.ChunkingLegalStructure
	}

	logger.Debug("Chunked %s: %d chunks (%s)", doc.ID, len(chunks), result.Strategy)
	return result, nil
}

// MetadataService classifies documents.
type MetadataService struct {
	extractor driven.MetadataExtractor
}

// NewMetadataService creates a new metadata service.
func NewMetadataService(extractor driven.MetadataExtractor) *MetadataService {
	return &MetadataService{extractor: extractor}
}

// ExtractMetadata computes enriched metadata for doc. Hints win over
// the document's own fields.
func (s *MetadataService) ExtractMetadata(
	ctx context.Context, doc *domain.Document, hints domain.DocumentConfig,
) (*domain.EnrichedMetadata, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	meta := s.extractor.Extract(doc, hints)
	return &meta, nil
}
