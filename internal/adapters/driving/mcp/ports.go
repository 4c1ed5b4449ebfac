package mcp

import (
	"context"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driving"
)

// DocumentReader lists and loads stored documents.
type DocumentReader interface {
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
}

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions end to end.
	Query driving.QueryService

	// Classifier routes questions to corpora.
	Classifier driving.QueryClassifier

	// Chunking splits documents into chunks.
	Chunking driving.ChunkingService

	// Metadata extracts enriched document metadata.
	Metadata driving.MetadataService

	// Documents exposes stored documents as resources.
	Documents DocumentReader
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Classifier == nil {
		return ErrMissingClassifier
	}
	// Chunking, Metadata and Documents are optional
	return nil
}
