package driven

import (
	"context"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// DocumentStore keeps ingested acts and their chunks so that citations
// can be opened in full. It is optional; the vector store alone is enough
// to answer questions.
type DocumentStore interface {
	// SaveDocument inserts or replaces a document, articles included.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks replaces the stored chunks of every document the given
	// chunks belong to.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument returns domain.ErrNotFound for unknown IDs.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks returns a document's chunks by position; nil when none.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// DeleteDocument removes a document and its chunks. Deleting an
	// unknown ID is not an error.
	DeleteDocument(ctx context.Context, id string) error

	// ListDocuments orders by title, then ID.
	ListDocuments(ctx context.Context) ([]domain.Document, error)
}
