package driving

import (
	"context"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// IngestReport summarises the indexing of one document.
type IngestReport struct {
	DocumentID string
	Namespace  domain.Namespace
	Chunks     int
	Stats      domain.ChunkingStats
	Type       domain.DocumentType
	Citation   string
	// RunID is shared by the reports of one IngestBatch call.
	RunID      string
	Err        error
}

// ChangeSummary counts the outcome of applied change events.
type ChangeSummary struct {
	Indexed int
	Removed int
	Failed  int
}

// IngestService chunks, enriches, embeds and stores documents.
type IngestService interface {
	// Ingest indexes one document. Re-ingesting the same document
	// replaces its vectors since chunk IDs are deterministic.
	Ingest(ctx context.Context, doc *domain.Document) (*IngestReport, error)

	// IngestBatch indexes documents sequentially, pacing calls to the
	// embedding provider. A failing document does not stop the batch.
	IngestBatch(ctx context.Context, docs []*domain.Document) ([]IngestReport, error)

	// IngestRaw normalises raw bytes by MIME type, then indexes them.
	IngestRaw(ctx context.Context, raw *domain.RawDocument) (*IngestReport, error)

	// Remove deletes the document stored for uri and its vectors.
	// Unknown URIs are not an error.
	Remove(ctx context.Context, uri string) error

	// ApplyChanges indexes or removes documents as change events arrive
	// until the channel closes or ctx is done. Failed changes are logged
	// and counted; only ctx errors are returned.
	ApplyChanges(ctx context.Context, changes <-chan domain.RawDocumentChange) (ChangeSummary, error)

	// Reset removes every vector from a namespace.
	Reset(ctx context.Context, ns domain.Namespace) error
}

// QueryService answers questions end to end.
type QueryService interface {
	// Ask classifies, retrieves and composes an answer. Retrieval
	// failures degrade to a templated apology rather than an error.
	Ask(ctx context.Context, query string, opts domain.AskOptions) (*domain.Response, error)
}
