package driven

import "context"

// EmbeddingService maps chunk and query text to vectors. Chunks and
// queries of one corpus must be embedded by the same model, so the model
// name and dimensions are recorded alongside stored vectors.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	Dimensions() int
	ModelName() string

	// Ping checks the provider is usable without embedding anything
	// billable where the provider allows it.
	Ping(ctx context.Context) error

	Close() error
}
