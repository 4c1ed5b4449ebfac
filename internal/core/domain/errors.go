package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown normaliser or provider type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Ingestion and semantic queries are disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorStoreUnavailable indicates the vector store is not configured.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Configuration Errors.

	// ErrInvalidChunkConfig indicates the chunker configuration is unusable.
	ErrInvalidChunkConfig = errors.New("invalid chunk config")

	// ErrInvalidStrategyTable indicates namespace weights that do not sum
	// to one or reference unknown namespaces. This is a programming error.
	ErrInvalidStrategyTable = errors.New("invalid strategy table")

	// Retrieval Errors.

	// ErrAllNamespacesFailed indicates no namespace returned results.
	ErrAllNamespacesFailed = errors.New("all namespaces failed")

	// ErrCacheMiss indicates the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
)
