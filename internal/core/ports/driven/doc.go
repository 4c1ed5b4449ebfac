// Package driven declares the infrastructure the core calls out to.
//
// Ingestion and querying need an EmbeddingService, a VectorStore, the
// PostProcessor stages, Normalisers and a ConfigStore. DocumentStore and
// Cache are optional: without a document store citations cannot be
// opened in full, and without a cache every question runs in full.
//
// Ports import domain and nothing else from this module.
package driven
