// Package sqlite keeps documents, chunks and vectors in one SQLite file
// (~/.urbanlex/data/urbanlex.db by default) through modernc.org/sqlite,
// so the binary needs no cgo.
//
// Store exposes two views over the same connection: DocumentStore for
// acts, articles and chunks, and VectorStore for namespaced embeddings.
// Vectors are stored as little-endian float32 blobs and ranked by cosine
// similarity in Go; a corpus of a few hundred acts fits comfortably.
//
// The schema is versioned by the scripts in migrations/. Each pending
// version is applied in its own transaction when the store opens. The
// database runs in WAL mode so readers do not block ingestion.
package sqlite
