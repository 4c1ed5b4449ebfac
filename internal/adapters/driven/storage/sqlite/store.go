package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/urbanlex/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "urbanlex.db"

// Store is a unified SQLite-based storage that provides the document
// store and the vector store over one connection.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.urbanlex/data/urbanlex.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".urbanlex", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// WAL lets readers proceed while an ingest batch writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore interface backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// VectorStore returns a VectorStore interface backed by this store.
// Closing it does not close the underlying database.
func (s *Store) VectorStore() driven.VectorStore {
	return &vectorStore{store: s}
}

// Version returns the highest applied migration.
func (s *Store) Version(ctx context.Context) (int, error) {
	var version int
	row := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&version); err != nil {
		return 0, fmt.Errorf("getting current version: %w", err)
	}
	return version, nil
}

// migrate runs all pending migrations. Each migration and its version
// row are applied in one transaction.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	currentVersion, err := s.Version(context.Background())
	if err != nil {
		return err
	}

	pending, err := migrations.Up(fsys)
	if err != nil {
		return err
	}
	for _, m := range pending {
		if m.Version <= currentVersion {
			continue
		}
		if err := s.applyMigration(m.Version, m.Script); err != nil {
			return fmt.Errorf("executing migration %s: %w", m.Name, err)
		}
	}

	return nil
}

func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

const documentColumns = `id, uri, title, doc_type, number, doc_date, authority, source,
	content, preamble, articles, metadata, created_at, updated_at`

const chunkColumns = `id, document_id, content, position, token_count,
	hierarchy_document, hierarchy_article, hierarchy_comma, chunk_type, quality,
	refs, overlap_tokens, embedding, metadata`

// SaveDocument stores or updates a document.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document without ID", domain.ErrInvalidInput)
	}

	articlesJSON, err := marshalJSON(doc.Articles, "[]")
	if err != nil {
		return fmt.Errorf("marshalling articles: %w", err)
	}
	metadataJSON, err := marshalJSON(doc.Metadata, "{}")
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			uri = excluded.uri,
			title = excluded.title,
			doc_type = excluded.doc_type,
			number = excluded.number,
			doc_date = excluded.doc_date,
			authority = excluded.authority,
			source = excluded.source,
			content = excluded.content,
			preamble = excluded.preamble,
			articles = excluded.articles,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, doc.ID, doc.URI, doc.Title, doc.Type, doc.Number, doc.Date, doc.Authority, doc.Source,
		doc.Content, doc.Preamble, articlesJSON, metadataJSON, doc.CreatedAt, doc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// SaveChunks replaces the chunks of every document they belong to.
func (s *documentStore) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	cleared := make(map[string]bool)
	for i := range chunks {
		docID := chunks[i].DocumentID
		if cleared[docID] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", docID); err != nil {
			return fmt.Errorf("clearing chunks of %s: %w", docID, err)
		}
		cleared[docID] = true
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (`+chunkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			content = excluded.content,
			position = excluded.position,
			token_count = excluded.token_count,
			hierarchy_document = excluded.hierarchy_document,
			hierarchy_article = excluded.hierarchy_article,
			hierarchy_comma = excluded.hierarchy_comma,
			chunk_type = excluded.chunk_type,
			quality = excluded.quality,
			refs = excluded.refs,
			overlap_tokens = excluded.overlap_tokens,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range chunks {
		c := &chunks[i]
		refsJSON, err := marshalJSON(c.References, "[]")
		if err != nil {
			return fmt.Errorf("marshalling chunk references: %w", err)
		}
		metadataJSON, err := marshalJSON(c.Metadata, "{}")
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		if _, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.Content, c.Position, c.TokenCount,
			c.Hierarchy.Document, c.Hierarchy.Article, c.Hierarchy.Comma, string(c.Type), c.Quality,
			refsJSON, c.OverlapTokens, float32SliceToBytes(c.Embedding), metadataJSON); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// GetChunks retrieves all chunks for a document ordered by position.
func (s *documentStore) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+chunkColumns+`
		FROM chunks WHERE document_id = ?
		ORDER BY position
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *documentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+chunkColumns+` FROM chunks WHERE id = ?`, id)
	return scanChunk(row)
}

// DeleteDocument removes a document and, through the foreign key, its chunks.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListDocuments returns all documents ordered by title, then ID.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT `+documentColumns+`
		FROM documents ORDER BY title, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	docs := []domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}

	return docs, nil
}

// ==================== Helper Functions ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// marshalJSON encodes v, writing empty for nil values.
func marshalJSON(v any, empty string) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(data) == "null" {
		return empty, nil
	}
	return string(data), nil
}

// unmarshalMetadata decodes flat metadata. JSON arrays come back as
// []string so filters and readers see the types that were stored.
func unmarshalMetadata(data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var md map[string]any
	if err := json.Unmarshal([]byte(data), &md); err != nil {
		return nil, err
	}
	for k, v := range md {
		list, ok := v.([]any)
		if !ok {
			continue
		}
		strs := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				strs = append(strs, s)
			}
		}
		md[k] = strs
	}
	return md, nil
}

// scanDocument scans a single document row.
func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var articlesJSON, metadataJSON string

	if err := row.Scan(&doc.ID, &doc.URI, &doc.Title, &doc.Type, &doc.Number, &doc.Date,
		&doc.Authority, &doc.Source, &doc.Content, &doc.Preamble, &articlesJSON, &metadataJSON,
		&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	if articlesJSON != "" && articlesJSON != "[]" {
		if err := json.Unmarshal([]byte(articlesJSON), &doc.Articles); err != nil {
			return nil, fmt.Errorf("unmarshaling articles: %w", err)
		}
	}

	md, err := unmarshalMetadata(metadataJSON)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling metadata: %w", err)
	}
	doc.Metadata = md

	return &doc, nil
}

// scanChunk scans a single chunk row.
func scanChunk(row scanner) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var chunkType, refsJSON, metadataJSON string
	var embeddingBlob []byte

	if err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content, &chunk.Position, &chunk.TokenCount,
		&chunk.Hierarchy.Document, &chunk.Hierarchy.Article, &chunk.Hierarchy.Comma, &chunkType,
		&chunk.Quality, &refsJSON, &chunk.OverlapTokens, &embeddingBlob, &metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Type = domain.ChunkType(chunkType)
	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	if refsJSON != "" && refsJSON != "[]" {
		if err := json.Unmarshal([]byte(refsJSON), &chunk.References); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk references: %w", err)
		}
	}

	md, err := unmarshalMetadata(metadataJSON)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
	}
	chunk.Metadata = md

	return &chunk, nil
}
