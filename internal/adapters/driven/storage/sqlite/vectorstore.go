package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/urbanlex/internal/adapters/driven/storage/vectors"
	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore. Queries scan the
// namespace and rank rows in Go.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Upsert inserts or replaces records in a namespace. Nothing is
// written when any record is invalid.
func (s *vectorStore) Upsert(ctx context.Context, ns domain.Namespace, records []driven.VectorRecord) error {
	if !ns.IsValid() {
		return fmt.Errorf("%w: unknown namespace %q", domain.ErrInvalidInput, ns)
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	dims, err := namespaceDims(ctx, tx, ns)
	if err != nil {
		return err
	}

	metadata := make([]string, len(records))
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			return fmt.Errorf("%w: record without ID", domain.ErrInvalidInput)
		}
		if err := vectors.CheckDimensions(rec.Vector, dims); err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if err := domain.ValidateFlatMetadata(rec.Metadata); err != nil {
			return fmt.Errorf("record %s: %w", rec.ID, err)
		}
		if metadata[i], err = marshalJSON(rec.Metadata, "{}"); err != nil {
			return fmt.Errorf("marshalling metadata of %s: %w", rec.ID, err)
		}
		dims = len(rec.Vector)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (namespace, id, dims, vector, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(namespace, id) DO UPDATE SET
			dims = excluded.dims,
			vector = excluded.vector,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		if _, err := stmt.ExecContext(ctx, string(ns), rec.ID, len(rec.Vector),
			float32SliceToBytes(rec.Vector), metadata[i]); err != nil {
			return fmt.Errorf("saving vector %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query returns up to topK records most similar to vector.
func (s *vectorStore) Query(
	ctx context.Context,
	ns domain.Namespace,
	vector []float32,
	topK int,
	filter driven.VectorFilter,
) ([]driven.VectorHit, error) {
	if !ns.IsValid() {
		return nil, fmt.Errorf("%w: unknown namespace %q", domain.ErrInvalidInput, ns)
	}

	dims, err := namespaceDims(ctx, s.store.db, ns)
	if err != nil {
		return nil, err
	}
	if dims == 0 {
		return nil, nil
	}
	if err := vectors.CheckDimensions(vector, dims); err != nil {
		return nil, err
	}

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT id, vector, metadata FROM vectors WHERE namespace = ?", string(ns))
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	ranker := vectors.NewRanker(vector, filter)
	for rows.Next() {
		rec, err := scanVector(rows)
		if err != nil {
			return nil, err
		}
		ranker.Add(*rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	return ranker.Top(topK), nil
}

// Fetch returns the records with the given IDs in request order.
func (s *vectorStore) Fetch(ctx context.Context, ns domain.Namespace, ids []string) ([]driven.VectorRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, string(ns))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.store.db.QueryContext(ctx,
		"SELECT id, vector, metadata FROM vectors WHERE namespace = ? AND id IN ("+placeholders(len(ids))+")",
		args...)
	if err != nil {
		return nil, fmt.Errorf("fetching vectors: %w", err)
	}
	defer rows.Close()

	found := make(map[string]driven.VectorRecord, len(ids))
	for rows.Next() {
		rec, err := scanVector(rows)
		if err != nil {
			return nil, err
		}
		found[rec.ID] = *rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	out := make([]driven.VectorRecord, 0, len(found))
	for _, id := range ids {
		if rec, ok := found[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Delete removes the records with the given IDs.
func (s *vectorStore) Delete(ctx context.Context, ns domain.Namespace, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, string(ns))
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM vectors WHERE namespace = ? AND id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	return nil
}

// DeleteNamespace removes every record in a namespace.
func (s *vectorStore) DeleteNamespace(ctx context.Context, ns domain.Namespace) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM vectors WHERE namespace = ?", string(ns)); err != nil {
		return fmt.Errorf("deleting namespace %s: %w", ns, err)
	}
	return nil
}

// Close is a no-op; the owning Store closes the database.
func (s *vectorStore) Close() error {
	return nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// namespaceDims returns the dimensions used by a namespace, 0 when empty.
func namespaceDims(ctx context.Context, q querier, ns domain.Namespace) (int, error) {
	var dims int
	err := q.QueryRowContext(ctx, "SELECT dims FROM vectors WHERE namespace = ? LIMIT 1", string(ns)).Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading namespace dimensions: %w", err)
	}
	return dims, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func scanVector(row scanner) (*driven.VectorRecord, error) {
	var rec driven.VectorRecord
	var blob []byte
	var metadataJSON string

	if err := row.Scan(&rec.ID, &blob, &metadataJSON); err != nil {
		return nil, fmt.Errorf("scanning vector: %w", err)
	}

	rec.Vector = bytesToFloat32Slice(blob)
	md, err := unmarshalMetadata(metadataJSON)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling vector metadata: %w", err)
	}
	rec.Metadata = md
	return &rec, nil
}
