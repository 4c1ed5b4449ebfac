package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/urbanlex/internal/adapters/driven/storage/vectors"
	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

type namespaceData struct {
	dims    int
	records map[string]driven.VectorRecord
}

// VectorStore is an in-memory implementation of driven.VectorStore.
// Queries scan every record of the namespace.
type VectorStore struct {
	mu         sync.RWMutex
	namespaces map[domain.Namespace]*namespaceData
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{namespaces: make(map[domain.Namespace]*namespaceData)}
}

// Upsert inserts or replaces records in a namespace. Every vector in a
// namespace must share the dimensions of the first one stored.
func (s *VectorStore) Upsert(ctx context.Context, ns domain.Namespace, records []driven.VectorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ns.IsValid() {
		return fmt.Errorf("%w: unknown namespace %q", domain.ErrInvalidInput, ns)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.namespaces[ns]
	dims := 0
	if data != nil {
		dims = data.dims
	}
	for i := range records {
		if records[i].ID == "" {
			return fmt.Errorf("%w: record without ID", domain.ErrInvalidInput)
		}
		if err := vectors.CheckDimensions(records[i].Vector, dims); err != nil {
			return fmt.Errorf("record %s: %w", records[i].ID, err)
		}
		if err := domain.ValidateFlatMetadata(records[i].Metadata); err != nil {
			return fmt.Errorf("record %s: %w", records[i].ID, err)
		}
		dims = len(records[i].Vector)
	}
	if len(records) == 0 {
		return nil
	}

	if data == nil {
		data = &namespaceData{records: make(map[string]driven.VectorRecord)}
		s.namespaces[ns] = data
	}
	data.dims = dims
	for i := range records {
		data.records[records[i].ID] = copyRecord(&records[i])
	}
	return nil
}

// Query returns up to topK records most similar to vector.
func (s *VectorStore) Query(
	ctx context.Context,
	ns domain.Namespace,
	vector []float32,
	topK int,
	filter driven.VectorFilter,
) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ns.IsValid() {
		return nil, fmt.Errorf("%w: unknown namespace %q", domain.ErrInvalidInput, ns)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data := s.namespaces[ns]
	if data == nil {
		return nil, nil
	}
	if err := vectors.CheckDimensions(vector, data.dims); err != nil {
		return nil, err
	}

	ranker := vectors.NewRanker(vector, filter)
	for _, rec := range data.records {
		ranker.Add(rec)
	}
	hits := ranker.Top(topK)
	for i := range hits {
		hits[i].Metadata = maps.Clone(hits[i].Metadata)
	}
	return hits, nil
}

// Fetch returns the records with the given IDs in request order.
func (s *VectorStore) Fetch(_ context.Context, ns domain.Namespace, ids []string) ([]driven.VectorRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := s.namespaces[ns]
	if data == nil {
		return nil, nil
	}
	out := make([]driven.VectorRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := data.records[id]; ok {
			out = append(out, copyRecord(&rec))
		}
	}
	return out, nil
}

// Delete removes the records with the given IDs.
func (s *VectorStore) Delete(_ context.Context, ns domain.Namespace, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.namespaces[ns]
	if data == nil {
		return nil
	}
	for _, id := range ids {
		delete(data.records, id)
	}
	return nil
}

// DeleteNamespace removes every record in a namespace.
func (s *VectorStore) DeleteNamespace(_ context.Context, ns domain.Namespace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, ns)
	return nil
}

// Count returns the number of records in a namespace.
func (s *VectorStore) Count(ns domain.Namespace) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if data := s.namespaces[ns]; data != nil {
		return len(data.records)
	}
	return 0
}

// Close is a no-op.
func (s *VectorStore) Close() error {
	return nil
}

func copyRecord(r *driven.VectorRecord) driven.VectorRecord {
	return driven.VectorRecord{
		ID:       r.ID,
		Vector:   slices.Clone(r.Vector),
		Metadata: maps.Clone(r.Metadata),
	}
}
