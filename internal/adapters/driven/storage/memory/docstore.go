package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
// Stored values are copies; callers may keep mutating what they saved.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string][]domain.Chunk
	// owner maps chunk ID to document ID.
	owner     map[string]string
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string][]domain.Chunk),
		owner:     make(map[string]string),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document without ID", domain.ErrInvalidInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = copyDocument(doc)
	return nil
}

// SaveChunks replaces the chunks of every document they belong to.
func (s *DocumentStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	byDoc := make(map[string][]domain.Chunk)
	for i := range chunks {
		byDoc[chunks[i].DocumentID] = append(byDoc[chunks[i].DocumentID], copyChunk(&chunks[i]))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for docID, cs := range byDoc {
		s.dropChunks(docID)
		sort.SliceStable(cs, func(i, j int) bool { return cs[i].Position < cs[j].Position })
		s.chunks[docID] = cs
		for i := range cs {
			s.owner[cs[i].ID] = docID
		}
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := copyDocument(&doc)
	return &out, nil
}

// GetChunks retrieves all chunks for a document ordered by position.
func (s *DocumentStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.chunks[documentID]
	if stored == nil {
		return nil, nil
	}
	out := make([]domain.Chunk, len(stored))
	for i := range stored {
		out[i] = copyChunk(&stored[i])
	}
	return out, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *DocumentStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docID, ok := s.owner[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	chunks := s.chunks[docID]
	i := slices.IndexFunc(chunks, func(c domain.Chunk) bool { return c.ID == id })
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	c := copyChunk(&chunks[i])
	return &c, nil
}

// DeleteDocument removes a document and its chunks.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	s.dropChunks(id)
	return nil
}

// dropChunks forgets a document's chunks. Callers hold mu.
func (s *DocumentStore) dropChunks(docID string) {
	for _, c := range s.chunks[docID] {
		delete(s.owner, c.ID)
	}
	delete(s.chunks, docID)
}

// ListDocuments returns all documents ordered by title, then ID.
func (s *DocumentStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Document, 0, len(s.documents))
	for id := range s.documents {
		doc := s.documents[id]
		result = append(result, copyDocument(&doc))
	}
	sort.Slice(result, func(i, j int) bool {
		if c := strings.Compare(result[i].Title, result[j].Title); c != 0 {
			return c < 0
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func copyDocument(doc *domain.Document) domain.Document {
	out := *doc
	out.Metadata = maps.Clone(doc.Metadata)
	out.Articles = slices.Clone(doc.Articles)
	return out
}

func copyChunk(c *domain.Chunk) domain.Chunk {
	out := *c
	out.Metadata = maps.Clone(c.Metadata)
	out.References = slices.Clone(c.References)
	out.Embedding = slices.Clone(c.Embedding)
	return out
}
