package mcp

import (
	"context"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	response *domain.Response
	err      error
	query    string
	opts     domain.AskOptions
}

func (m *mockQueryService) Ask(_ context.Context, query string, opts domain.AskOptions) (*domain.Response, error) {
	m.query = query
	m.opts = opts
	return m.response, m.err
}

// mockClassifier is a mock implementation of driving.QueryClassifier.
type mockClassifier struct {
	classification domain.QueryClassification
}

func (m *mockClassifier) Classify(query string) domain.QueryClassification {
	cls := m.classification
	cls.Query = query
	return cls
}

// mockChunkingService is a mock implementation of driving.ChunkingService.
type mockChunkingService struct {
	result   *domain.ChunkingResult
	err      error
	articles []domain.Article
	doc      *domain.Document
}

func (m *mockChunkingService) ChunkDocument(_ context.Context, doc *domain.Document) (*domain.ChunkingResult, error) {
	m.doc = doc
	if m.err != nil {
		return nil, m.err
	}
	doc.Articles = m.articles
	return m.result, nil
}

// mockMetadataService is a mock implementation of driving.MetadataService.
type mockMetadataService struct {
	meta     *domain.EnrichedMetadata
	err      error
	hints    domain.DocumentConfig
	articles int
}

func (m *mockMetadataService) ExtractMetadata(
	_ context.Context, doc *domain.Document, hints domain.DocumentConfig,
) (*domain.EnrichedMetadata, error) {
	m.hints = hints
	m.articles = len(doc.Articles)
	return m.meta, m.err
}

// mockDocumentReader is a mock implementation of DocumentReader.
type mockDocumentReader struct {
	documents []domain.Document
	err       error
}

func (m *mockDocumentReader) ListDocuments(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentReader) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.documents {
		if m.documents[i].ID == id {
			return &m.documents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func newTestPorts() *Ports {
	return &Ports{
		Query:      &mockQueryService{response: &domain.Response{}},
		Classifier: &mockClassifier{},
	}
}
