package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// mockQueryService implements driving.QueryService for testing.
type mockQueryService struct {
	askFunc func(ctx context.Context, query string, opts domain.AskOptions) (*domain.Response, error)
	queries []string
}

func (m *mockQueryService) Ask(ctx context.Context, query string, opts domain.AskOptions) (*domain.Response, error) {
	m.queries = append(m.queries, query)
	if m.askFunc != nil {
		return m.askFunc(ctx, query, opts)
	}
	return &domain.Response{
		Query:    query,
		Answer:   "Serve la SCIA.",
		Strategy: domain.StrategyLegalOnly,
		Sources: []domain.Source{
			{ID: "dpr-380-2001_art22_c1_0", DocumentID: "dpr-380-2001", Citation: "D.P.R. 380/2001, art. 22"},
		},
	}, nil
}

// mockDocumentReader implements DocumentReader for testing.
type mockDocumentReader struct {
	docs []domain.Document
}

func (m *mockDocumentReader) ListDocuments(_ context.Context) ([]domain.Document, error) {
	return m.docs, nil
}

func (m *mockDocumentReader) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func TestNewPorts(t *testing.T) {
	query := &mockQueryService{}
	docs := &mockDocumentReader{}

	ports := NewPorts(query, docs)

	assert.Equal(t, query, ports.Query)
	assert.Equal(t, docs, ports.Documents)
}

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		want  error
	}{
		{"nil ports", nil, ErrInvalidPorts},
		{"missing query", &Ports{Documents: &mockDocumentReader{}}, ErrMissingQueryService},
		{"query only", &Ports{Query: &mockQueryService{}}, nil},
		{"all", NewPorts(&mockQueryService{}, &mockDocumentReader{}), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
