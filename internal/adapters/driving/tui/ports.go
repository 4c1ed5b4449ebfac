// Package tui provides an interactive terminal console for urbanlex.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"context"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driving"
)

// DocumentReader lists and loads stored documents.
type DocumentReader interface {
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
}

// Ports aggregates the services the console needs.
type Ports struct {
	// Query answers questions.
	Query driving.QueryService

	// Documents is optional; without it the documents views are hidden.
	Documents DocumentReader
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(query driving.QueryService, documents DocumentReader) *Ports {
	return &Ports{
		Query:     query,
		Documents: documents,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
