package driven

import (
	"context"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// Normaliser turns the bytes of one source format into a Document whose
// Content is plain text ready for segmentation.
type Normaliser interface {
	SupportedMIMETypes() []string

	// Priority breaks ties between normalisers claiming the same MIME
	// type. Format parsers use 50-89, plain text fallbacks 1-9.
	Priority() int

	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// NormaliserRegistry dispatches a raw document to the highest priority
// normaliser for its MIME type.
type NormaliserRegistry interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
	Register(normaliser Normaliser)
	SupportedMIMETypes() []string
}
