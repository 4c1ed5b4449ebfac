// Package postprocessors provides the document processing pipeline:
// segmentation, chunking and metadata enrichment.
package postprocessors

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/logger"
	"github.com/custodia-labs/urbanlex/internal/metrics"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs processors in order, threading the chunk slice through
// them. The first processor sees nil chunks.
type Pipeline struct {
	steps   []driven.PostProcessor
	metrics *metrics.Metrics
}

// NewPipeline creates a pipeline running steps in the given order.
func NewPipeline(steps ...driven.PostProcessor) *Pipeline {
	return &Pipeline{steps: steps}
}

// WithMetrics records per-processor timings on m and returns p.
func (p *Pipeline) WithMetrics(m *metrics.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// Process runs doc through every step. Cancellation is checked between
// steps; a failing step aborts the run and is named in the error.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		out, err := step.Process(ctx, doc, chunks)
		elapsed := time.Since(start)
		p.metrics.ProcessorRan(step.Name(), elapsed)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", step.Name(), err)
		}

		logger.Debug("pipeline: %s on %s: %d -> %d chunks in %s",
			step.Name(), doc.ID, len(chunks), len(out), elapsed.Round(time.Microsecond))
		chunks = out
	}
	return chunks, nil
}

// Add appends a step.
func (p *Pipeline) Add(step driven.PostProcessor) {
	p.steps = append(p.steps, step)
}

// Len returns the number of steps.
func (p *Pipeline) Len() int {
	return len(p.steps)
}

// Names returns the step names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}
