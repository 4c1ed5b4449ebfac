package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driving"
	"github.com/custodia-labs/urbanlex/internal/logger"
	"github.com/custodia-labs/urbanlex/internal/metrics"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

const (
	defaultMaxRetries = 3
	defaultRetryDelay = 500 * time.Millisecond
)

// IngestService indexes documents: chunk and enrich, embed, then
// store vectors in the namespace matching the document's scope.
type IngestService struct {
	pipeline    driven.PostProcessorPipeline
	embedder    driven.EmbeddingService
	vectors     driven.VectorStore
	docStore    driven.DocumentStore
	normalisers driven.NormaliserRegistry
	limiter     *rate.Limiter
	maxRetries  int
	retryDelay  time.Duration
	metrics     *metrics.Metrics
}

// IngestOption configures an IngestService.
type IngestOption func(*IngestService)

// WithDocumentStore keeps documents and chunks for inspection and
// enables removal by URI.
func WithDocumentStore(ds driven.DocumentStore) IngestOption {
	return func(s *IngestService) {
		s.docStore = ds
	}
}

// WithNormalisers enables IngestRaw and ApplyChanges.
func WithNormalisers(r driven.NormaliserRegistry) IngestOption {
	return func(s *IngestService) {
		s.normalisers = r
	}
}

// WithDocumentDelay sets the minimum interval between documents of a batch.
func WithDocumentDelay(d time.Duration) IngestOption {
	return func(s *IngestService) {
		if d > 0 {
			s.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithRetries sets how often a failed embedding call is retried and
// the first backoff delay, which doubles on every attempt.
func WithRetries(maxRetries int, delay time.Duration) IngestOption {
	return func(s *IngestService) {
		s.maxRetries = max(0, maxRetries)
		if delay > 0 {
			s.retryDelay = delay
		}
	}
}

// WithIngestMetrics records indexed documents per namespace.
func WithIngestMetrics(m *metrics.Metrics) IngestOption {
	return func(s *IngestService) {
		s.metrics = m
	}
}

// NewIngestService creates a new ingest service.
// The embedder and vector store are required for Ingest to succeed.
func NewIngestService(
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	vectors driven.VectorStore,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		pipeline:   pipeline,
		embedder:   embedder,
		vectors:    vectors,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest indexes one document.
func (s *IngestService) Ingest(ctx context.Context, doc *domain.Document) (*driving.IngestReport, error) {
	report, err := s.ingest(ctx, doc)

	ns, outcome := "", metrics.OutcomeOK
	if report != nil {
		ns = string(report.Namespace)
		if report.Chunks == 0 {
			outcome = metrics.OutcomeEmpty
		}
	}
	if err != nil {
		outcome = metrics.OutcomeError
	}
	s.metrics.DocumentIndexed(ns, outcome)
	return report, err
}

//nolint:gocyclo // Pipeline orchestration with sequential steps
func (s *IngestService) ingest(ctx context.Context, doc *domain.Document) (*driving.IngestReport, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectors == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}

	// 1. SEGMENT, CHUNK AND ENRICH
	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("post-process: %w", err)
	}

	ns := domain.NamespaceFor(doc.Metadata)
	report := &driving.IngestReport{
		DocumentID: doc.ID,
		Namespace:  ns,
		Chunks:     len(chunks),
		Stats:      domain.ComputeChunkingStats(chunks),
		Type:       domain.DocumentType(domain.MetaString(doc.Metadata, domain.MetaDocumentType)),
		Citation:   domain.MetaString(doc.Metadata, domain.MetaCitation),
	}
	if len(chunks) == 0 {
		logger.Info("No chunks for %s, nothing to index", doc.ID)
		return report, nil
	}

	// 2. GENERATE EMBEDDINGS
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	embeddings, err := s.embedWithRetry(ctx, texts)
	if err != nil {
		return report, fmt.Errorf("embed chunks: %w", err)
	}

	// 3. UPSERT VECTORS
	records := make([]driven.VectorRecord, len(chunks))
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
		if err := domain.ValidateFlatMetadata(chunks[i].Metadata); err != nil {
			return report, fmt.Errorf("chunk %s: %w", chunks[i].ID, err)
		}
		records[i] = driven.VectorRecord{ID: chunks[i].ID, Vector: embeddings[i], Metadata: chunks[i].Metadata}
	}
	if err := s.dropStale(ctx, doc.ID, ns, chunks); err != nil {
		logger.Warn("Failed to drop stale vectors of %s: %v", doc.ID, err)
	}
	if err := s.vectors.Upsert(ctx, ns, records); err != nil {
		return report, fmt.Errorf("upsert vectors: %w", err)
	}

	// 4. SAVE TO DOCUMENT STORE
	if s.docStore != nil {
		if err := s.docStore.SaveDocument(ctx, doc); err != nil {
			return report, fmt.Errorf("save document: %w", err)
		}
		if err := s.docStore.SaveChunks(ctx, chunks); err != nil {
			return report, fmt.Errorf("save chunks: %w", err)
		}
	}

	logger.Info("Indexed %s into %s: %d chunks, %d tokens", doc.ID, ns, report.Chunks, report.Stats.TotalTokens)
	return report, nil
}

// dropStale removes vectors of a previous version of the document
// that the new chunking no longer produces, including vectors left in
// another namespace after a reclassification.
func (s *IngestService) dropStale(ctx context.Context, docID string, ns domain.Namespace, chunks []domain.Chunk) error {
	if s.docStore == nil {
		return nil
	}
	old, err := s.docStore.GetDocument(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	oldChunks, err := s.docStore.GetChunks(ctx, docID)
	if err != nil {
		return err
	}

	oldNS := domain.NamespaceFor(old.Metadata)
	sameNS := oldNS == ns
	current := make(map[string]bool, len(chunks))
	for i := range chunks {
		current[chunks[i].ID] = true
	}

	var stale []string
	for i := range oldChunks {
		if !sameNS || !current[oldChunks[i].ID] {
			stale = append(stale, oldChunks[i].ID)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	logger.Debug("Dropping %d stale vectors of %s from %s", len(stale), docID, oldNS)
	return s.vectors.Delete(ctx, oldNS, stale)
}

// embedWithRetry calls EmbedBatch, backing off exponentially between
// failed attempts. A vector count mismatch is not retried.
func (s *IngestService) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0
	policy.Reset()
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(s.maxRetries)), ctx)

	attempt := 0
	embed := func() ([][]float32, error) {
		attempt++
		embeddings, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(embeddings) != len(texts) {
			return nil, backoff.Permanent(fmt.Errorf("got %d embeddings for %d texts", len(embeddings), len(texts)))
		}
		return embeddings, nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("Embedding attempt %d failed: %v (retrying in %s)", attempt, err, wait)
	}
	return backoff.RetryNotifyWithData(embed, retry, notify)
}

// IngestBatch indexes documents one at a time. Each failure is
// recorded in its report; only cancellation stops the batch.
func (s *IngestService) IngestBatch(ctx context.Context, docs []*domain.Document) ([]driving.IngestReport, error) {
	runID := uuid.NewString()
	logger.Section("Ingest " + runID[:8])
	logger.Info("Ingesting %d documents", len(docs))

	reports := make([]driving.IngestReport, 0, len(docs))
	failed := 0
	for _, doc := range docs {
		if err := s.limiter.Wait(ctx); err != nil {
			return reports, err
		}

		report, err := s.Ingest(ctx, doc)
		if report == nil {
			report = &driving.IngestReport{}
			if doc != nil {
				report.DocumentID = doc.ID
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return reports, ctx.Err()
			}
			report.Err = err
			failed++
			logger.Warn("Failed to ingest %s: %v", report.DocumentID, err)
		}
		report.RunID = runID
		reports = append(reports, *report)
	}

	logger.Info("Ingest %s complete: %d documents, %d errors", runID[:8], len(docs), failed)
	return reports, nil
}

// IngestRaw normalises raw and indexes the resulting document.
func (s *IngestService) IngestRaw(ctx context.Context, raw *domain.RawDocument) (*driving.IngestReport, error) {
	if s.normalisers == nil {
		return nil, fmt.Errorf("%w: no normalisers configured", domain.ErrUnsupportedType)
	}
	doc, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}
	return s.Ingest(ctx, doc)
}

// Remove deletes the document stored for uri and its vectors.
func (s *IngestService) Remove(ctx context.Context, uri string) error {
	if s.docStore == nil {
		return fmt.Errorf("remove %s: document store not configured", uri)
	}
	docs, err := s.docStore.ListDocuments(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	var doc *domain.Document
	for i := range docs {
		if docs[i].URI == uri {
			doc = &docs[i]
			break
		}
	}
	if doc == nil {
		// Never indexed or already removed.
		return nil
	}

	chunks, err := s.docStore.GetChunks(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("get chunks: %w", err)
	}
	ids := make([]string, len(chunks))
	for i := range chunks {
		ids[i] = chunks[i].ID
	}
	if s.vectors != nil && len(ids) > 0 {
		if err := s.vectors.Delete(ctx, domain.NamespaceFor(doc.Metadata), ids); err != nil {
			return fmt.Errorf("delete vectors: %w", err)
		}
	}
	if err := s.docStore.DeleteDocument(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	logger.Info("Removed %s (%d chunks)", doc.ID, len(ids))
	return nil
}

// ApplyChanges indexes or removes documents as change events arrive.
func (s *IngestService) ApplyChanges(
	ctx context.Context, changes <-chan domain.RawDocumentChange,
) (driving.ChangeSummary, error) {
	var summary driving.ChangeSummary

	for {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()

		case change, ok := <-changes:
			if !ok {
				return summary, nil
			}

			switch change.Type {
			case domain.ChangeCreated, domain.ChangeUpdated:
				logger.Debug("Processing: %s", change.Document.URI)
				if err := s.limiter.Wait(ctx); err != nil {
					return summary, err
				}
				if _, err := s.IngestRaw(ctx, &change.Document); err != nil {
					summary.Failed++
					logger.Warn("Failed to index %s: %v", change.Document.URI, err)
					continue
				}
				summary.Indexed++

			case domain.ChangeDeleted:
				logger.Debug("Deleting: %s", change.Document.URI)
				if err := s.Remove(ctx, change.Document.URI); err != nil {
					summary.Failed++
					logger.Warn("Failed to remove %s: %v", change.Document.URI, err)
					continue
				}
				summary.Removed++
			}
		}
	}
}

// Reset removes every vector from a namespace and forgets the
// documents stored for it.
func (s *IngestService) Reset(ctx context.Context, ns domain.Namespace) error {
	if !ns.IsValid() {
		return fmt.Errorf("%w: unknown namespace %q", domain.ErrInvalidInput, ns)
	}
	if s.vectors == nil {
		return domain.ErrVectorStoreUnavailable
	}
	if err := s.vectors.DeleteNamespace(ctx, ns); err != nil {
		return fmt.Errorf("delete namespace: %w", err)
	}

	if s.docStore != nil {
		docs, err := s.docStore.ListDocuments(ctx)
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		for i := range docs {
			if domain.NamespaceFor(docs[i].Metadata) != ns {
				continue
			}
			if err := s.docStore.DeleteDocument(ctx, docs[i].ID); err != nil {
				return fmt.Errorf("delete document %s: %w", docs[i].ID, err)
			}
		}
	}

	logger.Info("Reset namespace %s", ns)
	return nil
}
