package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driving"
	"github.com/custodia-labs/urbanlex/internal/logger"
	"github.com/custodia-labs/urbanlex/internal/metrics"
)

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// nearTie is the score gap under which reranking prefers legal and
// higher-quality matches.
const nearTie = 0.1

// namespaceResult is what one namespace contributed to a search.
// A failed namespace has err set and no hits.
type namespaceResult struct {
	ns      domain.Namespace
	hits    []driven.VectorHit
	err     error
	elapsed time.Duration
}

// SearchService merges nearest-neighbour matches across the weighted
// namespaces of a classification.
type SearchService struct {
	store   driven.VectorStore
	cfg     domain.SearchSettings
	metrics *metrics.Metrics
}

// NewSearchService creates a new search service. Zero config fields
// take their defaults; a negative threshold or boost (domain.Off)
// disables it. m may be nil.
func NewSearchService(store driven.VectorStore, cfg domain.SearchSettings, m *metrics.Metrics) *SearchService {
	return &SearchService{
		store:   store,
		cfg:     withSearchDefaults(cfg),
		metrics: m,
	}
}

func withSearchDefaults(cfg domain.SearchSettings) domain.SearchSettings {
	d := domain.DefaultSettings().Search
	if cfg.TopK <= 0 {
		cfg.TopK = d.TopK
	}
	if cfg.MaxTopK <= 0 {
		cfg.MaxTopK = d.MaxTopK
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = d.MaxCandidates
	}
	cfg.Threshold = ratioOrDefault(cfg.Threshold, d.Threshold)
	cfg.LegalBoost = ratioOrDefault(cfg.LegalBoost, d.LegalBoost)
	cfg.DiversityBoost = ratioOrDefault(cfg.DiversityBoost, d.DiversityBoost)
	if cfg.NamespaceTimeout <= 0 {
		cfg.NamespaceTimeout = d.NamespaceTimeout
	}
	if cfg.GlobalTimeout <= 0 {
		cfg.GlobalTimeout = d.GlobalTimeout
	}
	return cfg
}

// ratioOrDefault maps zero to the default and negative values to a
// disabled setting.
func ratioOrDefault(v, def float64) float64 {
	switch {
	case v == 0:
		return def
	case v < 0:
		return 0
	default:
		return v
	}
}

// Config returns the effective search configuration.
func (s *SearchService) Config() domain.SearchSettings {
	return s.cfg
}

// Search fans out to every namespace of the classification, then
// merges, boosts, filters and reranks the matches. Namespace failures
// are reported in the result; only invalid input returns an error.
func (s *SearchService) Search(
	ctx context.Context, embedding []float32, cls domain.QueryClassification, opts domain.SearchOptions,
) (*domain.SearchResult, error) {
	logger.Section("Search Execution")

	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", domain.ErrInvalidInput)
	}
	if s.store == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}
	if err := cls.Validate(); err != nil {
		return nil, err
	}

	topK := s.topK(opts.TopK)
	threshold := s.cfg.Threshold
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}
	candidates := min(2*topK, s.cfg.MaxCandidates)
	logger.Debug("Strategy: %s, namespaces: %v, topK: %d, candidates: %d, threshold: %.2f",
		cls.Strategy, cls.Namespaces, topK, candidates, threshold)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.GlobalTimeout)
	defer cancel()

	results := s.fanOut(ctx, embedding, cls, candidates)

	res := &domain.SearchResult{}
	failed := 0
	for _, r := range results {
		outcome := domain.NamespaceOutcome{Namespace: r.ns, Matches: len(r.hits), Duration: r.elapsed}
		if r.err != nil {
			outcome.Err = r.err.Error()
			failed++
			logger.Warn("Namespace %s failed: %v", r.ns, r.err)
		}
		res.Outcomes = append(res.Outcomes, outcome)
	}
	if failed == len(results) {
		res.Error = domain.ErrAllNamespacesFailed.Error()
		logger.Warn("Search failed: %s", res.Error)
		return res, nil
	}
	res.Partial = failed > 0

	res.Matches = s.rank(results, cls.Weights, threshold, topK)

	logger.Info("Final matches: %d (partial=%t)", len(res.Matches), res.Partial)
	return res, nil
}

// rank merges namespace results into the final ordered match list.
func (s *SearchService) rank(
	results []namespaceResult, weights domain.NamespaceWeights, threshold float64, topK int,
) []domain.SearchMatch {
	matches := merge(results, weights)
	s.boost(matches)
	matches = filterByThreshold(matches, threshold)
	rerank(matches)
	if len(matches) > topK {
		matches = matches[:topK]
	}
	for i := range matches {
		matches[i].Relevance = domain.RelevanceFor(matches[i].AdjustedScore)
	}
	return matches
}

func (s *SearchService) topK(requested int) int {
	if requested <= 0 {
		requested = s.cfg.TopK
	}
	return min(requested, s.cfg.MaxTopK)
}

// fanOut queries every namespace concurrently. Each goroutine records
// its own result and returns nil, so one failure never cancels the rest.
func (s *SearchService) fanOut(
	ctx context.Context, embedding []float32, cls domain.QueryClassification, topK int,
) []namespaceResult {
	results := make([]namespaceResult, len(cls.Namespaces))

	var g errgroup.Group
	for i, ns := range cls.Namespaces {
		var filter driven.VectorFilter
		if ns == domain.NamespaceRegional && cls.RegionCode != "" {
			filter = driven.VectorFilter{domain.MetaRegionCode: cls.RegionCode}
		}
		g.Go(func() error {
			results[i] = s.queryNamespace(ctx, ns, embedding, topK, filter)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// queryNamespace runs one vector store query under the namespace
// timeout. A store that ignores its context is abandoned at the deadline.
func (s *SearchService) queryNamespace(
	ctx context.Context, ns domain.Namespace, embedding []float32, topK int, filter driven.VectorFilter,
) namespaceResult {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.NamespaceTimeout)
	defer cancel()

	start := time.Now()
	done := make(chan namespaceResult, 1)
	go func() {
		hits, err := s.store.Query(ctx, ns, embedding, topK, filter)
		done <- namespaceResult{ns: ns, hits: hits, err: err}
	}()

	var r namespaceResult
	select {
	case r = <-done:
	case <-ctx.Done():
		r = namespaceResult{ns: ns, err: ctx.Err()}
	}
	r.elapsed = time.Since(start)

	outcome := metrics.OutcomeOK
	switch {
	case errors.Is(r.err, context.DeadlineExceeded):
		outcome = metrics.OutcomeTimeout
	case r.err != nil:
		outcome = metrics.OutcomeError
	}
	s.metrics.NamespaceQueried(string(ns), outcome, r.elapsed)
	logger.Debug("Namespace %s: %d hits in %s (%s)", ns, len(r.hits), r.elapsed, outcome)
	return r
}

// merge tags hits with their namespace and weight, keeping the best
// scoring copy of any ID returned by more than one namespace.
func merge(results []namespaceResult, weights domain.NamespaceWeights) []domain.SearchMatch {
	best := make(map[string]int)
	var matches []domain.SearchMatch

	for _, r := range results {
		for _, hit := range r.hits {
			m := domain.SearchMatch{
				ID:            hit.ID,
				Score:         hit.Score,
				Namespace:     r.ns,
				Metadata:      hit.Metadata,
				AdjustedScore: hit.Score * weights[r.ns],
			}
			m.SourceType = domain.SourceTypeFor(m.DocumentType(), r.ns)

			if i, ok := best[hit.ID]; ok {
				if m.AdjustedScore > matches[i].AdjustedScore {
					matches[i] = m
				}
				continue
			}
			best[hit.ID] = len(matches)
			matches = append(matches, m)
		}
	}
	return matches
}

// boost adds the legal boost to legal matches and a diversity boost
// inversely proportional to how many candidates share a document type.
func (s *SearchService) boost(matches []domain.SearchMatch) {
	perType := make(map[domain.DocumentType]int)
	for i := range matches {
		perType[matches[i].DocumentType()]++
	}

	for i := range matches {
		m := &matches[i]
		if m.IsLegal() {
			m.AdjustedScore += s.cfg.LegalBoost
		}
		m.AdjustedScore += s.cfg.DiversityBoost / float64(perType[m.DocumentType()])
	}
}

func filterByThreshold(matches []domain.SearchMatch, threshold float64) []domain.SearchMatch {
	kept := matches[:0]
	for _, m := range matches {
		if m.AdjustedScore >= threshold {
			kept = append(kept, m)
		}
	}
	return kept
}

// rerank sorts by adjusted score, then lets legal and higher-quality
// matches move ahead of neighbours they trail by less than nearTie.
func rerank(matches []domain.SearchMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].AdjustedScore > matches[j].AdjustedScore
	})

	for i := 1; i < len(matches); i++ {
		for j := i; j > 0; j-- {
			prev, cur := &matches[j-1], &matches[j]
			if prev.AdjustedScore-cur.AdjustedScore >= nearTie || !preferred(cur, prev) {
				break
			}
			matches[j-1], matches[j] = matches[j], matches[j-1]
		}
	}
}

// preferred reports whether a should rank ahead of b on a near tie.
func preferred(a, b *domain.SearchMatch) bool {
	aLegal, bLegal := a.IsLegal(), b.IsLegal()
	if aLegal != bLegal {
		return aLegal
	}
	return a.QualityScore() > b.QualityScore()
}
