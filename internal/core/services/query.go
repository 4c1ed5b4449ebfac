package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driving"
	"github.com/custodia-labs/urbanlex/internal/logger"
	"github.com/custodia-labs/urbanlex/internal/metrics"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

const cacheKeyPrefix = "urbanlex:ask:"

// QueryService runs a question through classification, retrieval and
// composition, caching composed responses.
type QueryService struct {
	classifier driving.QueryClassifier
	embedder   driven.EmbeddingService
	search     driving.SearchService
	composer   driving.ResponseComposer
	cache      driven.Cache
	ttl        time.Duration
	metrics    *metrics.Metrics
}

// QueryOption configures a QueryService.
type QueryOption func(*QueryService)

// WithCache caches successful responses for ttl.
func WithCache(c driven.Cache, ttl time.Duration) QueryOption {
	return func(s *QueryService) {
		s.cache = c
		s.ttl = ttl
	}
}

// WithQueryMetrics records cache lookups.
func WithQueryMetrics(m *metrics.Metrics) QueryOption {
	return func(s *QueryService) {
		s.metrics = m
	}
}

// NewQueryService creates a new query service.
func NewQueryService(
	classifier driving.QueryClassifier,
	embedder driven.EmbeddingService,
	search driving.SearchService,
	composer driving.ResponseComposer,
	opts ...QueryOption,
) *QueryService {
	s := &QueryService{
		classifier: classifier,
		embedder:   embedder,
		search:     search,
		composer:   composer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers query.
func (s *QueryService) Ask(ctx context.Context, query string, opts domain.AskOptions) (*domain.Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	// 1. CACHE LOOKUP
	key := cacheKey(query, opts)
	if resp := s.cached(ctx, key, opts.NoCache); resp != nil {
		return resp, nil
	}

	// 2. CLASSIFY
	cls := s.classifier.Classify(query)
	logger.Info("Strategy %s (confidence %.2f) for %q", cls.Strategy, cls.Confidence, query)

	// 3. EMBED AND SEARCH
	result, err := s.retrieve(ctx, query, cls, opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Retrieval failed: %v", err)
		result = nil
	}

	// 4. COMPOSE
	resp := s.composer.Compose(query, result, cls)

	// 5. CACHE SET
	if !resp.Failed && !opts.NoCache {
		s.store(ctx, key, resp)
	}
	return resp, nil
}

func (s *QueryService) retrieve(
	ctx context.Context, query string, cls domain.QueryClassification, opts domain.AskOptions,
) (*domain.SearchResult, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.search.Search(ctx, embedding, cls, domain.SearchOptions{TopK: opts.TopK, Threshold: opts.Threshold})
}

// cached returns the cached response for key, or nil.
func (s *QueryService) cached(ctx context.Context, key string, skip bool) *domain.Response {
	if s.cache == nil || skip {
		return nil
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			logger.Warn("Cache lookup failed: %v", err)
		}
		s.metrics.CacheLookup(false)
		return nil
	}

	var resp domain.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		logger.Warn("Dropping unreadable cache entry: %v", err)
		_ = s.cache.Delete(ctx, key)
		s.metrics.CacheLookup(false)
		return nil
	}
	s.metrics.CacheLookup(true)
	logger.Debug("Cache hit for %s", key)
	return &resp
}

func (s *QueryService) store(ctx context.Context, key string, resp *domain.Response) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Warn("Failed to encode response for cache: %v", err)
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		logger.Warn("Failed to cache response: %v", err)
	}
}

// cacheKey identifies a query and the options that change its answer.
func cacheKey(query string, opts domain.AskOptions) string {
	threshold := "default"
	if opts.Threshold != nil {
		threshold = fmt.Sprintf("%.4f", *opts.Threshold)
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s\x00%d\x00%s", strings.ToLower(query), opts.TopK, threshold))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}
