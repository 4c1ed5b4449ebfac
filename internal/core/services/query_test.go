package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/urbanlex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/metrics"
)

// mockSearchService implements driving.SearchService for testing.
type mockSearchService struct {
	result *domain.SearchResult
	err    error
	calls  int
	opts   domain.SearchOptions
}

func (m *mockSearchService) Search(
	ctx context.Context, _ []float32, _ domain.QueryClassification, opts domain.SearchOptions,
) (*domain.SearchResult, error) {
	m.calls++
	m.opts = opts
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.result, m.err
}

type queryFixture struct {
	svc    *QueryService
	search *mockSearchService
	embed  *mockEmbeddingService
	cache  *memory.Cache
	m      *metrics.Metrics
}

func newQueryFixture(t *testing.T) *queryFixture {
	t.Helper()
	f := &queryFixture{
		search: &mockSearchService{result: &domain.SearchResult{
			Matches: []domain.SearchMatch{legalMatch(), urbanMatch()},
		}},
		embed: &mockEmbeddingService{embedding: testEmbedding},
		cache: memory.NewCache(),
		m:     metrics.New(prometheus.NewRegistry()),
	}
	f.svc = NewQueryService(newTestClassifier(t), f.embed, f.search, NewResponseComposer(),
		WithCache(f.cache, time.Minute),
		WithQueryMetrics(f.m),
	)
	return f
}

func TestQueryService_Ask(t *testing.T) {
	f := newQueryFixture(t)
	threshold := 0.4

	resp, err := f.svc.Ask(context.Background(), queryChangeOfUse, domain.AskOptions{TopK: 5, Threshold: &threshold})

	require.NoError(t, err)
	assert.False(t, resp.Failed)
	assert.Equal(t, domain.StrategyLegalUrban, resp.Strategy)
	assert.Len(t, resp.Sources, 2)
	assert.Equal(t, DisclaimerLegal, resp.LegalDisclaimer)
	assert.Equal(t, 5, f.search.opts.TopK)
	require.NotNil(t, f.search.opts.Threshold)
	assert.InDelta(t, 0.4, *f.search.opts.Threshold, 0)
}

func TestQueryService_Ask_Cached(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()

	first, err := f.svc.Ask(ctx, queryChangeOfUse, domain.AskOptions{})
	require.NoError(t, err)
	second, err := f.svc.Ask(ctx, "  "+queryChangeOfUse+" ", domain.AskOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, f.search.calls)
	assert.Equal(t, first, second)
	assert.InDelta(t, 1, testutil.ToFloat64(f.m.CacheLookups("miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.m.CacheLookups("hit")), 0)

	_, err = f.svc.Ask(ctx, queryChangeOfUse, domain.AskOptions{TopK: 3})
	require.NoError(t, err)
	assert.Equal(t, 2, f.search.calls)
}

func TestQueryService_Ask_NoCache(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()

	for range 2 {
		_, err := f.svc.Ask(ctx, queryDistances, domain.AskOptions{NoCache: true})
		require.NoError(t, err)
	}

	assert.Equal(t, 2, f.search.calls)
	assert.Zero(t, testutil.ToFloat64(f.m.CacheLookups("miss")))
}

func TestQueryService_Ask_WithoutCache(t *testing.T) {
	search := &mockSearchService{result: &domain.SearchResult{}}
	svc := NewQueryService(newTestClassifier(t), &mockEmbeddingService{embedding: testEmbedding}, search, NewResponseComposer())

	resp, err := svc.Ask(context.Background(), queryDistances, domain.AskOptions{})

	require.NoError(t, err)
	assert.False(t, resp.Failed)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, DisclaimerGeneral, resp.LegalDisclaimer)
}

func TestQueryService_Ask_DegradesOnFailure(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *queryFixture)
	}{
		{"embedding failure", func(f *queryFixture) { f.embed.embedErr = domain.ErrEmbeddingUnavailable }},
		{"search error", func(f *queryFixture) { f.search.err = domain.ErrVectorStoreUnavailable }},
		{"every namespace failed", func(f *queryFixture) {
			f.search.result = &domain.SearchResult{Error: domain.ErrAllNamespacesFailed.Error()}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQueryFixture(t)
			tt.setup(f)
			ctx := context.Background()

			resp, err := f.svc.Ask(ctx, queryExpropriate, domain.AskOptions{})

			require.NoError(t, err)
			assert.True(t, resp.Failed)
			assert.Empty(t, resp.Sources)
			assert.NotContains(t, resp.Answer, "unavailable")

			// Failures are never cached.
			_, err = f.cache.Get(ctx, cacheKey(queryExpropriate, domain.AskOptions{}))
			assert.ErrorIs(t, err, domain.ErrCacheMiss)
		})
	}
}

func TestQueryService_Ask_NoEmbedder(t *testing.T) {
	svc := NewQueryService(newTestClassifier(t), nil, &mockSearchService{}, NewResponseComposer())

	resp, err := svc.Ask(context.Background(), queryDistances, domain.AskOptions{})

	require.NoError(t, err)
	assert.True(t, resp.Failed)
}

func TestQueryService_Ask_Canceled(t *testing.T) {
	f := newQueryFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Ask(ctx, queryDistances, domain.AskOptions{})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueryService_Ask_EmptyQuery(t *testing.T) {
	f := newQueryFixture(t)

	_, err := f.svc.Ask(context.Background(), "   ", domain.AskOptions{})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, f.search.calls)
}

func TestQueryService_Ask_UnreadableCacheEntry(t *testing.T) {
	f := newQueryFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.Set(ctx, cacheKey(queryDistances, domain.AskOptions{}), []byte("{"), time.Minute))

	resp, err := f.svc.Ask(ctx, queryDistances, domain.AskOptions{})

	require.NoError(t, err)
	assert.False(t, resp.Failed)
	assert.Equal(t, 1, f.search.calls)
}

func TestCacheKey(t *testing.T) {
	low, high := 0.3, 0.6
	base := cacheKey("Distanze tra edifici", domain.AskOptions{})

	assert.Equal(t, base, cacheKey("distanze tra edifici", domain.AskOptions{}))
	assert.Equal(t, base, cacheKey("distanze tra edifici", domain.AskOptions{NoCache: true}))
	assert.NotEqual(t, base, cacheKey("distanze tra edifici", domain.AskOptions{TopK: 3}))
	assert.NotEqual(t, cacheKey("q", domain.AskOptions{Threshold: &low}), cacheKey("q", domain.AskOptions{Threshold: &high}))
}
