package services

import (
	"maps"
	"math"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driving"
	"github.com/custodia-labs/urbanlex/internal/lexicon"
	"github.com/custodia-labs/urbanlex/internal/logger"
	"github.com/custodia-labs/urbanlex/internal/metrics"
)

// Ensure QueryClassifier implements the interface.
var _ driving.QueryClassifier = (*QueryClassifier)(nil)

// Category weights applied to the normalised match counts.
const (
	legalWeight    = 1.0
	regionalWeight = 0.8
	urbanWeight    = 0.9
)

// Fixed urban and legal cut-offs of the decision table.
const (
	urbanPresence    = 0.2
	urbanDominance   = 0.4
	legalMinorShare  = 0.1
	urbanOnlyFloor   = 0.5
	categoryBonusPer = 0.1
)

// QueryClassifier routes queries to strategies with keyword scoring.
// It holds no mutable state and is safe for concurrent use.
type QueryClassifier struct {
	normalizer *lexicon.Normalizer
	legal      *lexicon.Matcher
	regional   *lexicon.Matcher
	regions    *lexicon.Matcher
	urban      *lexicon.Matcher
	table      domain.StrategyTable

	legalThreshold    float64
	regionalThreshold float64

	metrics *metrics.Metrics
}

// ClassifierOption configures a QueryClassifier.
type ClassifierOption func(*QueryClassifier)

// WithKeywordTables replaces the built-in keyword tables.
func WithKeywordTables(t lexicon.Tables) ClassifierOption {
	return func(c *QueryClassifier) {
		c.setTables(t)
	}
}

// WithThresholds sets the legal and regional strategy thresholds.
// Non-positive values keep the defaults.
func WithThresholds(legal, regional float64) ClassifierOption {
	return func(c *QueryClassifier) {
		if legal > 0 {
			c.legalThreshold = legal
		}
		if regional > 0 {
			c.regionalThreshold = regional
		}
	}
}

// WithStrategyTable replaces the namespace weights of every strategy.
func WithStrategyTable(t domain.StrategyTable) ClassifierOption {
	return func(c *QueryClassifier) {
		c.table = t
	}
}

// WithClassifierMetrics records chosen strategies.
func WithClassifierMetrics(m *metrics.Metrics) ClassifierOption {
	return func(c *QueryClassifier) {
		c.metrics = m
	}
}

// NewQueryClassifier creates a classifier. It fails with
// domain.ErrInvalidStrategyTable when the weights are inconsistent.
func NewQueryClassifier(opts ...ClassifierOption) (*QueryClassifier, error) {
	defaults := domain.DefaultSettings().Classifier
	c := &QueryClassifier{
		regions:           lexicon.RegionMatcher(),
		table:             domain.DefaultStrategyTable(),
		legalThreshold:    defaults.LegalThreshold,
		regionalThreshold: defaults.RegionalThreshold,
	}
	c.setTables(lexicon.DefaultTables())
	for _, opt := range opts {
		opt(c)
	}

	if err := c.table.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewQueryClassifierFromSettings builds a classifier from settings,
// loading the keyword table override file when one is configured.
func NewQueryClassifierFromSettings(s domain.ClassifierSettings, m *metrics.Metrics) (*QueryClassifier, error) {
	opts := []ClassifierOption{
		WithThresholds(s.LegalThreshold, s.RegionalThreshold),
		WithClassifierMetrics(m),
	}
	if s.RulesFile != "" {
		tables, err := lexicon.LoadTablesFile(s.RulesFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithKeywordTables(tables))
	}
	return NewQueryClassifier(opts...)
}

func (c *QueryClassifier) setTables(t lexicon.Tables) {
	c.normalizer = lexicon.NewNormalizer(t.Abbreviations)
	c.legal = lexicon.NewMatcher(t.Legal)
	c.regional = lexicon.NewMatcher(t.Regional)
	c.urban = lexicon.NewMatcher(t.Urban)
}

// Classify maps a query to a strategy. It never fails: queries
// matching nothing fall back to urban-only.
func (c *QueryClassifier) Classify(query string) domain.QueryClassification {
	normalized := c.normalizer.Normalize(query)
	tokens := c.normalizer.Tokens(query)

	matches := domain.CategoryMatches{
		Legal:    c.legal.Count(tokens),
		Regional: c.regional.Count(tokens) + c.regions.Count(tokens),
		Urban:    c.urban.Count(tokens),
	}
	scores := domain.CategoryScores{
		Legal:    categoryScore(matches.Legal, c.legal.Size(), legalWeight),
		Regional: categoryScore(matches.Regional, c.regional.Size()+c.regions.Size(), regionalWeight),
		Urban:    categoryScore(matches.Urban, c.urban.Size(), urbanWeight),
	}

	strategy := c.decide(scores)
	weights := maps.Clone(c.table[strategy])

	cls := domain.QueryClassification{
		Query:                query,
		Normalized:           normalized,
		Strategy:             strategy,
		Namespaces:           weights.Namespaces(),
		Weights:              weights,
		NeedsLegalDisclaimer: strategy.NeedsLegalDisclaimer(),
		Confidence:           confidence(scores, strategy),
		Scores:               scores,
		Matches:              matches,
	}
	if region, ok := lexicon.FindRegion(tokens); ok {
		cls.RegionCode = region.Code
		cls.RegionName = region.Name
	}

	c.metrics.StrategyChosen(string(strategy))
	logger.Debug("classifier: %q -> %s (legal=%.3f regional=%.3f urban=%.3f region=%s)",
		normalized, strategy, scores.Legal, scores.Regional, scores.Urban, cls.RegionCode)
	return cls
}

// decide evaluates the strategy decision table; the first match wins.
func (c *QueryClassifier) decide(s domain.CategoryScores) domain.Strategy {
	legal := s.Legal >= c.legalThreshold
	regional := s.Regional >= c.regionalThreshold

	switch {
	case legal && regional && s.Urban > urbanPresence:
		return domain.StrategyComprehensive
	case legal && s.Urban > urbanPresence:
		return domain.StrategyLegalUrban
	case regional:
		return domain.StrategyRegionalFocus
	case legal:
		return domain.StrategyLegalOnly
	case s.Urban > urbanDominance && s.Legal > legalMinorShare:
		return domain.StrategyUrbanLegalLight
	default:
		return domain.StrategyUrbanOnly
	}
}

// categoryScore divides by the square root of the category size so a
// single repeated keyword cannot saturate the score.
func categoryScore(count, size int, weight float64) float64 {
	if count == 0 || size == 0 {
		return 0
	}
	return math.Min(float64(count)/math.Sqrt(float64(size)), 1.0) * weight
}

func confidence(s domain.CategoryScores, strategy domain.Strategy) float64 {
	best := 0.0
	nonZero := 0
	for _, v := range []float64{s.Legal, s.Regional, s.Urban} {
		if v > 0 {
			nonZero++
		}
		best = math.Max(best, v)
	}

	conf := best
	if nonZero > 1 {
		conf += categoryBonusPer * float64(nonZero-1)
	}
	conf = math.Min(conf, 1.0)
	if strategy == domain.StrategyUrbanOnly {
		conf = math.Max(conf, urbanOnlyFloor)
	}
	return conf
}
