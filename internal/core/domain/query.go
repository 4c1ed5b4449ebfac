package domain

import (
	"fmt"
	"math"
	"sort"
)

// Namespace names an isolated partition of the vector store.
type Namespace string

// Corpora served by the vector store.
const (
	NamespaceNational Namespace = "legal-national"
	NamespaceRegional Namespace = "legal-regional"
	NamespaceUrban    Namespace = "urban-general"
)

// Namespaces returns all known namespaces in a stable order.
func Namespaces() []Namespace {
	return []Namespace{NamespaceNational, NamespaceRegional, NamespaceUrban}
}

// IsValid returns true if the namespace is recognised.
func (n Namespace) IsValid() bool {
	switch n {
	case NamespaceNational, NamespaceRegional, NamespaceUrban:
		return true
	default:
		return false
	}
}

// NamespaceFor routes an enriched document to its corpus. Regional
// acts go to the regional corpus, municipal acts to the urban corpus
// and the remaining legal sources to the national one.
func NamespaceFor(md map[string]any) Namespace {
	t := DocumentType(MetaString(md, MetaDocumentType))
	scope := ScopeLevel(MetaString(md, MetaScopeLevel))
	switch {
	case t.IsRegional() || scope == ScopeRegional:
		return NamespaceRegional
	case scope == ScopeLocal:
		return NamespaceUrban
	case t.IsLegal():
		return NamespaceNational
	default:
		return NamespaceUrban
	}
}

// Strategy is the named retrieval plan chosen for a query.
type Strategy string

// Retrieval strategies, in decision-table order.
const (
	StrategyComprehensive   Strategy = "comprehensive"
	StrategyLegalUrban      Strategy = "legal-urban"
	StrategyRegionalFocus   Strategy = "regional-focus"
	StrategyLegalOnly       Strategy = "legal-only"
	StrategyUrbanLegalLight Strategy = "urban-legal-light"
	StrategyUrbanOnly       Strategy = "urban-only"
)

// Strategies returns every strategy in decision-table order.
func Strategies() []Strategy {
	return []Strategy{
		StrategyComprehensive,
		StrategyLegalUrban,
		StrategyRegionalFocus,
		StrategyLegalOnly,
		StrategyUrbanLegalLight,
		StrategyUrbanOnly,
	}
}

// IsValid returns true if the strategy is recognised.
func (s Strategy) IsValid() bool {
	for _, known := range Strategies() {
		if s == known {
			return true
		}
	}
	return false
}

// NeedsLegalDisclaimer is true for every strategy touching legal content.
func (s Strategy) NeedsLegalDisclaimer() bool {
	return s != StrategyUrbanOnly
}

// WeightTolerance is the allowed deviation of a weight sum from 1.0.
const WeightTolerance = 0.01

// NamespaceWeights maps each namespace of a strategy to its weight.
type NamespaceWeights map[Namespace]float64

// Sum returns the total weight.
func (w NamespaceWeights) Sum() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

// Namespaces returns the weighted namespaces ordered by weight
// descending, then by name.
func (w NamespaceWeights) Namespaces() []Namespace {
	out := make([]Namespace, 0, len(w))
	for ns := range w {
		out = append(out, ns)
	}
	sort.Slice(out, func(i, j int) bool {
		if w[out[i]] != w[out[j]] {
			return w[out[i]] > w[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// Validate checks the weights sum to 1 and every namespace is known.
func (w NamespaceWeights) Validate() error {
	if len(w) == 0 {
		return fmt.Errorf("%w: no namespaces", ErrInvalidStrategyTable)
	}
	for ns, weight := range w {
		if !ns.IsValid() {
			return fmt.Errorf("%w: unknown namespace %q", ErrInvalidStrategyTable, ns)
		}
		if weight <= 0 {
			return fmt.Errorf("%w: namespace %q has non-positive weight %.2f", ErrInvalidStrategyTable, ns, weight)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1.0) > WeightTolerance {
		return fmt.Errorf("%w: weights sum to %.3f", ErrInvalidStrategyTable, sum)
	}
	return nil
}

// StrategyTable maps every strategy to its namespace weights.
type StrategyTable map[Strategy]NamespaceWeights

// DefaultStrategyTable returns the built-in routing table.
func DefaultStrategyTable() StrategyTable {
	return StrategyTable{
		StrategyComprehensive: {
			NamespaceNational: 0.4,
			NamespaceRegional: 0.3,
			NamespaceUrban:    0.3,
		},
		StrategyLegalUrban: {
			NamespaceNational: 0.6,
			NamespaceUrban:    0.4,
		},
		StrategyRegionalFocus: {
			NamespaceRegional: 0.6,
			NamespaceNational: 0.25,
			NamespaceUrban:    0.15,
		},
		StrategyLegalOnly: {
			NamespaceNational: 1.0,
		},
		StrategyUrbanLegalLight: {
			NamespaceUrban:    0.7,
			NamespaceNational: 0.3,
		},
		StrategyUrbanOnly: {
			NamespaceUrban: 1.0,
		},
	}
}

// Validate checks every strategy has a valid weight entry.
func (t StrategyTable) Validate() error {
	for _, s := range Strategies() {
		weights, ok := t[s]
		if !ok {
			return fmt.Errorf("%w: missing strategy %q", ErrInvalidStrategyTable, s)
		}
		if err := weights.Validate(); err != nil {
			return fmt.Errorf("strategy %q: %w", s, err)
		}
	}
	return nil
}

// CategoryScores holds per-category values for legal, regional and
// urban keyword sets.
type CategoryScores struct {
	Legal    float64
	Regional float64
	Urban    float64
}

// CategoryMatches holds raw per-category keyword match counts.
type CategoryMatches struct {
	Legal    int
	Regional int
	Urban    int
}

// QueryClassification is the routing decision for one query.
// It is computed fresh per query and never persisted.
type QueryClassification struct {
	Query                string
	Normalized           string
	Strategy             Strategy
	Namespaces           []Namespace
	Weights              NamespaceWeights
	NeedsLegalDisclaimer bool
	Confidence           float64
	RegionCode           string
	RegionName           string
	Scores               CategoryScores
	Matches              CategoryMatches
}

// Validate checks the classification is internally consistent: the
// strategy is known, weights sum to 1 and every namespace is weighted.
func (c *QueryClassification) Validate() error {
	if !c.Strategy.IsValid() {
		return fmt.Errorf("%w: unknown strategy %q", ErrInvalidStrategyTable, c.Strategy)
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	for _, ns := range c.Namespaces {
		if _, ok := c.Weights[ns]; !ok {
			return fmt.Errorf("%w: namespace %q has no weight", ErrInvalidStrategyTable, ns)
		}
	}
	return nil
}
