package domain

import "time"

// Relevance buckets an adjusted match score.
type Relevance string

// Relevance categories.
const (
	RelevanceHigh    Relevance = "high"
	RelevanceMedium  Relevance = "medium"
	RelevanceLow     Relevance = "low"
	RelevanceVeryLow Relevance = "very_low"
)

// RelevanceFor maps an adjusted score to its category.
func RelevanceFor(score float64) Relevance {
	switch {
	case score >= 0.85:
		return RelevanceHigh
	case score >= 0.7:
		return RelevanceMedium
	case score >= 0.5:
		return RelevanceLow
	default:
		return RelevanceVeryLow
	}
}

// SourceType is the kind of source a match comes from.
type SourceType string

// Source types used to bucket matches in responses.
const (
	SourceLegal         SourceType = "legal"
	SourceRegional      SourceType = "regional"
	SourceJurisprudence SourceType = "jurisprudence"
	SourceUrban         SourceType = "urban"
)

// SearchOptions configures a multi-corpus search.
type SearchOptions struct {
	// TopK is the number of final matches. Zero means the default.
	TopK int

	// Threshold overrides the relevance threshold when non-nil.
	Threshold *float64
}

// SearchMatch is a single nearest-neighbour hit.
type SearchMatch struct {
	// ID is the chunk identifier.
	ID string

	// Score is the raw similarity returned by the vector store.
	Score float64

	// Namespace is the corpus the match came from.
	Namespace Namespace

	// Metadata is the flat payload stored alongside the vector.
	Metadata map[string]any

	// AdjustedScore is Score after namespace weighting and boosts.
	// Boosts are additive so it may slightly exceed 1.0.
	AdjustedScore float64

	// Relevance is the category of AdjustedScore.
	Relevance Relevance

	// SourceType is the assigned source kind.
	SourceType SourceType
}

// DocumentType returns the classified document type from metadata.
func (m *SearchMatch) DocumentType() DocumentType {
	if t := MetaString(m.Metadata, MetaDocumentType); t != "" {
		return DocumentType(t)
	}
	return DocTypeUnknown
}

// IsLegal reports whether the match is a legal document.
func (m *SearchMatch) IsLegal() bool {
	return MetaBool(m.Metadata, MetaIsLegal) || m.DocumentType().IsLegal()
}

// QualityScore returns the chunk quality score from metadata.
func (m *SearchMatch) QualityScore() int {
	return MetaInt(m.Metadata, MetaQualityScore)
}

// NamespaceOutcome records what one namespace contributed to a search.
type NamespaceOutcome struct {
	Namespace Namespace
	Matches   int
	Err       string
	Duration  time.Duration
}

// Failed reports whether the namespace query failed.
func (o NamespaceOutcome) Failed() bool {
	return o.Err != ""
}

// SearchResult is the merged outcome of a multi-corpus search.
type SearchResult struct {
	// Matches are ranked best first.
	Matches []SearchMatch

	// Outcomes has one entry per queried namespace.
	Outcomes []NamespaceOutcome

	// Error is set when every namespace failed.
	Error string

	// Partial is true when at least one, but not every, namespace failed.
	Partial bool
}

// Failed reports whether the search failed as a whole.
func (r *SearchResult) Failed() bool {
	return r.Error != ""
}

// SourceTypeFor assigns the source kind of a document type found in a
// namespace. Rulings are jurisprudence wherever they are stored.
func SourceTypeFor(t DocumentType, ns Namespace) SourceType {
	switch {
	case t == DocTypeSentenza:
		return SourceJurisprudence
	case ns == NamespaceRegional || t.IsRegional():
		return SourceRegional
	case t.IsLegal() || ns == NamespaceNational:
		return SourceLegal
	default:
		return SourceUrban
	}
}
