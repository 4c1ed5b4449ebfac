package domain

import "fmt"

// DocumentType is the classified legal type of a document.
type DocumentType string

// Document types recognised by the enricher.
const (
	DocTypeLegge              DocumentType = "legge"
	DocTypeDecretoLegislativo DocumentType = "decreto_legislativo"
	DocTypeDPR                DocumentType = "dpr"
	DocTypeDecreto            DocumentType = "decreto"
	DocTypeLeggeRegionale     DocumentType = "legge_regionale"
	DocTypeDGR                DocumentType = "dgr"
	DocTypeRegolamento        DocumentType = "regolamento"
	DocTypeSentenza           DocumentType = "sentenza"
	DocTypeCircolare          DocumentType = "circolare"
	DocTypeBUR                DocumentType = "bur"
	DocTypeUnknown            DocumentType = "unknown"
)

// IsLegal reports whether the type is a binding legal source
// (acts and rulings) that earns the legal ranking boost.
func (t DocumentType) IsLegal() bool {
	switch t {
	case DocTypeLegge, DocTypeDecretoLegislativo, DocTypeDPR, DocTypeDecreto,
		DocTypeLeggeRegionale, DocTypeRegolamento, DocTypeSentenza:
		return true
	default:
		return false
	}
}

// IsRegional reports whether the type is issued by a regional body.
func (t DocumentType) IsRegional() bool {
	return t == DocTypeLeggeRegionale || t == DocTypeDGR || t == DocTypeBUR
}

// LegalStatus is the in-force status of an act.
type LegalStatus string

// Legal statuses.
const (
	StatusVigente    LegalStatus = "vigente"
	StatusAbrogato   LegalStatus = "abrogato"
	StatusModificato LegalStatus = "modificato"
	StatusSospeso    LegalStatus = "sospeso"
	StatusDecaduto   LegalStatus = "decaduto"
)

// Complexity is the structural complexity tier of a document.
type Complexity string

// Complexity tiers by article count.
const (
	ComplexitySimple      Complexity = "simple"
	ComplexityModerate    Complexity = "moderate"
	ComplexityComplex     Complexity = "complex"
	ComplexityVeryComplex Complexity = "very_complex"
)

// ScopeLevel is the territorial level of the issuing authority.
type ScopeLevel string

// Scope levels.
const (
	ScopeNational ScopeLevel = "national"
	ScopeRegional ScopeLevel = "regional"
	ScopeLocal    ScopeLevel = "local"
	ScopeJudicial ScopeLevel = "judicial"
)

// Classification is the document type decision.
type Classification struct {
	Type       DocumentType
	Confidence int
	Citation   string
	Authority  string
}

// TopicScore pairs a topic with its weighted keyword-hit score.
type TopicScore struct {
	Topic string
	Score float64
}

// Topics holds topic relevance.
type Topics struct {
	Scores          map[string]float64
	Primary         []TopicScore
	Secondary       []TopicScore
	DomainRelevance int
}

// Status holds the detected legal status and its evidence.
type Status struct {
	Status        LegalStatus
	Confidence    int
	Evidence      []string
	Modifications []string
}

// Scope holds the authority and territorial classification.
type Scope struct {
	Level      ScopeLevel
	Territory  string
	RegionCode string
}

// QualityMetrics are 0-100 scores of document quality.
type QualityMetrics struct {
	Completeness int
	Structure    int
	Richness     int
	Overall      int
}

// EnrichedMetadata is computed once per document after chunking.
type EnrichedMetadata struct {
	Classification Classification
	Topics         Topics
	Status         Status
	Complexity     Complexity
	Scope          Scope
	Quality        QualityMetrics
	Confidence     int
}

// Metadata keys shared by the enricher, the vector stores and ranking.
const (
	MetaDocumentID       = "document_id"
	MetaDocumentTitle    = "document_title"
	MetaDocumentNumber   = "document_number"
	MetaDocumentDate     = "document_date"
	MetaDocumentType     = "document_type"
	MetaTypeConfidence   = "document_type_confidence"
	MetaCitation         = "citation"
	MetaAuthority        = "authority"
	MetaTopicsPrimary    = "topics_primary"
	MetaTopicsSecondary  = "topics_secondary"
	MetaDomainRelevance  = "domain_relevance"
	MetaStatus           = "status"
	MetaStatusConfidence = "status_confidence"
	MetaStatusEvidence   = "status_evidence"
	MetaModifications    = "modifications"
	MetaComplexity       = "complexity"
	MetaScopeLevel       = "scope_level"
	MetaTerritory        = "territory"
	MetaRegionCode       = "region_code"
	MetaQualityOverall   = "quality_overall"
	MetaConfidence       = "confidence"
	MetaIsLegal          = "is_legal"
	MetaSourceType       = "source_type"
	MetaArticle          = "article"
	MetaComma            = "comma"
	MetaChunkType        = "chunk_type"
	MetaQualityScore     = "quality_score"
	MetaReferences       = "references"
	MetaText             = "text"
	MetaPosition         = "position"
	MetaTopicPrefix      = "topic_"
)

// Flatten renders the metadata as a map of flat primitives suitable
// for vector store payloads.
func (m EnrichedMetadata) Flatten() map[string]any {
	out := map[string]any{
		MetaDocumentType:     string(m.Classification.Type),
		MetaTypeConfidence:   m.Classification.Confidence,
		MetaCitation:         m.Classification.Citation,
		MetaAuthority:        m.Classification.Authority,
		MetaTopicsPrimary:    topicNames(m.Topics.Primary),
		MetaTopicsSecondary:  topicNames(m.Topics.Secondary),
		MetaDomainRelevance:  m.Topics.DomainRelevance,
		MetaStatus:           string(m.Status.Status),
		MetaStatusConfidence: m.Status.Confidence,
		MetaStatusEvidence:   nonNil(m.Status.Evidence),
		MetaModifications:    nonNil(m.Status.Modifications),
		MetaComplexity:       string(m.Complexity),
		MetaScopeLevel:       string(m.Scope.Level),
		MetaTerritory:        m.Scope.Territory,
		MetaRegionCode:       m.Scope.RegionCode,
		MetaQualityOverall:   m.Quality.Overall,
		MetaConfidence:       m.Confidence,
		MetaIsLegal:          m.Classification.Type.IsLegal(),
	}
	for topic, score := range m.Topics.Scores {
		out[MetaTopicPrefix+topic] = score
	}
	return out
}

func topicNames(scores []TopicScore) []string {
	names := make([]string, len(scores))
	for i, s := range scores {
		names[i] = s.Topic
	}
	return names
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ValidateFlatMetadata rejects values that vector stores cannot hold:
// anything other than strings, booleans, numbers and string slices.
func ValidateFlatMetadata(md map[string]any) error {
	for k, v := range md {
		switch v.(type) {
		case string, bool, int, int64, float64, []string:
		default:
			return fmt.Errorf("%w: metadata key %q has non-primitive type %T", ErrInvalidInput, k, v)
		}
	}
	return nil
}

// MetaString reads a string metadata value, empty if absent.
func MetaString(md map[string]any, key string) string {
	if s, ok := md[key].(string); ok {
		return s
	}
	return ""
}

// MetaInt reads an integer metadata value, tolerating the numeric
// types produced by JSON and SQL decoding.
func MetaInt(md map[string]any, key string) int {
	switch v := md[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// MetaBool reads a boolean metadata value.
func MetaBool(md map[string]any, key string) bool {
	b, _ := md[key].(bool)
	return b
}

// MetaStrings reads a string slice metadata value, tolerating []any
// as produced by JSON decoding.
func MetaStrings(md map[string]any, key string) []string {
	switch v := md[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
