// Package enricher classifies legal documents and annotates their
// chunks with the metadata used for ranking and citation.
package enricher

import (
	"context"
	"fmt"
	"maps"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/lexicon"
	"github.com/custodia-labs/urbanlex/internal/logger"
)

// Ensure Enricher implements the interfaces.
var (
	_ driven.PostProcessor     = (*Enricher)(nil)
	_ driven.MetadataExtractor = (*Enricher)(nil)
)

const (
	// headerRunes bounds the text searched for the act's own number,
	// date and region. Later text mostly cites other acts.
	headerRunes = 3000

	maxEvidence      = 10
	maxModifications = 10
)

// Enricher computes document metadata. It has no I/O: the same
// document always yields the same metadata.
type Enricher struct {
	normalizer *lexicon.Normalizer
}

// New creates an enricher using the default abbreviation table.
func New() *Enricher {
	return &Enricher{normalizer: lexicon.NewNormalizer(lexicon.DefaultTables().Abbreviations)}
}

// Name returns the processor name.
func (e *Enricher) Name() string {
	return "enricher"
}

// fields are the identifying fields resolved from hints, the document
// and its heading.
type fields struct {
	title  string
	number string
	date   string
}

// Extract computes metadata for doc. Hints take precedence over the
// document's own fields, which take precedence over text extraction.
func (e *Enricher) Extract(doc *domain.Document, hints domain.DocumentConfig) domain.EnrichedMetadata {
	meta, _ := e.extract(doc, hints)
	return meta
}

func (e *Enricher) extract(doc *domain.Document, hints domain.DocumentConfig) (domain.EnrichedMetadata, fields) {
	full := doc.Title + "\n" + doc.Content
	header := doc.Title + "\n" + prefix(doc.Content, headerRunes)
	headerTokens := e.normalizer.Tokens(header)
	f := resolveFields(doc, hints, header)

	hint := domain.DocumentType(firstNonEmpty(hints.Type, doc.Type))
	r, score := classify(full, hint)
	region, hasRegion := lexicon.FindRegion(headerTokens)
	scope := scopeFor(r.Type, headerTokens, region, hasRegion)

	cls := domain.Classification{
		Type:       r.Type,
		Confidence: min(95, score),
		Citation:   citation(r, f),
		Authority:  authorityFor(r, scope, firstNonEmpty(hints.Authority, doc.Authority)),
	}

	richness := richnessFor(f, cls.Type)
	articles := len(doc.Articles)
	length := utf8.RuneCountInString(doc.Content)
	quality := domain.QualityMetrics{
		Completeness: completenessFor(length),
		Structure:    structureFor(articles),
		Richness:     richness,
	}
	quality.Overall = int(math.Round(0.4*float64(quality.Completeness) + 0.4*float64(quality.Structure) + 0.2*float64(quality.Richness)))

	structurePresence := 40
	if articles > 0 {
		structurePresence = 80
	}
	confidence := int(math.Round(float64(cls.Confidence+structurePresence+richness+lengthAdequacy(length)) / 4))

	return domain.EnrichedMetadata{
		Classification: cls,
		Topics:         scoreTopics(e.normalizer.Tokens(full)),
		Status:         detectStatus(doc.Content),
		Complexity:     complexityFor(articles),
		Scope:          scope,
		Quality:        quality,
		Confidence:     confidence,
	}, f
}

// Process enriches the document and annotates every chunk. Empty
// document fields are filled from the extracted values.
func (e *Enricher) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	meta, f := e.extract(doc, doc.Hints())

	if doc.Type == "" || doc.Type == string(domain.DocTypeUnknown) {
		doc.Type = string(meta.Classification.Type)
	}
	if doc.Number == "" {
		doc.Number = f.number
	}
	if doc.Date == "" {
		doc.Date = f.date
	}
	if doc.Authority == "" {
		doc.Authority = meta.Classification.Authority
	}

	docMeta := meta.Flatten()
	docMeta[domain.MetaDocumentID] = doc.ID
	docMeta[domain.MetaDocumentTitle] = f.title
	docMeta[domain.MetaDocumentNumber] = f.number
	docMeta[domain.MetaDocumentDate] = f.date
	docMeta[domain.MetaSourceType] = string(domain.SourceTypeFor(meta.Classification.Type, ""))

	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any, len(docMeta))
	}
	maps.Copy(doc.Metadata, docMeta)

	for i := range chunks {
		chunks[i].Metadata = chunkMetadata(docMeta, meta.Classification.Citation, &chunks[i])
	}

	logger.Debug("enricher: %s type=%s confidence=%d status=%s topics=%v",
		doc.ID, meta.Classification.Type, meta.Classification.Confidence, meta.Status.Status, docMeta[domain.MetaTopicsPrimary])
	return chunks, nil
}

// chunkMetadata merges document metadata with the chunk's own
// annotations. Chunk keys win.
func chunkMetadata(docMeta map[string]any, docCitation string, c *domain.Chunk) map[string]any {
	md := make(map[string]any, len(docMeta)+len(c.Metadata)+10)
	maps.Copy(md, c.Metadata)
	maps.Copy(md, docMeta)

	refs := c.References
	if refs == nil {
		refs = []string{}
	}
	md[domain.MetaDocumentID] = c.DocumentID
	md[domain.MetaArticle] = c.Hierarchy.Article
	md[domain.MetaComma] = c.Hierarchy.Comma
	md[domain.MetaChunkType] = string(c.Type)
	md[domain.MetaQualityScore] = c.Quality
	md[domain.MetaReferences] = refs
	md[domain.MetaText] = c.Content
	md[domain.MetaPosition] = c.Position
	md[domain.MetaCitation] = chunkCitation(docCitation, c.Hierarchy)
	return md
}

// chunkCitation renders e.g. "D.P.R. 380/2001, art. 5, comma 1".
func chunkCitation(base string, h domain.Hierarchy) string {
	parts := make([]string, 0, 3)
	if base != "" {
		parts = append(parts, base)
	}
	if h.Article != "" {
		parts = append(parts, "art. "+h.Article)
		if h.Comma != "" {
			parts = append(parts, "comma "+h.Comma)
		}
	}
	return strings.Join(parts, ", ")
}

// classify returns the best-scoring type rule: ten points per pattern
// match, twenty more when the rule agrees with the hint.
func classify(text string, hint domain.DocumentType) (typeRule, int) {
	best := typeRule{Type: domain.DocTypeUnknown}
	bestScore := 0
	for _, r := range typeRules {
		score := 0
		for _, p := range r.Patterns {
			score += 10 * len(p.FindAllStringIndex(text, -1))
		}
		if r.Type == hint {
			score += 20
		}
		if score > bestScore {
			best, bestScore = r, score
		}
	}
	return best, bestScore
}

func citation(r typeRule, f fields) string {
	if r.Prefix == "" {
		return f.title
	}
	year := ""
	if m := yearPattern.FindString(f.date); m != "" {
		year = m
	}
	switch {
	case strings.Contains(f.number, "/"):
		return r.Prefix + " " + f.number
	case f.number != "" && year != "":
		return fmt.Sprintf("%s %s/%s", r.Prefix, f.number, year)
	case f.number != "":
		return r.Prefix + " n. " + f.number
	default:
		return firstNonEmpty(f.title, r.Prefix)
	}
}

func resolveFields(doc *domain.Document, hints domain.DocumentConfig, header string) fields {
	f := fields{
		title:  firstNonEmpty(hints.Title, doc.Title),
		number: firstNonEmpty(hints.Number, doc.Number),
		date:   firstNonEmpty(hints.Date, doc.Date),
	}
	if f.number == "" {
		f.number = extractNumber(header)
	}
	if f.date == "" {
		f.date = extractDate(header)
	}
	return f
}

func extractNumber(text string) string {
	if m := numberPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := slashNumberPattern.FindStringSubmatch(text); m != nil {
		return m[1] + "/" + m[2]
	}
	return ""
}

// extractDate returns the first date in text as YYYY-MM-DD.
func extractDate(text string) string {
	if m := longDatePattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("%s-%02d-%02d", m[3], months[strings.ToLower(m[2])], day)
	}
	if m := shortDatePattern.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return fmt.Sprintf("%s-%02d-%02d", m[3], month, day)
		}
	}
	return ""
}

// scoreTopics weighs keyword occurrences per topic. Ties keep table
// order.
func scoreTopics(tokens []string) domain.Topics {
	t := domain.Topics{Scores: make(map[string]float64)}
	var ranked []domain.TopicScore
	total := 0.0
	for _, tp := range topics {
		n := tp.Matcher.Count(tokens)
		if n == 0 {
			continue
		}
		score := math.Round(float64(n)*tp.Weight*100) / 100
		t.Scores[tp.Name] = score
		total += score
		ranked = append(ranked, domain.TopicScore{Topic: tp.Name, Score: score})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	t.Primary = ranked[:min(3, len(ranked))]
	if len(ranked) > 3 {
		t.Secondary = ranked[3:min(6, len(ranked))]
	}
	t.DomainRelevance = min(100, int(math.Round(total/10)))
	return t
}

// detectStatus defaults to vigente; the highest-priority non-default
// keyword found overrides it.
func detectStatus(text string) domain.Status {
	st := domain.Status{Status: domain.StatusVigente, Confidence: 50}
	seen := make(map[string]bool)
	addEvidence := func(matches []string) {
		for _, m := range matches {
			m = strings.ToLower(m)
			if !seen[m] && len(st.Evidence) < maxEvidence {
				seen[m] = true
				st.Evidence = append(st.Evidence, m)
			}
		}
	}

	overridden := false
	for _, r := range statusRules {
		matches := r.Pattern.FindAllString(text, -1)
		if len(matches) == 0 {
			continue
		}
		if !overridden {
			st.Status = r.Status
			st.Confidence = 80
			overridden = true
		}
		addEvidence(matches)
	}
	if !overridden {
		addEvidence(vigentePattern.FindAllString(text, -1))
	}

	mods := make(map[string]bool)
	for _, m := range modificationPattern.FindAllStringSubmatch(text, -1) {
		entry := strings.TrimSpace(m[1])
		if entry == "" || mods[entry] {
			continue
		}
		mods[entry] = true
		st.Modifications = append(st.Modifications, entry)
		if len(st.Modifications) == maxModifications {
			break
		}
	}
	return st
}

func complexityFor(articles int) domain.Complexity {
	switch {
	case articles > 100:
		return domain.ComplexityVeryComplex
	case articles > 50:
		return domain.ComplexityComplex
	case articles > 20:
		return domain.ComplexityModerate
	default:
		return domain.ComplexitySimple
	}
}

func completenessFor(length int) int {
	switch {
	case length > 10000:
		return 95
	case length > 5000:
		return 80
	case length > 1000:
		return 60
	default:
		return 30
	}
}

func structureFor(articles int) int {
	switch {
	case articles > 20:
		return 95
	case articles > 10:
		return 80
	case articles > 5:
		return 65
	case articles > 0:
		return 50
	default:
		return 20
	}
}

func lengthAdequacy(length int) int {
	switch {
	case length > 5000:
		return 90
	case length > 1000:
		return 70
	case length > 200:
		return 50
	default:
		return 20
	}
}

// richnessFor is the share of title, number, date and type present.
func richnessFor(f fields, t domain.DocumentType) int {
	present := 0
	for _, v := range []string{f.title, f.number, f.date} {
		if v != "" {
			present++
		}
	}
	if t != domain.DocTypeUnknown {
		present++
	}
	return present * 25
}

func scopeFor(t domain.DocumentType, tokens []string, region lexicon.Region, hasRegion bool) domain.Scope {
	var level domain.ScopeLevel
	switch {
	case t == domain.DocTypeSentenza:
		level = domain.ScopeJudicial
	case t.IsRegional():
		level = domain.ScopeRegional
	case t == domain.DocTypeRegolamento:
		level = domain.ScopeLocal
	case t != domain.DocTypeUnknown:
		level = domain.ScopeNational
	case hasRegion:
		level = domain.ScopeRegional
	case localMarkers.Count(tokens) > 0:
		level = domain.ScopeLocal
	default:
		level = domain.ScopeNational
	}

	s := domain.Scope{Level: level}
	switch {
	case level == domain.ScopeNational:
		s.Territory = "Italia"
	case hasRegion:
		s.Territory = region.Name
		s.RegionCode = region.Code
	case level == domain.ScopeJudicial:
		s.Territory = "Italia"
	}
	return s
}

func authorityFor(r typeRule, s domain.Scope, declared string) string {
	if declared != "" {
		return declared
	}
	if s.Level == domain.ScopeRegional && s.Territory != "" && r.Authority != "" {
		return r.Authority + " " + s.Territory
	}
	return r.Authority
}

func prefix(s string, n int) string {
	return s[:runeIndex(s, n)]
}

func runeIndex(s string, n int) int {
	count := 0
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
