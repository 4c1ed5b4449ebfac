package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driving"
)

// Ensure ResponseComposer implements the interface.
var _ driving.ResponseComposer = (*ResponseComposer)(nil)

const (
	maxSources       = 5
	perBucket        = 2
	excerptSentences = 2
	maxExcerptRunes  = 320
	maxFollowUps     = 3
	minConfidence    = 0.1
	maxConfidence    = 0.95
	lowScorePenalty  = 0.8
	lowScoreMean     = 0.7
	sourceCountBonus = 0.05
)

// Disclaimers attached verbatim.
const (
	DisclaimerLegal = "Le informazioni riportate hanno carattere esclusivamente informativo e non costituiscono " +
		"consulenza legale. Verificare sempre il testo vigente delle norme sulle fonti ufficiali e rivolgersi " +
		"a un professionista abilitato per il caso concreto."
	DisclaimerRegional = "La disciplina urbanistica ed edilizia varia da regione a regione e può essere integrata " +
		"da norme comunali. Le informazioni riportate non costituiscono consulenza legale: verificare il testo " +
		"vigente sul Bollettino Ufficiale regionale e rivolgersi a un professionista abilitato."
	DisclaimerGeneral = "Le informazioni hanno carattere generale. Per decisioni su casi specifici rivolgersi " +
		"all'ufficio tecnico comunale o a un professionista abilitato."
)

const (
	answerNotFound = "Non ho trovato fonti sufficientemente pertinenti per rispondere alla domanda. " +
		"Prova a riformularla indicando il tipo di intervento, il comune o la regione, " +
		"oppure consulta l'ufficio tecnico comunale o un professionista abilitato."
	answerFailed = "Al momento non è possibile consultare l'archivio normativo. " +
		"Riprova tra qualche minuto; se il problema persiste rivolgiti all'ufficio tecnico comunale " +
		"o a un professionista abilitato."
)

// bucket groups matches by source kind.
type bucket int

const (
	bucketLegal bucket = iota
	bucketRegional
	bucketUrban
)

var bucketHeadings = map[bucket]string{
	bucketLegal:    "Normativa nazionale e giurisprudenza",
	bucketRegional: "Normativa regionale",
	bucketUrban:    "Indicazioni urbanistiche",
}

// strategyPlan is the answer template of one strategy: an opening
// sentence and the buckets to draw from, in order.
type strategyPlan struct {
	intro   string
	buckets []bucket
}

var strategyPlans = map[domain.Strategy]strategyPlan{
	domain.StrategyComprehensive: {
		intro:   "La questione interessa sia la normativa nazionale sia quella regionale, oltre agli strumenti urbanistici.",
		buckets: []bucket{bucketLegal, bucketRegional, bucketUrban},
	},
	domain.StrategyLegalUrban: {
		intro:   "Il quadro normativo e le regole urbanistiche pertinenti sono i seguenti.",
		buckets: []bucket{bucketLegal, bucketUrban},
	},
	domain.StrategyRegionalFocus: {
		intro:   "La materia è disciplinata principalmente dalla normativa regionale.",
		buckets: []bucket{bucketRegional, bucketLegal},
	},
	domain.StrategyLegalOnly: {
		intro:   "Le disposizioni normative pertinenti sono le seguenti.",
		buckets: []bucket{bucketLegal},
	},
	domain.StrategyUrbanLegalLight: {
		intro:   "Dal punto di vista urbanistico, con alcuni riferimenti normativi:",
		buckets: []bucket{bucketUrban, bucketLegal},
	},
	domain.StrategyUrbanOnly: {
		intro:   "Dal punto di vista urbanistico:",
		buckets: []bucket{bucketUrban},
	},
}

var followUpTemplates = map[domain.Strategy][]string{
	domain.StrategyComprehensive: {
		"Quali titoli abilitativi servono per l'intervento?",
		"Ci sono differenze tra la normativa nazionale e quella regionale?",
	},
	domain.StrategyLegalUrban: {
		"Quali sanzioni sono previste in caso di violazione?",
		"Quali documenti servono per presentare la pratica?",
	},
	domain.StrategyRegionalFocus: {
		"Come si coordina la legge regionale con il Testo unico dell'edilizia?",
		"Sono previste deroghe nei piani comunali?",
	},
	domain.StrategyLegalOnly: {
		"Esistono sentenze recenti sull'argomento?",
		"La norma è stata modificata di recente?",
	},
	domain.StrategyUrbanLegalLight: {
		"Quali parametri urbanistici si applicano alla mia zona?",
		"Serve un titolo edilizio per questo intervento?",
	},
	domain.StrategyUrbanOnly: {
		"Quali sono gli standard urbanistici applicabili?",
		"Dove posso consultare il piano regolatore del mio comune?",
	},
}

// sentenceEnd requires a capital after the terminator so "art. 5"
// and "D.P.R. 380" do not end a sentence. Submatch 1 is the terminator.
var sentenceEnd = regexp.MustCompile(`([.!?;]["»”)]?)(?:\s+\p{Lu}|\s*$)`)

// ResponseComposer turns ranked matches into an Italian answer with
// citations, a confidence score and fixed disclaimers. It never
// generates claims that are not backed by a match.
type ResponseComposer struct{}

// NewResponseComposer creates a new response composer.
func NewResponseComposer() *ResponseComposer {
	return &ResponseComposer{}
}

// Compose builds the response for a search result. A failed search
// yields the apology template with Failed set; no internal error text
// reaches the answer.
func (c *ResponseComposer) Compose(query string, result *domain.SearchResult, cls domain.QueryClassification) *domain.Response {
	resp := &domain.Response{
		ID:         uuid.NewString(),
		Query:      query,
		Strategy:   cls.Strategy,
		RegionCode: cls.RegionCode,
		FollowUp:   followUps(cls),
	}

	switch {
	case result == nil || result.Failed():
		resp.Answer = answerFailed
		resp.Confidence = minConfidence
		resp.LegalDisclaimer = DisclaimerGeneral
		resp.Failed = true
		return resp
	case len(result.Matches) == 0:
		resp.Answer = answerNotFound
		resp.Confidence = minConfidence
		resp.LegalDisclaimer = DisclaimerGeneral
		return resp
	}

	matches := result.Matches
	resp.Answer = answer(cls, matches)
	resp.Confidence = responseConfidence(cls.Confidence, matches)
	resp.LegalDisclaimer = disclaimer(cls)

	for i := range matches[:min(len(matches), maxSources)] {
		resp.Sources = append(resp.Sources, sourceFor(&matches[i]))
	}
	return resp
}

// responseConfidence averages the classification confidence with the
// mean adjusted score, rewards corroborating sources and penalises
// weak matches. The result never claims certainty.
func responseConfidence(clsConfidence float64, matches []domain.SearchMatch) float64 {
	mean := 0.0
	for _, m := range matches {
		mean += m.AdjustedScore
	}
	mean /= float64(len(matches))

	conf := (clsConfidence + mean) / 2
	if len(matches) >= 3 {
		conf += sourceCountBonus
	}
	if len(matches) >= 5 {
		conf += sourceCountBonus
	}
	if mean < lowScoreMean {
		conf *= lowScorePenalty
	}
	return max(minConfidence, min(maxConfidence, conf))
}

func disclaimer(cls domain.QueryClassification) string {
	switch {
	case !cls.NeedsLegalDisclaimer:
		return ""
	case cls.Strategy == domain.StrategyRegionalFocus || cls.RegionCode != "":
		return DisclaimerRegional
	default:
		return DisclaimerLegal
	}
}

func bucketFor(t domain.SourceType) bucket {
	switch t {
	case domain.SourceRegional:
		return bucketRegional
	case domain.SourceUrban:
		return bucketUrban
	default:
		return bucketLegal
	}
}

// answer renders the strategy template with up to perBucket excerpts
// from each of its buckets. When the preferred buckets are empty the
// best matches are used instead.
func answer(cls domain.QueryClassification, matches []domain.SearchMatch) string {
	plan, ok := strategyPlans[cls.Strategy]
	if !ok {
		plan = strategyPlans[domain.StrategyUrbanOnly]
	}

	grouped := make(map[bucket][]*domain.SearchMatch)
	for i := range matches {
		b := bucketFor(matches[i].SourceType)
		grouped[b] = append(grouped[b], &matches[i])
	}

	var sb strings.Builder
	sb.WriteString(plan.intro)
	if cls.RegionName != "" {
		fmt.Fprintf(&sb, " Regione di riferimento: %s.", cls.RegionName)
	}

	wrote := false
	for _, b := range plan.buckets {
		items := grouped[b]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n\n%s:", bucketHeadings[b])
		for _, m := range items[:min(len(items), perBucket)] {
			writeItem(&sb, m)
		}
		wrote = true
	}
	if !wrote {
		sb.WriteString("\n\nFonti più pertinenti:")
		for i := range matches[:min(len(matches), perBucket)] {
			writeItem(&sb, &matches[i])
		}
	}
	return sb.String()
}

func writeItem(sb *strings.Builder, m *domain.SearchMatch) {
	fmt.Fprintf(sb, "\n- %s", citationFor(m))
	if excerpt := excerptFor(m); excerpt != "" {
		fmt.Fprintf(sb, ": %s", excerpt)
	}
}

func sourceFor(m *domain.SearchMatch) domain.Source {
	return domain.Source{
		ID:         m.ID,
		DocumentID: domain.MetaString(m.Metadata, domain.MetaDocumentID),
		Citation:   citationFor(m),
		Title:      domain.MetaString(m.Metadata, domain.MetaDocumentTitle),
		Excerpt:    excerptFor(m),
		Score:      m.AdjustedScore,
		SourceType: m.SourceType,
		Namespace:  m.Namespace,
	}
}

// citationFor renders a citation from structured metadata only: the
// stored citation, else number, date, article and comma fields.
func citationFor(m *domain.SearchMatch) string {
	md := m.Metadata
	if c := domain.MetaString(md, domain.MetaCitation); c != "" {
		return c
	}

	var parts []string
	head := domain.MetaString(md, domain.MetaDocumentTitle)
	if number := domain.MetaString(md, domain.MetaDocumentNumber); number != "" {
		head = strings.TrimSpace(head + " n. " + number)
	}
	if date := domain.MetaString(md, domain.MetaDocumentDate); date != "" {
		head = strings.TrimSpace(head + " del " + date)
	}
	if head != "" {
		parts = append(parts, head)
	}
	if article := domain.MetaString(md, domain.MetaArticle); article != "" {
		parts = append(parts, "art. "+article)
		if comma := domain.MetaString(md, domain.MetaComma); comma != "" {
			parts = append(parts, "comma "+comma)
		}
	}
	if len(parts) == 0 {
		return m.ID
	}
	return strings.Join(parts, ", ")
}

// excerptFor returns the first sentences of the match text.
func excerptFor(m *domain.SearchMatch) string {
	text := strings.Join(strings.Fields(domain.MetaString(m.Metadata, domain.MetaText)), " ")
	if text == "" {
		return ""
	}

	end := len(text)
	if locs := sentenceEnd.FindAllStringSubmatchIndex(text, excerptSentences); len(locs) == excerptSentences {
		end = locs[excerptSentences-1][3]
	}
	excerpt := strings.TrimSpace(text[:end])

	if utf8.RuneCountInString(excerpt) > maxExcerptRunes {
		runes := []rune(excerpt)
		excerpt = strings.TrimSpace(string(runes[:maxExcerptRunes])) + "…"
	}
	return excerpt
}

func followUps(cls domain.QueryClassification) []string {
	out := make([]string, 0, maxFollowUps)
	if cls.RegionName != "" {
		out = append(out, fmt.Sprintf("Quali sono le norme specifiche della Regione %s sull'argomento?", cls.RegionName))
	}
	for _, q := range followUpTemplates[cls.Strategy] {
		if len(out) == maxFollowUps {
			break
		}
		out = append(out, q)
	}
	return out
}
