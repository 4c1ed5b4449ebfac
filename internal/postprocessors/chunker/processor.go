// Package chunker provides a structure-aware chunking processor for
// Italian legal and urban documents.
package chunker

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/logger"
	"github.com/custodia-labs/urbanlex/internal/metrics"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Chunks at or below either floor are noise and are discarded.
const (
	MinChunkChars  = 20
	MinChunkTokens = 10
)

// Processor splits documents into chunks along article, comma and
// separator boundaries. It implements the PostProcessor interface.
type Processor struct {
	cfg        Config
	separators []Separator
	metrics    *metrics.Metrics
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMetrics records force splits and chunk types on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Processor) {
		p.metrics = m
	}
}

// New creates a chunker. It fails with ErrInvalidChunkConfig when cfg
// cannot bound chunk sizes.
func New(cfg Config, opts ...Option) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Processor{
		cfg:        cfg,
		separators: cfg.sortedSeparators(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Config returns the active configuration.
func (p *Processor) Config() Config {
	return p.cfg
}

// Process replaces any input chunks with chunks of the document.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	result := p.Chunk(doc)
	return result.Chunks, nil
}

// EstimateTokens returns ceil(characters / CharsPerToken).
func (p *Processor) EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return int(math.Ceil(float64(n) / p.cfg.CharsPerToken))
}

// piece is a chunk before overlap, filtering and numbering.
type piece struct {
	text    string
	article string
	comma   string
	kind    domain.ChunkType
}

// Chunk splits doc into chunks. Documents carrying articles follow
// their structure; anything else is cut at separator boundaries.
// The same document always yields the same chunks and IDs.
func (p *Processor) Chunk(doc *domain.Document) domain.ChunkingResult {
	result := domain.ChunkingResult{
		DocumentID: doc.ID,
		Strategy:   domain.ChunkingSeparatorBased,
	}

	var pieces []piece
	if doc.HasStructure() {
		result.Strategy = domain.ChunkingLegalStructure
		if strings.TrimSpace(doc.Preamble) != "" {
			pieces = append(pieces, p.splitText(doc.Preamble, "", "")...)
		}
		for _, art := range doc.Articles {
			pieces = append(pieces, p.chunkArticle(art)...)
		}
	} else {
		pieces = p.splitText(doc.Content, "", "")
	}

	result.Chunks = p.finalize(doc, pieces)
	result.Stats = domain.ComputeChunkingStats(result.Chunks)

	logger.Debug("chunker: %s strategy=%s chunks=%d tokens=%d force_splits=%d",
		doc.ID, result.Strategy, result.Stats.TotalChunks, result.Stats.TotalTokens, result.Stats.ForceSplits)
	return result
}

// chunkArticle emits the whole article when it fits, otherwise one
// chunk per comma, splitting oversized commas further.
func (p *Processor) chunkArticle(art domain.Article) []piece {
	text := strings.TrimSpace(art.Text)
	if text == "" {
		return nil
	}
	if p.EstimateTokens(text) <= p.cfg.MaxChunkTokens {
		return []piece{{text: text, article: art.Number, kind: domain.ChunkTypeCompleteArticle}}
	}
	if len(art.Commas) == 0 {
		return p.splitText(text, art.Number, "")
	}

	var out []piece
	for _, c := range p.foldShortCommas(art.Commas) {
		body := strings.TrimSpace(c.Text)
		if body == "" {
			continue
		}
		if p.EstimateTokens(body) <= p.cfg.MaxChunkTokens {
			out = append(out, piece{text: body, article: art.Number, comma: c.Number, kind: domain.ChunkTypeArticleComma})
			continue
		}
		out = append(out, p.splitText(body, art.Number, c.Number)...)
	}
	return out
}

// foldShortCommas joins commas at or below the noise floor to the next
// comma, or to the previous one when last, so their text survives.
func (p *Processor) foldShortCommas(commas []domain.Comma) []domain.Comma {
	out := make([]domain.Comma, 0, len(commas))
	pending := ""
	for _, c := range commas {
		text := strings.TrimSpace(c.Text)
		if pending != "" {
			text = pending + "\n" + text
			pending = ""
		}
		if p.EstimateTokens(text) <= MinChunkTokens {
			pending = text
			continue
		}
		out = append(out, domain.Comma{Number: c.Number, Text: text})
	}
	if pending != "" {
		if len(out) == 0 {
			return []domain.Comma{{Number: commas[0].Number, Text: pending}}
		}
		last := &out[len(out)-1]
		last.Text += "\n" + pending
	}
	return out
}

// splitText cuts text into spans of at most MaxChunkTokens, preferring
// the highest-priority separator that yields a span in range.
func (p *Processor) splitText(text, article, comma string) []piece {
	var out []piece
	rest := strings.TrimSpace(text)
	for rest != "" {
		if p.EstimateTokens(rest) <= p.cfg.MaxChunkTokens {
			out = append(out, piece{text: rest, article: article, comma: comma, kind: domain.ChunkTypeTextSegment})
			break
		}

		kind := domain.ChunkTypeTextSegment
		cut, ok := p.findCut(rest)
		if !ok {
			cut = p.forceCut(rest)
			kind = domain.ChunkTypeForceSplit
		}
		if head := strings.TrimSpace(rest[:cut]); head != "" {
			out = append(out, piece{text: head, article: article, comma: comma, kind: kind})
		}
		rest = strings.TrimSpace(rest[cut:])
	}
	return out
}

// findCut returns the byte offset of the best cut in text: the last
// in-range boundary of the highest-priority separator that has one.
// Cuts leaving a remainder below the noise floor are skipped.
func (p *Processor) findCut(text string) (int, bool) {
	for _, sep := range p.separators {
		best := -1
		for _, loc := range sep.Pattern.FindAllStringIndex(text, -1) {
			pos := loc[1]
			if sep.CutBefore {
				pos = loc[0]
			}
			if pos <= 0 || pos >= len(text) {
				continue
			}
			tokens := p.EstimateTokens(strings.TrimSpace(text[:pos]))
			if tokens > p.cfg.MaxChunkTokens {
				break
			}
			if tokens < p.cfg.MinChunkTokens {
				continue
			}
			if p.EstimateTokens(strings.TrimSpace(text[pos:])) <= MinChunkTokens {
				continue
			}
			best = pos
		}
		if best > 0 {
			return best, true
		}
	}
	return 0, false
}

// forceCut cuts at the character limit, backing off to the last
// whitespace in its second half so words stay whole.
func (p *Processor) forceCut(text string) int {
	maxChars := max(1, int(float64(p.cfg.MaxChunkTokens)*p.cfg.CharsPerToken))
	limit := runeOffset(text, maxChars)

	if p.EstimateTokens(text[limit:]) <= MinChunkTokens {
		backoff := int(float64(MinChunkTokens+1) * p.cfg.CharsPerToken)
		if shorter := runeOffset(text, maxChars-backoff); shorter > 0 {
			limit = shorter
		}
	}

	half := runeOffset(text, maxChars/2)
	if ws := strings.LastIndexAny(text[:limit], " \t\n"); ws > half {
		return ws
	}
	return limit
}

// runeOffset returns the byte offset of the n-th rune of s.
func runeOffset(s string, n int) int {
	if n <= 0 {
		return 0
	}
	count := 0
	for i := range s {
		if count == n {
			return i
		}
		count++
	}
	return len(s)
}

// finalize adds overlap, drops noise, then numbers, identifies and
// scores the surviving chunks.
func (p *Processor) finalize(doc *domain.Document, pieces []piece) []domain.Chunk {
	prefixes := make([]string, len(pieces))
	if p.cfg.OverlapTokens > 0 {
		for i := 1; i < len(pieces); i++ {
			prefixes[i] = p.overlapPrefix(pieces[i-1].text)
		}
	}

	docType := string(doc.Type)
	if docType == "" {
		docType = string(domain.DocTypeUnknown)
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, pc := range pieces {
		content := pc.text
		overlap := 0
		if prefixes[i] != "" {
			content = prefixes[i] + "\n" + pc.text
			overlap = p.EstimateTokens(prefixes[i])
		}

		tokens := p.EstimateTokens(content)
		if utf8.RuneCountInString(content) <= MinChunkChars || tokens <= MinChunkTokens {
			continue
		}

		position := len(chunks)
		c := domain.Chunk{
			ID:            chunkID(doc.ID, pc.article, pc.comma, position),
			DocumentID:    doc.ID,
			Content:       content,
			Position:      position,
			TokenCount:    tokens,
			Hierarchy:     domain.Hierarchy{Document: doc.ID, Article: pc.article, Comma: pc.comma},
			Type:          pc.kind,
			References:    extractReferences(pc.text, pc.article),
			OverlapTokens: overlap,
			Metadata:      make(map[string]any),
		}
		c.Quality = p.quality(c)
		chunks = append(chunks, c)

		p.metrics.ChunkProduced(string(c.Type))
		if c.Type == domain.ChunkTypeForceSplit {
			p.metrics.ForceSplit(docType)
			logger.Warn("chunker: %s force-split at %d tokens, no separator fit the budget", c.ID, tokens)
		}
	}
	return chunks
}

var sentenceStart = regexp.MustCompile(`[.!?;:][»"”)]?\s+`)

// overlapPrefix returns the trailing OverlapTokens of prev, starting
// at a sentence boundary when one exists, otherwise at a word.
func (p *Processor) overlapPrefix(prev string) string {
	n := int(float64(p.cfg.OverlapTokens) * p.cfg.CharsPerToken)
	runes := utf8.RuneCountInString(prev)
	if runes <= n {
		return strings.TrimSpace(prev)
	}

	slice := prev[runeOffset(prev, runes-n):]
	if loc := sentenceStart.FindStringIndex(slice); loc != nil && loc[1] < len(slice) {
		return strings.TrimSpace(slice[loc[1]:])
	}
	if ws := strings.IndexAny(slice, " \t\n"); ws >= 0 {
		return strings.TrimSpace(slice[ws:])
	}
	return strings.TrimSpace(slice)
}

// quality scores structural clarity on a 0-100 scale.
func (p *Processor) quality(c domain.Chunk) int {
	score := 50
	if c.Hierarchy.Article != "" {
		score += 20
		if c.Hierarchy.Comma != "" {
			score += 10
		}
	}
	if c.TokenCount >= p.cfg.MinChunkTokens && c.TokenCount <= p.cfg.MaxChunkTokens {
		score += 15
	}
	switch c.Type {
	case domain.ChunkTypeCompleteArticle:
		score += 10
	case domain.ChunkTypeForceSplit:
		score -= 20
	}
	return max(0, min(100, score))
}

var idUnsafe = regexp.MustCompile(`[^a-z0-9-]+`)

func sanitize(s string) string {
	return strings.Trim(idUnsafe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// chunkID builds a deterministic ID from the document, the structural
// position and the chunk ordinal.
func chunkID(docID, article, comma string, position int) string {
	switch {
	case article != "" && comma != "":
		return fmt.Sprintf("%s_art%s_c%s_%d", docID, sanitize(article), sanitize(comma), position)
	case article != "":
		return fmt.Sprintf("%s_art%s_%d", docID, sanitize(article), position)
	default:
		return fmt.Sprintf("%s_seg_%d", docID, position)
	}
}

type referencePattern struct {
	re     *regexp.Regexp
	format func(m []string) string
}

var referencePatterns = []referencePattern{
	{
		re:     regexp.MustCompile(`(?i)(?:^|[^\p{L}])art(?:icolo|\.)\s*(\d+(?:-?(?:bis|ter|quater|quinquies))?)`),
		format: func(m []string) string { return "art. " + strings.ToLower(m[1]) },
	},
	{
		re:     regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:l\.\s*r\.|legge regionale)\s*(?:n\.\s*)?(\d+)\s*/\s*(\d{4})`),
		format: func(m []string) string { return "l.r. " + m[1] + "/" + m[2] },
	},
	{
		re:     regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:d\.\s*lgs\.?|decreto legislativo)\s*(?:n\.\s*)?(\d+)\s*/\s*(\d{4})`),
		format: func(m []string) string { return "d.lgs. " + m[1] + "/" + m[2] },
	},
	{
		re:     regexp.MustCompile(`(?i)(?:^|[^\p{L}])d\.\s*p\.\s*r\.?\s*(?:n\.\s*)?(\d+)\s*/\s*(\d{4})`),
		format: func(m []string) string { return "d.p.r. " + m[1] + "/" + m[2] },
	},
	{
		re:     regexp.MustCompile(`(?i)(?:^|[^\p{L}])(?:legge|l\.)\s*(?:n\.\s*)?(\d+)\s*/\s*(\d{4})`),
		format: func(m []string) string { return "legge " + m[1] + "/" + m[2] },
	},
}

// extractReferences returns the distinct cross-references in text in
// order of appearance, excluding the chunk's own article.
func extractReferences(text, ownArticle string) []string {
	type found struct {
		pos int
		ref string
	}
	self := ""
	if ownArticle != "" {
		self = "art. " + strings.ToLower(ownArticle)
	}

	var refs []found
	seen := make(map[string]bool)
	for _, rp := range referencePatterns {
		for _, loc := range rp.re.FindAllStringSubmatchIndex(text, -1) {
			m := make([]string, len(loc)/2)
			for g := range m {
				if loc[2*g] >= 0 {
					m[g] = text[loc[2*g]:loc[2*g+1]]
				}
			}
			ref := rp.format(m)
			if ref == self || seen[ref] {
				continue
			}
			seen[ref] = true
			refs = append(refs, found{pos: loc[0], ref: ref})
		}
	}
	if len(refs) == 0 {
		return nil
	}

	sort.SliceStable(refs, func(i, j int) bool { return refs[i].pos < refs[j].pos })
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.ref
	}
	return out
}
