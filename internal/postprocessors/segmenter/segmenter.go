// Package segmenter detects the article and comma structure of Italian
// legal texts.
package segmenter

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/logger"
)

// Ensure Segmenter implements the interface.
var _ driven.PostProcessor = (*Segmenter)(nil)

// MinUnitLength is the shortest article or comma kept, in characters.
// Shorter units are markup remnants.
const MinUnitLength = 20

const (
	maxInlineTitle = 150
	maxNextTitle   = 100
)

// Patterns is the declarative pattern table driving segmentation.
type Patterns struct {
	// Legal matches any marker of legal prose.
	Legal *regexp.Regexp

	// Article matches an article heading. The match start is the
	// boundary; submatch 1, when present, is the article number.
	Article *regexp.Regexp

	// Comma matches a comma heading. The first non-empty submatch is
	// the comma number.
	Comma *regexp.Regexp
}

// DefaultPatterns returns the Italian legal patterns.
func DefaultPatterns() Patterns {
	const suffix = `(?:[ \t]*-?[ \t]*(?i:bis|ter|quater|quinquies|sexies|septies|octies|novies|decies)\b)?`
	return Patterns{
		Legal: regexp.MustCompile(
			`(?i)(?:^|[^\p{L}])(?:art\.|articol[oi]|comm[ai]|decret[oi]|legge|d\.?g\.?r\.?|circolare)(?:[^\p{L}]|$)`),
		Article: regexp.MustCompile(
			`(?m)^[ \t]*(?:Art\.|ART\.|Articolo\b|ARTICOLO\b)[ \t]*(\d+` + suffix + `|(?i:unico)\b)?`),
		Comma: regexp.MustCompile(
			`(?m)^[ \t]*(?:(\d+` + suffix + `)\.[ \t]|\((\d+` + suffix + `)\)|Comma[ \t]+(\d+` + suffix + `)\b)`),
	}
}

// Structure is the segmentation of a text.
type Structure struct {
	IsLegal  bool
	Preamble string
	Articles []domain.Article
}

// Segmenter splits raw text into articles and commas.
// It implements the PostProcessor interface; it fills Document.Articles
// and passes chunks through unchanged.
type Segmenter struct {
	patterns Patterns
}

// Option configures the segmenter.
type Option func(*Segmenter)

// WithPatterns replaces the pattern table. Nil fields keep defaults.
func WithPatterns(p Patterns) Option {
	return func(s *Segmenter) {
		if p.Legal != nil {
			s.patterns.Legal = p.Legal
		}
		if p.Article != nil {
			s.patterns.Article = p.Article
		}
		if p.Comma != nil {
			s.patterns.Comma = p.Comma
		}
	}
}

// New creates a new segmenter with the given options.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{patterns: DefaultPatterns()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the processor name.
func (s *Segmenter) Name() string {
	return "segmenter"
}

// Process segments the document unless it already carries articles.
func (s *Segmenter) Process(_ context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if doc.HasStructure() {
		return chunks, nil
	}
	st := s.Segment(doc.Content)
	doc.Articles = st.Articles
	doc.Preamble = st.Preamble
	logger.Debug("segmenter: %s legal=%t articles=%d", doc.ID, st.IsLegal, len(st.Articles))
	return chunks, nil
}

// IsLegal reports whether text contains legal markers.
func (s *Segmenter) IsLegal(text string) bool {
	return s.patterns.Legal.MatchString(text)
}

// Segment partitions text into articles. Non-legal text, and legal
// text without article headings, yields no articles.
func (s *Segmenter) Segment(text string) Structure {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" || !s.IsLegal(text) {
		return Structure{}
	}

	st := Structure{IsLegal: true}
	locs := s.patterns.Article.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return st
	}

	st.Preamble = strings.TrimSpace(text[:locs[0][0]])
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		unit := strings.TrimSpace(text[loc[0]:end])
		if utf8.RuneCountInString(unit) < MinUnitLength {
			continue
		}

		number := ""
		if loc[2] >= 0 {
			number = normalizeNumber(text[loc[2]:loc[3]])
		}
		if number == "" {
			number = strconv.Itoa(i + 1)
		}

		st.Articles = append(st.Articles, domain.Article{
			Number: number,
			Title:  extractTitle(text[loc[1]:end]),
			Text:   unit,
			Commas: s.splitCommas(unit),
		})
	}
	return st
}

// splitCommas splits an article into commas. The article heading,
// preceding the first comma marker, joins the first comma.
func (s *Segmenter) splitCommas(article string) []domain.Comma {
	locs := s.patterns.Comma.FindAllStringSubmatchIndex(article, -1)
	if len(locs) == 0 {
		return nil
	}

	var commas []domain.Comma
	for i, loc := range locs {
		start := loc[0]
		if i == 0 {
			start = 0
		}
		end := len(article)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(article[start:end])
		if utf8.RuneCountInString(body) < MinUnitLength {
			continue
		}

		number := ""
		for g := 2; g+1 < len(loc); g += 2 {
			if loc[g] >= 0 {
				number = normalizeNumber(article[loc[g]:loc[g+1]])
				break
			}
		}
		if number == "" {
			number = strconv.Itoa(i + 1)
		}
		commas = append(commas, domain.Comma{Number: number, Text: body})
	}
	return commas
}

var numberSpacing = regexp.MustCompile(`[ \t]*-?[ \t]*`)

// normalizeNumber renders "5 bis", "5bis" and "5 - BIS" as "5-bis".
func normalizeNumber(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	digits := strings.IndexFunc(raw, func(r rune) bool { return r < '0' || r > '9' })
	if digits <= 0 {
		return raw
	}
	suffix := numberSpacing.ReplaceAllString(raw[digits:], "")
	if suffix == "" {
		return raw[:digits]
	}
	return raw[:digits] + "-" + suffix
}

// extractTitle reads the article rubric following the number marker:
// the rest of the marker line, or the next line when it is short and
// free of sentence punctuation.
func extractTitle(afterMarker string) string {
	lines := strings.Split(afterMarker, "\n")
	if title := strings.Trim(lines[0], " \t.-–—:()[]"); title != "" {
		if utf8.RuneCountInString(title) > maxInlineTitle {
			return ""
		}
		return title
	}

	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > maxNextTitle || strings.ContainsAny(line, ".;:") {
			return ""
		}
		return strings.Trim(line, "()[]")
	}
	return ""
}
