// Package lexicon holds the Italian keyword tables used to classify
// queries and documents, and the text normalisation shared by both.
package lexicon

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Abbreviation rewrites a dotted legal abbreviation to a bare token.
type Abbreviation struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Normalizer lowercases text, expands abbreviations, strips punctuation
// except hyphens and apostrophes, and collapses whitespace.
type Normalizer struct {
	rules []abbreviationRule
}

type abbreviationRule struct {
	pattern *regexp.Regexp
	repl    string
}

// NewNormalizer compiles the abbreviation table. Longer abbreviations
// are applied first so "d.l." never shadows "d.lgs.".
func NewNormalizer(abbrevs []Abbreviation) *Normalizer {
	sorted := make([]Abbreviation, len(abbrevs))
	copy(sorted, abbrevs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].From) > len(sorted[j].From)
	})

	rules := make([]abbreviationRule, 0, len(sorted))
	for _, a := range sorted {
		from := strings.ToLower(strings.TrimSpace(a.From))
		if from == "" {
			continue
		}
		rules = append(rules, abbreviationRule{
			pattern: regexp.MustCompile(`(^|[^\p{L}\p{N}])` + regexp.QuoteMeta(from)),
			repl:    "${1}" + strings.ReplaceAll(a.To, "$", "$$") + " ",
		})
	}
	return &Normalizer{rules: rules}
}

// Normalize returns the canonical form of text.
func (n *Normalizer) Normalize(text string) string {
	s := strings.ToLower(text)
	s = strings.NewReplacer("’", "'", "‘", "'", "`", "'", "–", "-", "—", "-").Replace(s)
	for _, r := range n.rules {
		s = r.pattern.ReplaceAllString(s, r.repl)
	}
	return strings.Join(strings.Fields(stripPunctuation(s)), " ")
}

// Tokens returns the normalised text split into words. Elided
// articles are split off, so "dell'edificio" yields "dell'" and
// "edificio".
func (n *Normalizer) Tokens(text string) []string {
	fields := strings.Fields(n.Normalize(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		for {
			i := strings.IndexByte(f, '\'')
			if i < 0 || i == len(f)-1 {
				break
			}
			out = append(out, f[:i+1])
			f = f[i+1:]
		}
		out = append(out, f)
	}
	return out
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '\'':
			return r
		default:
			return ' '
		}
	}, s)
}

// plain is used to normalise table entries, which carry no abbreviations.
var plain = NewNormalizer(nil)
