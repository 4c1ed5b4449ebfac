package lexicon

// Matcher counts whole-word occurrences of keyword phrases in a token
// stream. Each entry may have alternative spellings; an entry counts
// once per position where any alternative matches.
type Matcher struct {
	entries []entry
}

type entry struct {
	label        string
	alternatives [][]string
}

// NewMatcher builds a matcher with one entry per term.
func NewMatcher(terms []string) *Matcher {
	m := &Matcher{}
	for _, t := range terms {
		m.add(t, []string{t})
	}
	return m
}

func (m *Matcher) add(label string, spellings []string) {
	e := entry{label: label}
	for _, s := range spellings {
		if tokens := plain.Tokens(s); len(tokens) > 0 {
			e.alternatives = append(e.alternatives, tokens)
		}
	}
	if len(e.alternatives) > 0 {
		m.entries = append(m.entries, e)
	}
}

// Size returns the number of entries, the category size used to
// normalise match counts.
func (m *Matcher) Size() int {
	return len(m.entries)
}

// Count returns the total number of entry occurrences in tokens.
func (m *Matcher) Count(tokens []string) int {
	count := 0
	for _, e := range m.entries {
		for i := range tokens {
			if e.matchAt(tokens, i) {
				count++
			}
		}
	}
	return count
}

// Matched returns the labels of entries occurring in tokens, in table order.
func (m *Matcher) Matched(tokens []string) []string {
	var out []string
	for _, e := range m.entries {
		for i := range tokens {
			if e.matchAt(tokens, i) {
				out = append(out, e.label)
				break
			}
		}
	}
	return out
}

// First returns the label of the entry occurring earliest in tokens.
func (m *Matcher) First(tokens []string) (string, bool) {
	for i := range tokens {
		for _, e := range m.entries {
			if e.matchAt(tokens, i) {
				return e.label, true
			}
		}
	}
	return "", false
}

func (e entry) matchAt(tokens []string, i int) bool {
	for _, alt := range e.alternatives {
		if hasPhraseAt(tokens, alt, i) {
			return true
		}
	}
	return false
}

func hasPhraseAt(tokens, phrase []string, i int) bool {
	if i+len(phrase) > len(tokens) {
		return false
	}
	for j, p := range phrase {
		if tokens[i+j] != p {
			return false
		}
	}
	return true
}
