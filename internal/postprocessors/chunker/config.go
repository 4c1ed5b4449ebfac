package chunker

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// Separator is a boundary at which text may be cut.
type Separator struct {
	Label    string
	Pattern  *regexp.Regexp
	Priority int

	// CutBefore cuts at the start of the match so the marker stays
	// with the following text. Otherwise the cut follows the match.
	CutBefore bool
}

// Config holds the token budget and separator table.
// Every field is required; DefaultConfig is an explicit preset.
type Config struct {
	MinChunkTokens int
	MaxChunkTokens int
	OverlapTokens  int

	// CharsPerToken is the estimation ratio, about 4 for Italian.
	CharsPerToken float64

	Separators []Separator
}

// DefaultSeparators returns the Italian legal separator table, from
// article boundary down to comma punctuation.
func DefaultSeparators() []Separator {
	return []Separator{
		{Label: "article", Priority: 100, CutBefore: true,
			Pattern: regexp.MustCompile(`(?m)^[ \t]*(?:Art\.|ART\.|Articolo\b|ARTICOLO\b)`)},
		{Label: "comma", Priority: 90, CutBefore: true,
			Pattern: regexp.MustCompile(`(?m)^[ \t]*(?:\d+(?:-?[a-z]+)?\.[ \t]|\(\d+\)|Comma[ \t]+\d+)`)},
		{Label: "lettera", Priority: 80, CutBefore: true,
			Pattern: regexp.MustCompile(`(?m)^[ \t]*[a-z]{1,2}\)[ \t]`)},
		{Label: "paragraph", Priority: 70,
			Pattern: regexp.MustCompile(`\n[ \t]*\n`)},
		{Label: "sentence", Priority: 60,
			Pattern: regexp.MustCompile(`[.!?][»"”)]?[ \t\n]+`)},
		{Label: "semicolon", Priority: 50,
			Pattern: regexp.MustCompile(`;[ \t\n]+`)},
		{Label: "comma_punctuation", Priority: 40,
			Pattern: regexp.MustCompile(`,[ \t\n]+`)},
	}
}

// DefaultConfig returns the preset used for legal corpora.
func DefaultConfig() Config {
	return Config{
		MinChunkTokens: 800,
		MaxChunkTokens: 1500,
		OverlapTokens:  100,
		CharsPerToken:  4,
		Separators:     DefaultSeparators(),
	}
}

// FromSettings builds a config from application settings with the
// default separator table.
func FromSettings(s domain.ChunkerSettings) Config {
	return Config{
		MinChunkTokens: s.MinTokens,
		MaxChunkTokens: s.MaxTokens,
		OverlapTokens:  s.OverlapTokens,
		CharsPerToken:  s.CharsPerToken,
		Separators:     DefaultSeparators(),
	}
}

// Validate rejects configurations that cannot produce bounded chunks.
func (c Config) Validate() error {
	switch {
	case c.MinChunkTokens <= 0:
		return fmt.Errorf("%w: min tokens must be positive, got %d", domain.ErrInvalidChunkConfig, c.MinChunkTokens)
	case c.MaxChunkTokens < c.MinChunkTokens:
		return fmt.Errorf("%w: max tokens %d below min tokens %d", domain.ErrInvalidChunkConfig, c.MaxChunkTokens, c.MinChunkTokens)
	case c.OverlapTokens < 0 || c.OverlapTokens >= c.MaxChunkTokens:
		return fmt.Errorf("%w: overlap %d must be in [0, max)", domain.ErrInvalidChunkConfig, c.OverlapTokens)
	case c.CharsPerToken <= 0:
		return fmt.Errorf("%w: chars per token must be positive", domain.ErrInvalidChunkConfig)
	case len(c.Separators) == 0:
		return fmt.Errorf("%w: no separators", domain.ErrInvalidChunkConfig)
	}
	for _, s := range c.Separators {
		if s.Pattern == nil {
			return fmt.Errorf("%w: separator %q has no pattern", domain.ErrInvalidChunkConfig, s.Label)
		}
	}
	return nil
}

// sortedSeparators returns the separators by descending priority.
func (c Config) sortedSeparators() []Separator {
	out := make([]Separator, len(c.Separators))
	copy(out, c.Separators)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}
