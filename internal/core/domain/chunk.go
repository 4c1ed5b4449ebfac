package domain

// ChunkType tags how a chunk was produced.
type ChunkType string

// Chunk types.
const (
	// ChunkTypeCompleteArticle is a whole article that fits the token budget.
	ChunkTypeCompleteArticle ChunkType = "complete_article"

	// ChunkTypeArticleComma is a single comma of an oversized article.
	ChunkTypeArticleComma ChunkType = "article_comma"

	// ChunkTypeTextSegment is a span cut at a separator boundary.
	ChunkTypeTextSegment ChunkType = "text_segment"

	// ChunkTypeForceSplit is a span cut at a hard character limit.
	ChunkTypeForceSplit ChunkType = "force_split"
)

// IsValid returns true if the chunk type is recognised.
func (t ChunkType) IsValid() bool {
	switch t {
	case ChunkTypeCompleteArticle, ChunkTypeArticleComma, ChunkTypeTextSegment, ChunkTypeForceSplit:
		return true
	default:
		return false
	}
}

// Hierarchy is the structural path of a chunk inside its document.
type Hierarchy struct {
	Document string
	Article  string
	Comma    string
}

// Path renders the hierarchy as "doc > art. N > comma M".
func (h Hierarchy) Path() string {
	path := h.Document
	if h.Article != "" {
		path += " > art. " + h.Article
	}
	if h.Comma != "" {
		path += " > comma " + h.Comma
	}
	return path
}

// Chunk represents a searchable unit within a document.
// Documents are split into chunks for granular search results.
type Chunk struct {
	// ID is deterministic: same document and structure yield the same ID.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Content is the text content of this chunk, trimmed and non-empty.
	Content string

	// Position is the ordinal position within the document.
	Position int

	// TokenCount is the token estimate of Content.
	TokenCount int

	// Hierarchy locates the chunk within the document structure.
	Hierarchy Hierarchy

	// Type records how the chunk was cut.
	Type ChunkType

	// Quality is a 0-100 structural quality score.
	Quality int

	// References lists cross-references to other articles or acts.
	References []string

	// OverlapTokens is the size of the context prefix copied from
	// the previous chunk.
	OverlapTokens int

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// Metadata contains chunk-specific key-value pairs.
	// Values are restricted to flat primitives, see ValidateFlatMetadata.
	Metadata map[string]any
}

// ChunkingStrategy names the path used to chunk a document.
type ChunkingStrategy string

// Chunking strategies.
const (
	ChunkingLegalStructure ChunkingStrategy = "legal_structure"
	ChunkingSeparatorBased ChunkingStrategy = "separator_based"
)

// ChunkingStats summarises a chunking run.
type ChunkingStats struct {
	TotalChunks    int
	TotalTokens    int
	AverageTokens  float64
	MinTokens      int
	MaxTokens      int
	ForceSplits    int
	AverageQuality float64
	ByType         map[ChunkType]int
}

// ChunkingResult is the output of chunking one document.
type ChunkingResult struct {
	DocumentID string
	Chunks     []Chunk
	Strategy   ChunkingStrategy
	Stats      ChunkingStats
}

// ComputeChunkingStats aggregates statistics over chunks.
func ComputeChunkingStats(chunks []Chunk) ChunkingStats {
	stats := ChunkingStats{
		TotalChunks: len(chunks),
		ByType:      make(map[ChunkType]int),
	}
	if len(chunks) == 0 {
		return stats
	}

	qualitySum := 0
	stats.MinTokens = chunks[0].TokenCount
	for _, c := range chunks {
		stats.TotalTokens += c.TokenCount
		qualitySum += c.Quality
		if c.TokenCount < stats.MinTokens {
			stats.MinTokens = c.TokenCount
		}
		if c.TokenCount > stats.MaxTokens {
			stats.MaxTokens = c.TokenCount
		}
		if c.Type == ChunkTypeForceSplit {
			stats.ForceSplits++
		}
		stats.ByType[c.Type]++
	}
	stats.AverageTokens = float64(stats.TotalTokens) / float64(len(chunks))
	stats.AverageQuality = float64(qualitySum) / float64(len(chunks))
	return stats
}
