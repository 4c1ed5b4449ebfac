package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// defaultDocumentID names documents submitted without an ID.
const defaultDocumentID = "documento"

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query     string   `json:"query" jsonschema:"the question about Italian building, planning or administrative law"`
	TopK      int      `json:"top_k,omitempty" jsonschema:"number of sources to retrieve (default 10)"`
	Threshold *float64 `json:"threshold,omitempty" jsonschema:"minimum relevance score between 0 and 1"`
	NoCache   bool     `json:"no_cache,omitempty" jsonschema:"bypass the response cache"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer          string         `json:"answer"`
	Confidence      float64        `json:"confidence"`
	Strategy        string         `json:"strategy"`
	RegionCode      string         `json:"region_code,omitempty"`
	Sources         []SourceOutput `json:"sources"`
	LegalDisclaimer string         `json:"legal_disclaimer,omitempty"`
	FollowUp        []string       `json:"follow_up,omitempty"`
	Failed          bool           `json:"failed,omitempty"`
}

// SourceOutput represents a single cited source.
type SourceOutput struct {
	ID         string  `json:"id"`
	Citation   string  `json:"citation"`
	Title      string  `json:"title,omitempty"`
	Excerpt    string  `json:"excerpt,omitempty"`
	Score      float64 `json:"score"`
	SourceType string  `json:"source_type"`
	Namespace  string  `json:"namespace"`
}

// ClassifyInput is the input schema for the classify_query tool.
type ClassifyInput struct {
	Query string `json:"query" jsonschema:"the question to route"`
}

// ClassifyOutput is the output schema for the classify_query tool.
type ClassifyOutput struct {
	Strategy             string             `json:"strategy"`
	Namespaces           []string           `json:"namespaces"`
	Weights              map[string]float64 `json:"weights"`
	NeedsLegalDisclaimer bool               `json:"needs_legal_disclaimer"`
	Confidence           float64            `json:"confidence"`
	RegionCode           string             `json:"region_code,omitempty"`
	RegionName           string             `json:"region_name,omitempty"`
}

// ChunkInput is the input schema for the chunk_document tool.
type ChunkInput struct {
	ID    string `json:"id,omitempty" jsonschema:"document identifier used to derive chunk IDs"`
	Title string `json:"title,omitempty" jsonschema:"document title"`
	Text  string `json:"text" jsonschema:"the full document text"`
}

// ChunkOutput is the output schema for the chunk_document tool.
type ChunkOutput struct {
	Strategy      string        `json:"strategy"`
	TotalChunks   int           `json:"total_chunks"`
	TotalTokens   int           `json:"total_tokens"`
	AverageTokens float64       `json:"average_tokens"`
	ForceSplits   int           `json:"force_splits"`
	Chunks        []ChunkResult `json:"chunks"`
}

// ChunkResult represents a single chunk.
type ChunkResult struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	Type       string `json:"type"`
	TokenCount int    `json:"token_count"`
	Quality    int    `json:"quality"`
	Content    string `json:"content"`
}

// MetadataInput is the input schema for the extract_metadata tool.
type MetadataInput struct {
	Text      string `json:"text" jsonschema:"the full document text"`
	Title     string `json:"title,omitempty" jsonschema:"document title hint"`
	Type      string `json:"type,omitempty" jsonschema:"document type hint such as legge or dpr"`
	Number    string `json:"number,omitempty" jsonschema:"act number hint"`
	Date      string `json:"date,omitempty" jsonschema:"enactment date hint"`
	Authority string `json:"authority,omitempty" jsonschema:"issuing authority hint"`
}

// MetadataOutput is the output schema for the extract_metadata tool.
type MetadataOutput struct {
	Type            string   `json:"type"`
	TypeConfidence  int      `json:"type_confidence"`
	Citation        string   `json:"citation,omitempty"`
	Authority       string   `json:"authority,omitempty"`
	PrimaryTopics   []string `json:"primary_topics,omitempty"`
	DomainRelevance int      `json:"domain_relevance"`
	Status          string   `json:"status"`
	Modifications   []string `json:"modifications,omitempty"`
	Complexity      string   `json:"complexity"`
	ScopeLevel      string   `json:"scope_level"`
	Territory       string   `json:"territory,omitempty"`
	RegionCode      string   `json:"region_code,omitempty"`
	QualityOverall  int      `json:"quality_overall"`
	Confidence      int      `json:"confidence"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the national, regional and urban planning corpora with citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "classify_query",
		Description: "Show which corpora a question would be routed to and with which weights",
	}, s.handleClassify)

	if s.ports.Chunking != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "chunk_document",
			Description: "Split an Italian legal or planning text into article-aware chunks",
		}, s.handleChunk)
	}

	if s.ports.Metadata != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "extract_metadata",
			Description: "Classify a legal text and extract type, status, topics and territorial scope",
		}, s.handleExtractMetadata)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, AskOutput{}, errors.New("query is required")
	}

	resp, err := s.ports.Query.Ask(ctx, input.Query, domain.AskOptions{
		TopK:      input.TopK,
		Threshold: input.Threshold,
		NoCache:   input.NoCache,
	})
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:          resp.Answer,
		Confidence:      resp.Confidence,
		Strategy:        string(resp.Strategy),
		RegionCode:      resp.RegionCode,
		Sources:         make([]SourceOutput, len(resp.Sources)),
		LegalDisclaimer: resp.LegalDisclaimer,
		FollowUp:        resp.FollowUp,
		Failed:          resp.Failed,
	}
	for i, src := range resp.Sources {
		output.Sources[i] = SourceOutput{
			ID:         src.ID,
			Citation:   src.Citation,
			Title:      src.Title,
			Excerpt:    src.Excerpt,
			Score:      src.Score,
			SourceType: string(src.SourceType),
			Namespace:  string(src.Namespace),
		}
	}

	return nil, output, nil
}

// handleClassify handles the classify_query tool invocation.
func (s *Server) handleClassify(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ClassifyInput,
) (*mcp.CallToolResult, ClassifyOutput, error) {
	cls := s.ports.Classifier.Classify(input.Query)

	output := ClassifyOutput{
		Strategy:             string(cls.Strategy),
		Namespaces:           make([]string, len(cls.Namespaces)),
		Weights:              make(map[string]float64, len(cls.Weights)),
		NeedsLegalDisclaimer: cls.NeedsLegalDisclaimer,
		Confidence:           cls.Confidence,
		RegionCode:           cls.RegionCode,
		RegionName:           cls.RegionName,
	}
	for i, ns := range cls.Namespaces {
		output.Namespaces[i] = string(ns)
	}
	for ns, w := range cls.Weights {
		output.Weights[string(ns)] = w
	}

	return nil, output, nil
}

// handleChunk handles the chunk_document tool invocation.
func (s *Server) handleChunk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ChunkInput,
) (*mcp.CallToolResult, ChunkOutput, error) {
	id := input.ID
	if id == "" {
		id = defaultDocumentID
	}
	doc := &domain.Document{ID: id, Title: input.Title, Content: input.Text}

	result, err := s.ports.Chunking.ChunkDocument(ctx, doc)
	if err != nil {
		return nil, ChunkOutput{}, err
	}

	output := ChunkOutput{
		Strategy:      string(result.Strategy),
		TotalChunks:   result.Stats.TotalChunks,
		TotalTokens:   result.Stats.TotalTokens,
		AverageTokens: result.Stats.AverageTokens,
		ForceSplits:   result.Stats.ForceSplits,
		Chunks:        make([]ChunkResult, len(result.Chunks)),
	}
	for i := range result.Chunks {
		c := &result.Chunks[i]
		output.Chunks[i] = ChunkResult{
			ID:         c.ID,
			Path:       c.Hierarchy.Path(),
			Type:       string(c.Type),
			TokenCount: c.TokenCount,
			Quality:    c.Quality,
			Content:    c.Content,
		}
	}

	return nil, output, nil
}

// handleExtractMetadata handles the extract_metadata tool invocation.
func (s *Server) handleExtractMetadata(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input MetadataInput,
) (*mcp.CallToolResult, MetadataOutput, error) {
	doc := &domain.Document{ID: defaultDocumentID, Title: input.Title, Content: input.Text}
	hints := domain.DocumentConfig{
		Title:     input.Title,
		Type:      input.Type,
		Number:    input.Number,
		Date:      input.Date,
		Authority: input.Authority,
	}

	if s.ports.Chunking != nil {
		// Segmenting first gives the enricher the article count.
		if _, err := s.ports.Chunking.ChunkDocument(ctx, doc); err != nil {
			return nil, MetadataOutput{}, err
		}
	}

	meta, err := s.ports.Metadata.ExtractMetadata(ctx, doc, hints)
	if err != nil {
		return nil, MetadataOutput{}, err
	}

	output := MetadataOutput{
		Type:            string(meta.Classification.Type),
		TypeConfidence:  meta.Classification.Confidence,
		Citation:        meta.Classification.Citation,
		Authority:       meta.Classification.Authority,
		DomainRelevance: meta.Topics.DomainRelevance,
		Status:          string(meta.Status.Status),
		Modifications:   meta.Status.Modifications,
		Complexity:      string(meta.Complexity),
		ScopeLevel:      string(meta.Scope.Level),
		Territory:       meta.Scope.Territory,
		RegionCode:      meta.Scope.RegionCode,
		QualityOverall:  meta.Quality.Overall,
		Confidence:      meta.Confidence,
	}
	for _, t := range meta.Topics.Primary {
		output.PrimaryTopics = append(output.PrimaryTopics, t.Topic)
	}

	return nil, output, nil
}
