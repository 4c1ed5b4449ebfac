package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driving"
)

type mockQueryService struct {
	response  *domain.Response
	err       error
	lastQuery string
	lastOpts  domain.AskOptions
}

func (m *mockQueryService) Ask(_ context.Context, query string, opts domain.AskOptions) (*domain.Response, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	resp := *m.response
	resp.Query = query
	return &resp, nil
}

type mockClassifier struct{}

func (m *mockClassifier) Classify(query string) domain.QueryClassification {
	return domain.QueryClassification{
		Query:      query,
		Normalized: strings.ToLower(query),
		Strategy:   domain.StrategyLegalUrban,
		Namespaces: []domain.Namespace{domain.NamespaceNational, domain.NamespaceUrban},
		Weights: domain.NamespaceWeights{
			domain.NamespaceNational: 0.6,
			domain.NamespaceUrban:    0.4,
		},
		NeedsLegalDisclaimer: true,
		Confidence:           0.8,
		Scores:               domain.CategoryScores{Legal: 0.4, Urban: 0.2},
		Matches:              domain.CategoryMatches{Legal: 2, Urban: 1},
	}
}

type mockChunkingService struct {
	err     error
	lastDoc *domain.Document
}

func (m *mockChunkingService) ChunkDocument(_ context.Context, doc *domain.Document) (*domain.ChunkingResult, error) {
	m.lastDoc = doc
	if m.err != nil {
		return nil, m.err
	}
	if strings.TrimSpace(doc.Content) == "" {
		return &domain.ChunkingResult{DocumentID: doc.ID, Strategy: domain.ChunkingSeparatorBased}, nil
	}
	doc.Articles = []domain.Article{{Number: "1", Text: doc.Content}}
	return &domain.ChunkingResult{
		DocumentID: doc.ID,
		Strategy:   domain.ChunkingLegalStructure,
		Chunks: []domain.Chunk{{
			ID:         doc.ID + "_0",
			DocumentID: doc.ID,
			Content:    doc.Content,
			TokenCount: 12,
			Type:       domain.ChunkTypeCompleteArticle,
			Quality:    90,
			Hierarchy:  domain.Hierarchy{Document: doc.Title, Article: "1"},
			References: []string{"art. 3 del D.P.R. 380/2001"},
		}},
		Stats: domain.ChunkingStats{
			TotalChunks:   1,
			TotalTokens:   12,
			AverageTokens: 12,
			MinTokens:     12,
			MaxTokens:     12,
			ByType:        map[domain.ChunkType]int{domain.ChunkTypeCompleteArticle: 1},
		},
	}, nil
}

type mockMetadataService struct {
	lastHints    domain.DocumentConfig
	lastArticles int
}

func (m *mockMetadataService) ExtractMetadata(_ context.Context, doc *domain.Document, hints domain.DocumentConfig) (*domain.EnrichedMetadata, error) {
	m.lastHints = hints
	m.lastArticles = len(doc.Articles)
	meta := &domain.EnrichedMetadata{Confidence: 70}
	meta.Classification.Type = domain.DocumentType("legge")
	meta.Classification.Confidence = 90
	meta.Classification.Citation = "L. 10/1977"
	meta.Scope.Level = domain.ScopeLevel("national")
	meta.Topics.Primary = []domain.TopicScore{{Topic: "edilizia", Score: 3}}
	return meta, nil
}

type mockIngestService struct {
	batches  [][]*domain.Document
	reports  []driving.IngestReport
	failAll  bool
	removed  []string
	reset    []domain.Namespace
	applyErr error
}

func (m *mockIngestService) Ingest(ctx context.Context, doc *domain.Document) (*driving.IngestReport, error) {
	reports, err := m.IngestBatch(ctx, []*domain.Document{doc})
	if err != nil {
		return nil, err
	}
	return &reports[0], nil
}

func (m *mockIngestService) IngestBatch(_ context.Context, docs []*domain.Document) ([]driving.IngestReport, error) {
	m.batches = append(m.batches, docs)
	reports := make([]driving.IngestReport, len(docs))
	for i, doc := range docs {
		reports[i] = driving.IngestReport{
			DocumentID: doc.ID,
			Namespace:  domain.NamespaceUrban,
			Chunks:     2,
			Citation:   doc.Title,
			RunID:      "run-1",
		}
		if m.failAll {
			reports[i].Err = errors.New("embedding failed")
		}
	}
	m.reports = reports
	return reports, nil
}

func (m *mockIngestService) IngestRaw(ctx context.Context, raw *domain.RawDocument) (*driving.IngestReport, error) {
	return m.Ingest(ctx, &domain.Document{ID: raw.URI, URI: raw.URI, Content: string(raw.Content)})
}

func (m *mockIngestService) Remove(_ context.Context, uri string) error {
	m.removed = append(m.removed, uri)
	return nil
}

func (m *mockIngestService) ApplyChanges(_ context.Context, _ <-chan domain.RawDocumentChange) (driving.ChangeSummary, error) {
	return driving.ChangeSummary{Indexed: 1}, m.applyErr
}

func (m *mockIngestService) Reset(_ context.Context, ns domain.Namespace) error {
	if !ns.IsValid() {
		return domain.ErrInvalidInput
	}
	m.reset = append(m.reset, ns)
	return nil
}

type mockSettingsService struct {
	settings domain.Settings
	values   map[string]any
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings: domain.DefaultSettings(),
		values:   make(map[string]any),
	}
}

func (m *mockSettingsService) Get() (*domain.Settings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Set(key string, value any) error {
	if !strings.Contains(key, ".") {
		return domain.ErrInvalidInput
	}
	m.values[key] = value
	switch key {
	case "embedding.provider":
		m.settings.Embedding.Provider = domain.EmbeddingProvider(value.(string))
	case "embedding.model":
		m.settings.Embedding.Model = value.(string)
	case "embedding.api_key":
		m.settings.Embedding.APIKey = value.(string)
	}
	return nil
}

func (m *mockSettingsService) Path() string {
	return "/tmp/urbanlex/config.toml"
}

type mockDocumentReader struct {
	docs []domain.Document
	err  error
}

func (m *mockDocumentReader) ListDocuments(_ context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockDocumentReader) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// Test fixtures, reset by setupTestServices.
var (
	testQuery     *mockQueryService
	testChunking  *mockChunkingService
	testMetadata  *mockMetadataService
	testIngest    *mockIngestService
	testSettings  *mockSettingsService
	testDocuments *mockDocumentReader
)

// setupTestServices installs mocks for every service and returns a
// cleanup that restores an unconfigured CLI with default flag values.
func setupTestServices() func() {
	testQuery = &mockQueryService{response: &domain.Response{
		ID:         "resp-1",
		Answer:     "Serve il permesso di costruire.",
		Confidence: 0.82,
		Strategy:   domain.StrategyLegalUrban,
		Sources: []domain.Source{{
			ID:         "dpr380_art10_0",
			Citation:   "D.P.R. 380/2001, art. 10",
			Title:      "Testo unico edilizia",
			Excerpt:    "Costituiscono interventi di trasformazione urbanistica ed edilizia...",
			Score:      0.91,
			SourceType: domain.SourceLegal,
			Namespace:  domain.NamespaceNational,
		}},
		LegalDisclaimer: "Le informazioni hanno carattere generale.",
		FollowUp:        []string{"Quali sono i tempi di rilascio?"},
	}}
	testChunking = &mockChunkingService{}
	testMetadata = &mockMetadataService{}
	testIngest = &mockIngestService{}
	testSettings = newMockSettingsService()
	testDocuments = &mockDocumentReader{docs: []domain.Document{{
		ID:       "dpr380",
		Title:    "Testo unico edilizia",
		URI:      "/corpus/dpr380.txt",
		Type:     "dpr",
		Number:   "380",
		Content:  "Art. 1 Ambito di applicazione",
		Metadata: map[string]any{domain.MetaCitation: "D.P.R. 380/2001"},
	}}}

	SetServices(&Services{
		Ingest:     testIngest,
		Query:      testQuery,
		Classifier: &mockClassifier{},
		Chunking:   testChunking,
		Metadata:   testMetadata,
		Settings:   testSettings,
		Documents:  testDocuments,
	})

	return func() {
		SetServices(&Services{})
		resetFlags()
	}
}

// resetFlags restores flag variables, which outlive a single Execute.
func resetFlags() {
	askTopK, askThreshold, askNoCache, askJSON = 0, 0, false, false
	searchLimit, searchThreshold, searchJSON = 10, 0, false
	classifyJSON = false
	chunkShowContent, chunkJSON = false, false
	metadataJSON = false
	documentsContent = false
	ingestWatch = false
	docHints = domain.DocumentConfig{}
	verbose = false
	versionShort = false
	mcpHTTPAddr = ""
	resetChanged(rootCmd)
	rootCmd.SetArgs(nil)
	rootCmd.SetIn(nil)
}

func resetChanged(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) { f.Changed = false })
	for _, c := range cmd.Commands() {
		resetChanged(c)
	}
}
