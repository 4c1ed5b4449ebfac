// Package cli provides the urbanlex command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driving"
	"github.com/custodia-labs/urbanlex/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// DocumentReader lists and loads stored documents.
type DocumentReader interface {
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
}

// Normaliser converts raw file bytes into a document.
type Normaliser interface {
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// Services holds the driving ports the commands call into.
type Services struct {
	Ingest     driving.IngestService
	Query      driving.QueryService
	Classifier driving.QueryClassifier
	Chunking   driving.ChunkingService
	Metadata   driving.MetadataService
	Settings   driving.SettingsService
	Documents  DocumentReader
	Normaliser Normaliser

	// ValidateEmbedding checks a provider responds before the settings
	// wizard reports success. Optional.
	ValidateEmbedding func(ctx context.Context, cfg *domain.EmbeddingSettings) error
}

// Package-level service references, injected by main via SetServices.
var (
	ingestService   driving.IngestService
	queryService    driving.QueryService
	classifier      driving.QueryClassifier
	chunkingService driving.ChunkingService
	metadataService driving.MetadataService
	settingsService driving.SettingsService
	documentReader  DocumentReader
	normaliser      Normaliser

	embeddingValidator func(ctx context.Context, cfg *domain.EmbeddingSettings) error
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "urbanlex",
	Short: "Italian building and planning law, searchable",
	Long: `urbanlex indexes Italian laws, decrees, regional acts and municipal
regulations, and answers questions about building and urban planning
with cited sources.

Documents are split along their legal structure (articles and commas),
classified, embedded and stored in three corpora: national law,
regional law and general urban planning material.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug output")
}

// SetServices injects the services used by the commands.
func SetServices(s *Services) {
	ingestService = s.Ingest
	queryService = s.Query
	classifier = s.Classifier
	chunkingService = s.Chunking
	metadataService = s.Metadata
	settingsService = s.Settings
	documentReader = s.Documents
	normaliser = s.Normaliser
	embeddingValidator = s.ValidateEmbedding
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
