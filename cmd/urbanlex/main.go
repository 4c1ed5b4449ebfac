// Command urbanlex indexes Italian building and planning law and answers
// questions about it with cited sources.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/urbanlex/internal/adapters/driven/config/file"
	"github.com/custodia-labs/urbanlex/internal/adapters/driven/factory"
	"github.com/custodia-labs/urbanlex/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/urbanlex/internal/adapters/driving/cli"
	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/core/services"
	"github.com/custodia-labs/urbanlex/internal/logger"
	"github.com/custodia-labs/urbanlex/internal/metrics"
	"github.com/custodia-labs/urbanlex/internal/normalisers"
	"github.com/custodia-labs/urbanlex/internal/normalisers/html"
	"github.com/custodia-labs/urbanlex/internal/normalisers/markdown"
	"github.com/custodia-labs/urbanlex/internal/normalisers/plaintext"
	"github.com/custodia-labs/urbanlex/internal/postprocessors"
	"github.com/custodia-labs/urbanlex/internal/postprocessors/enricher"
)

// version is set at build time via ldflags.
var version = "dev"

const (
	// envConfigDir moves config.toml out of ~/.urbanlex. ":memory:" runs
	// on default settings without reading or writing a file.
	envConfigDir = "URBANLEX_CONFIG_DIR"
	// envMetricsAddr enables the prometheus endpoint, e.g. ":9464".
	envMetricsAddr = "URBANLEX_METRICS_ADDR"
	// envLogFormat set to "json" emits one JSON object per log line.
	envLogFormat = "URBANLEX_LOG_FORMAT"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal.
	_ = godotenv.Load()
	logger.SetJSON(os.Getenv(envLogFormat) == "json")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configStore, err := openConfig()
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	if addr := os.Getenv(envMetricsAddr); addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr, registry); err != nil {
				logger.Warn("metrics server stopped: %v", err)
			}
		}()
	}

	svcs := &cli.Services{
		Settings:          settingsService,
		ValidateEmbedding: validateEmbedding,
	}

	// Broken backend settings must not lock the user out of the
	// settings commands, so only the dependent services are skipped.
	backends, err := factory.Open(settings)
	if err != nil {
		logger.Warn("storage and embedding unavailable: %v", err)
		logger.Warn("run 'urbanlex settings' to review the configuration")
	} else {
		defer func() {
			if err := backends.Close(); err != nil {
				logger.Warn("closing backends: %v", err)
			}
		}()
		if err := wire(svcs, settings, backends, m); err != nil {
			return err
		}
	}

	cli.SetServices(svcs)
	cli.SetVersion(version)
	return cli.Execute(ctx)
}

// wire builds the engines and services on top of the opened backends.
func wire(svcs *cli.Services, settings *domain.Settings, b *factory.Backends, m *metrics.Metrics) error {
	procs := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(procs, m)
	cfgs := services.PipelineConfigs(settings)

	pipeline, err := procs.BuildPipeline(postprocessors.DefaultPipelineNames, cfgs)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}
	pipeline.WithMetrics(m)
	segmenter, err := procs.Build("segmenter", cfgs["segmenter"])
	if err != nil {
		return fmt.Errorf("building segmenter: %w", err)
	}
	chunker, err := procs.Build("chunker", cfgs["chunker"])
	if err != nil {
		return fmt.Errorf("building chunker: %w", err)
	}

	classifier, err := services.NewQueryClassifierFromSettings(settings.Classifier, m)
	if err != nil {
		return fmt.Errorf("building classifier: %w", err)
	}

	norms := normalisers.NewRegistry(plaintext.New(), html.New(), markdown.New())

	search := services.NewSearchService(b.Vectors, settings.Search, m)
	queryOpts := []services.QueryOption{services.WithQueryMetrics(m)}
	if b.Cache != nil {
		queryOpts = append(queryOpts, services.WithCache(b.Cache, settings.Cache.TTL))
	}

	svcs.Query = services.NewQueryService(classifier, b.Embedding, search, services.NewResponseComposer(), queryOpts...)
	svcs.Classifier = classifier
	svcs.Chunking = services.NewChunkingService(segmenter, chunker)
	svcs.Metadata = services.NewMetadataService(enricher.New())
	svcs.Ingest = services.NewIngestService(pipeline, b.Embedding, b.Vectors,
		services.WithDocumentStore(b.Documents),
		services.WithNormalisers(norms),
		services.WithDocumentDelay(settings.Ingest.DocumentDelay),
		services.WithRetries(settings.Embedding.MaxRetries, 0),
		services.WithIngestMetrics(m),
	)
	svcs.Documents = b.Documents
	svcs.Normaliser = norms
	return nil
}

func openConfig() (driven.ConfigStore, error) {
	dir := os.Getenv(envConfigDir)
	if dir == ":memory:" {
		return memory.NewConfigStore(), nil
	}
	return file.NewConfigStore(dir)
}

// validateEmbedding probes the provider the settings wizard just saved.
func validateEmbedding(ctx context.Context, cfg *domain.EmbeddingSettings) error {
	svc, err := factory.CreateAndValidateEmbeddingService(ctx, cfg)
	if err != nil {
		return err
	}
	return svc.Close()
}
