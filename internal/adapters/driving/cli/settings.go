package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// defaultEmbeddingModels are offered by the embedding wizard.
var defaultEmbeddingModels = map[domain.EmbeddingProvider]string{
	domain.EmbeddingProviderOpenAI:  "text-embedding-3-small",
	domain.EmbeddingProviderOllama:  "nomic-embed-text",
	domain.EmbeddingProviderHashing: "",
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding provider, chunk sizes, classifier
thresholds, search ranking, cache and storage.

Settings are stored in a TOML file; OPENAI_API_KEY and URBANLEX_REDIS_ADDR
override the file when set.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting by its dotted key, for example:

  urbanlex settings set search.top_k 20
  urbanlex settings set cache.backend redis
  urbanlex settings set search.namespace_timeout 10s`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		cmd.Println(settingsService.Path())
		return nil
	},
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Interactively choose the embedding provider, model and API key, then check the provider responds.`,
	RunE:  runSettingsEmbedding,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsPathCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	if settings.Embedding.Provider != domain.EmbeddingProviderHashing {
		cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	}
	if settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	status := "configured"
	if !settings.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Chunker]")
	cmd.Printf("  Tokens: %d-%d, overlap %d\n", settings.Chunker.MinTokens, settings.Chunker.MaxTokens, settings.Chunker.OverlapTokens)
	cmd.Printf("  Characters per token: %.1f\n", settings.Chunker.CharsPerToken)
	cmd.Println()

	cmd.Println("[Classifier]")
	cmd.Printf("  Legal threshold: %.2f\n", settings.Classifier.LegalThreshold)
	cmd.Printf("  Regional threshold: %.2f\n", settings.Classifier.RegionalThreshold)
	if settings.Classifier.RulesFile != "" {
		cmd.Printf("  Rules file: %s\n", settings.Classifier.RulesFile)
	}
	cmd.Println()

	cmd.Println("[Search]")
	cmd.Printf("  Top K: %d (max %d, %d candidates per corpus)\n", settings.Search.TopK, settings.Search.MaxTopK, settings.Search.MaxCandidates)
	cmd.Printf("  Threshold: %s\n", ratio(settings.Search.Threshold))
	cmd.Printf("  Boosts: legal %s, diversity %s\n", ratio(settings.Search.LegalBoost), ratio(settings.Search.DiversityBoost))
	cmd.Printf("  Timeouts: %s per corpus, %s total\n", settings.Search.NamespaceTimeout, settings.Search.GlobalTimeout)
	cmd.Println()

	cmd.Println("[Ingest]")
	cmd.Printf("  Document delay: %s\n", settings.Ingest.DocumentDelay)
	cmd.Println()

	cmd.Println("[Cache]")
	cmd.Printf("  Backend: %s\n", settings.Cache.Backend)
	if settings.Cache.Backend != domain.CacheBackendNone {
		cmd.Printf("  TTL: %s\n", settings.Cache.TTL)
	}
	if settings.Cache.Backend == domain.CacheBackendRedis {
		cmd.Printf("  Redis: %s db %d\n", valueOr(settings.Cache.RedisAddr, "localhost:6379"), settings.Cache.RedisDB)
	}
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Backend: %s\n", settings.Store.Backend)
	if settings.Store.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Store.DataDir)
	}
	cmd.Println()

	cmd.Printf("Config file: %s\n", settingsService.Path())
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], parseValue(args[1])
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s = %v\n", key, value)
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Select Embedding Provider")
	providers := []domain.EmbeddingProvider{
		domain.EmbeddingProviderHashing,
		domain.EmbeddingProviderOllama,
		domain.EmbeddingProviderOpenAI,
	}
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	provider := providers[parseChoice(readLine(reader), len(providers), 1)-1]

	values := [][2]any{{"embedding.provider", string(provider)}}

	if provider != domain.EmbeddingProviderHashing {
		defaultModel := defaultEmbeddingModels[provider]
		cmd.Printf("Enter model name [%s]: ", defaultModel)
		values = append(values, [2]any{"embedding.model", valueOr(readLine(reader), defaultModel)})
	}

	if provider == domain.EmbeddingProviderOllama {
		cmd.Print("Enter base URL [http://localhost:11434]: ")
		if url := readLine(reader); url != "" {
			values = append(values, [2]any{"embedding.base_url", url})
		}
	}

	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key (empty to use OPENAI_API_KEY): ")
		apiKey := readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" && os.Getenv("OPENAI_API_KEY") == "" {
			return errors.New("API key is required for this provider")
		}
		if apiKey != "" {
			values = append(values, [2]any{"embedding.api_key", apiKey})
		}
	}

	for _, kv := range values {
		if err := settingsService.Set(kv[0].(string), kv[1]); err != nil {
			return fmt.Errorf("failed to configure embedding provider: %w", err)
		}
	}

	if embeddingValidator != nil {
		settings, err := settingsService.Get()
		if err != nil {
			return fmt.Errorf("failed to get settings: %w", err)
		}
		cmd.Print("Validating configuration... ")
		if err := embeddingValidator(cmd.Context(), &settings.Embedding); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			return fmt.Errorf("embedding configuration validation failed: %w", err)
		}
		cmd.Println("OK")
	}

	cmd.Printf("Embedding provider configured: %s\n", provider.Description())
	cmd.Println("Existing corpora must be re-ingested when the provider or model changes.")
	return nil
}

// Helper functions.

// parseValue keeps numbers and booleans typed in the TOML file.
func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

func ratio(v float64) string {
	if v < 0 {
		return "off"
	}
	return fmt.Sprintf("%.2f", v)
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
