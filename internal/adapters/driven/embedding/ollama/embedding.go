// Package ollama embeds text with a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 768
	// DefaultBatchSize bounds the texts sent in one /api/embed call. Long
	// article chunks make large batches slow enough to hit the timeout.
	DefaultBatchSize = 32
)

// ErrModelNotPulled is returned by Ping when the server is up but the
// model has not been pulled.
var ErrModelNotPulled = errors.New("model not pulled")

// Config holds the Ollama connection settings. Zero values select the
// defaults above.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int
	BatchSize  int
}

// EmbeddingService calls the Ollama /api/embed endpoint.
type EmbeddingService struct {
	client     *http.Client
	baseURL    string
	model      string
	dimensions int
	batchSize  int
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewEmbeddingService creates an Ollama embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	return &EmbeddingService{
		client:     &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  cfg.BatchSize,
	}
}

// Embed embeds a single text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in order, batchSize texts per request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		vecs, err := s.embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Model: s.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("ollama: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("ollama: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("ollama: decode response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("ollama: %s", decoded.Error)
	}
	if len(decoded.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama: got %d embeddings for %d texts", len(decoded.Embeddings), len(texts))
	}
	return decoded.Embeddings, nil
}

// Dimensions returns the configured vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the model in use.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping lists the local models and checks that the configured one is
// present, without running inference.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: ping: status %d", resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("ollama: decode tags: %w", err)
	}
	for _, m := range tags.Models {
		if sameModel(m.Name, s.model) {
			return nil
		}
	}
	return fmt.Errorf("ollama: %w: %s (run 'ollama pull %s')", ErrModelNotPulled, s.model, s.model)
}

// sameModel compares model names, treating a missing tag as ":latest".
func sameModel(a, b string) bool {
	withTag := func(name string) string {
		if strings.Contains(name, ":") {
			return name
		}
		return name + ":latest"
	}
	return withTag(a) == withTag(b)
}

// Close is a no-op; the HTTP client holds no dedicated resources.
func (s *EmbeddingService) Close() error {
	return nil
}
