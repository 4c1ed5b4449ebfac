package postprocessors

import (
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/metrics"
	"github.com/custodia-labs/urbanlex/internal/postprocessors/chunker"
	"github.com/custodia-labs/urbanlex/internal/postprocessors/enricher"
	"github.com/custodia-labs/urbanlex/internal/postprocessors/segmenter"
)

// DefaultPipelineNames is the standard processing order.
var DefaultPipelineNames = []string{"segmenter", "chunker", "enricher"}

// RegisterDefaults registers all built-in processors with the registry.
// m may be nil.
func RegisterDefaults(r *Registry, m *metrics.Metrics) {
	r.Register("segmenter", StageSegment, func(map[string]any) (driven.PostProcessor, error) {
		return segmenter.New(), nil
	})
	r.Register("chunker", StageChunk, func(cfg map[string]any) (driven.PostProcessor, error) {
		return buildChunker(cfg, m)
	})
	r.Register("enricher", StageEnrich, func(map[string]any) (driven.PostProcessor, error) {
		return enricher.New(), nil
	})
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - min_tokens (int): Minimum target chunk size (default: 800)
//   - max_tokens (int): Maximum chunk size (default: 1500)
//   - overlap_tokens (int): Context copied from the previous chunk (default: 100)
//   - chars_per_token (float): Token estimate ratio (default: 4)
func buildChunker(cfg map[string]any, m *metrics.Metrics) (driven.PostProcessor, error) {
	c := chunker.DefaultConfig()

	if cfg != nil {
		if v := getIntFromConfig(cfg, "min_tokens"); v > 0 {
			c.MinChunkTokens = v
		}
		if v := getIntFromConfig(cfg, "max_tokens"); v > 0 {
			c.MaxChunkTokens = v
		}
		if _, ok := cfg["overlap_tokens"]; ok {
			c.OverlapTokens = getIntFromConfig(cfg, "overlap_tokens")
		}
		if v := getFloatFromConfig(cfg, "chars_per_token"); v > 0 {
			c.CharsPerToken = v
		}
	}

	return chunker.New(c, chunker.WithMetrics(m))
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// getFloatFromConfig is getIntFromConfig for float settings.
func getFloatFromConfig(cfg map[string]any, key string) float64 {
	switch v := cfg[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
