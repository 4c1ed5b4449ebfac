// Package config holds what the config store adapters share: typed
// access over a raw key lookup.
package config

import (
	"strconv"
	"strings"
	"time"
)

// Getters implements the typed half of driven.ConfigStore on top of a raw
// lookup. Stores embed it and supply their own Get.
//
// Values may arrive as decoded TOML (int64, float64, []any), as Go values
// set in code, or as strings from the environment, so every getter also
// parses strings.
type Getters struct {
	lookup func(key string) (any, bool)
}

// NewGetters wraps lookup.
func NewGetters(lookup func(key string) (any, bool)) Getters {
	return Getters{lookup: lookup}
}

func (g Getters) value(key string) any {
	if g.lookup == nil {
		return nil
	}
	v, _ := g.lookup(key)
	return v
}

// GetString returns "" for missing or non-string values.
func (g Getters) GetString(key string) string {
	s, _ := g.value(key).(string)
	return s
}

// GetInt truncates floats.
func (g Getters) GetInt(key string) int {
	switch v := g.value(key).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(v))
		return n
	default:
		return 0
	}
}

// GetFloat accepts integers.
func (g Getters) GetFloat(key string) float64 {
	switch v := g.value(key).(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	default:
		return 0
	}
}

// GetDuration reads "1m30s" strings; bare numbers are seconds.
func (g Getters) GetDuration(key string) time.Duration {
	switch v := g.value(key).(type) {
	case time.Duration:
		return v
	case int:
		return time.Duration(v) * time.Second
	case int64:
		return time.Duration(v) * time.Second
	case float64:
		return time.Duration(v * float64(time.Second))
	case string:
		v = strings.TrimSpace(v)
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		secs, _ := strconv.Atoi(v)
		return time.Duration(secs) * time.Second
	default:
		return 0
	}
}

// GetBool accepts the strings strconv.ParseBool does.
func (g Getters) GetBool(key string) bool {
	switch v := g.value(key).(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	default:
		return false
	}
}

// GetStringSlice skips non-string items. A string value is read as a
// comma separated list.
func (g Getters) GetStringSlice(key string) []string {
	switch v := g.value(key).(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	default:
		return nil
	}
}

// EnvKey maps a dotted key to its environment override:
// "search.namespace_timeout" becomes URBANLEX_SEARCH_NAMESPACE_TIMEOUT.
func EnvKey(key string) string {
	return "URBANLEX_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
}
