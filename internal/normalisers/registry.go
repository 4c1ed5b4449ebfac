package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// fallbackPriority is the ceiling for fallback normalisers, which may
// handle any text/* type they do not list explicitly.
const fallbackPriority = 9

// Registry dispatches raw documents to the highest-priority normaliser
// supporting their MIME type.
type Registry struct {
	mu          sync.RWMutex
	normalisers []driven.Normaliser
}

// NewRegistry creates a registry with the given normalisers.
func NewRegistry(normalisers ...driven.Normaliser) *Registry {
	r := &Registry{}
	for _, n := range normalisers {
		r.Register(n)
	}
	return r
}

// Register adds a normaliser, keeping the list ordered by priority.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers = append(r.normalisers, n)
	sort.SliceStable(r.normalisers, func(i, j int) bool {
		return r.normalisers[i].Priority() > r.normalisers[j].Priority()
	})
}

// SupportedMIMETypes returns every MIME type handled, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, n := range r.normalisers {
		for _, m := range n.SupportedMIMETypes() {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Normalise transforms raw with the best matching normaliser.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	n := r.lookup(baseMIME(raw.MIMEType))
	if n == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, raw.MIMEType)
	}
	return n.Normalise(ctx, raw)
}

func (r *Registry) lookup(mimeType string) driven.Normaliser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, n := range r.normalisers {
		for _, m := range n.SupportedMIMETypes() {
			if m == mimeType {
				return n
			}
		}
	}
	if strings.HasPrefix(mimeType, "text/") {
		for _, n := range r.normalisers {
			if n.Priority() <= fallbackPriority {
				return n
			}
		}
	}
	return nil
}

func baseMIME(m string) string {
	if mediaType, _, err := mime.ParseMediaType(m); err == nil {
		return mediaType
	}
	return strings.ToLower(strings.TrimSpace(m))
}

var extensionTypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".htm":      "text/html",
	".html":     "text/html",
	".xhtml":    "application/xhtml+xml",
}

// MIMEForPath guesses the MIME type of a file from its extension.
func MIMEForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if m, ok := extensionTypes[ext]; ok {
		return m
	}
	if m := mime.TypeByExtension(ext); m != "" {
		return baseMIME(m)
	}
	return "text/plain"
}
