// Package plaintext provides the fallback Normaliser for plain text.
package plaintext

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// maxHeadingTitle is the longest first line used as a title.
const maxHeadingTitle = 150

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain", "text/csv"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise converts a raw document to a document. Line endings are
// unified and trailing spaces removed; line structure is kept.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := cleanText(string(raw.Content))
	return normalisers.NewDocument(raw, extractTitle(raw, content), content, "text"), nil
}

// extractTitle prefers a "title" metadata value, then a short first
// line such as "LEGGE 7 agosto 1990, n. 241", then the file name.
func extractTitle(raw *domain.RawDocument, content string) string {
	if title, ok := raw.Metadata["title"].(string); ok && title != "" {
		return title
	}
	first, _, _ := strings.Cut(content, "\n")
	if first = strings.TrimSpace(first); first != "" && utf8.RuneCountInString(first) <= maxHeadingTitle {
		return first
	}
	return normalisers.TitleFromURI(raw.URI)
}

func cleanText(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
