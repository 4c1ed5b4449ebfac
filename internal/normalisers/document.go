package normalisers

import (
	"maps"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// documentNamespace seeds name-based document IDs.
var documentNamespace = uuid.MustParse("6f1c1d2e-53a4-4b39-9a57-3c1e2b7d8a10")

var (
	slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)
	yearOnly   = regexp.MustCompile(`(?:19|20)\d{2}`)
)

// DocumentID returns a stable identifier for raw. Acts with a known
// type and number get a readable slug such as "dpr-380-2001"; anything
// else gets a name-based UUID of its URI, or of its content when the
// URI is empty. Re-ingesting the same source yields the same ID.
func DocumentID(raw *domain.RawDocument) string {
	h := raw.Hints
	if h.Type != "" && h.Number != "" {
		parts := []string{h.Type, h.Number}
		if year := yearOnly.FindString(h.Date); year != "" && !strings.Contains(h.Number, year) {
			parts = append(parts, year)
		}
		return strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(strings.Join(parts, "-")), "-"), "-")
	}
	name := []byte(raw.URI)
	if raw.URI == "" {
		name = raw.Content
	}
	return uuid.NewSHA1(documentNamespace, name).String()
}

// TitleFromURI derives a readable title from a file name.
func TitleFromURI(uri string) string {
	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}

// NewDocument builds the normalised document shared by every format.
// A title hint overrides the extracted title; other hints fill the
// corresponding fields.
func NewDocument(raw *domain.RawDocument, title, content, format string) *domain.Document {
	now := time.Now()
	doc := &domain.Document{
		ID:        DocumentID(raw),
		URI:       raw.URI,
		Title:     title,
		Content:   content,
		Metadata:  make(map[string]any, len(raw.Metadata)+2),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if raw.Hints.Title != "" {
		doc.Title = raw.Hints.Title
	}
	doc.ApplyHints(raw.Hints)

	maps.Copy(doc.Metadata, raw.Metadata)
	doc.Metadata["mime_type"] = raw.MIMEType
	doc.Metadata["format"] = format
	return doc
}
