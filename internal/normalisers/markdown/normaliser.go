// Package markdown provides a Normaliser for Markdown documents.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts a markdown document to plain text. Numbered list
// markers are kept because comma headings ("1. ") use the same shape.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	rawContent := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")
	title := extractMarkdownTitle(rawContent)
	if title == "" {
		title = normalisers.TitleFromURI(raw.URI)
	}

	return normalisers.NewDocument(raw, title, stripMarkdown(rawContent), "markdown"), nil
}

var (
	h1Heading     = regexp.MustCompile(`(?m)^#[ \t]+(.+?)[ \t]*#*[ \t]*$`)
	codeBlock     = regexp.MustCompile("(?s)```.*?```")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}[ \t]+(.*?)[ \t]*#*[ \t]*$`)
	strong        = regexp.MustCompile(`(\*\*|__)(\S(?:.*?\S)?)(\*\*|__)`)
	emphasis      = regexp.MustCompile(`(^|[\s(])[*_](\S(?:[^*_]*?\S)?)[*_]`)
	blockquote    = regexp.MustCompile(`(?m)^>[ \t]?`)
	horizontal    = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	bulletMarkers = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// extractMarkdownTitle returns the first H1 heading, if any.
func extractMarkdownTitle(content string) string {
	if m := h1Heading.FindStringSubmatch(content); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// stripMarkdown removes formatting and keeps the text lines.
func stripMarkdown(content string) string {
	content = codeBlock.ReplaceAllString(content, "")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "$1")
	content = horizontal.ReplaceAllString(content, "")
	content = strong.ReplaceAllString(content, "$2")
	content = emphasis.ReplaceAllString(content, "$1$2")
	content = blockquote.ReplaceAllString(content, "")
	content = bulletMarkers.ReplaceAllString(content, "")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = multiNewlines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(content)
}
