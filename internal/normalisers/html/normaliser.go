package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driven"
	"github.com/custodia-labs/urbanlex/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents such as acts published online.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts an HTML document to text. Block elements become
// line breaks and paragraphs are separated by a blank line, so article
// and comma headings start their own lines.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	rawContent := string(raw.Content)
	title := extractHTMLTitle(rawContent)
	if title == "" {
		title = normalisers.TitleFromURI(raw.URI)
	}

	return normalisers.NewDocument(raw, title, stripHTML(rawContent), "html"), nil
}

var (
	titleTag       = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	htmlComments   = regexp.MustCompile(`(?s)<!--.*?-->`)
	paragraphEnds  = regexp.MustCompile(`(?i)</(p|h[1-6]|blockquote|pre|table|section|article)>`)
	lineBreaks     = regexp.MustCompile(`(?i)</(div|li|tr|dd|dt|td|th)>|<br\s*/?>|<hr\s*/?>`)
	openBlockTags  = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|dd|dt|blockquote|pre|table|section|article)(\s[^>]*)?>`)
	allTags        = regexp.MustCompile(`<[^>]+>`)
	multiSpaces    = regexp.MustCompile(`[ \t\x{00A0}]+`)
	multiBlankLine = regexp.MustCompile(`\n{3,}`)
)

// droppedElements are removed with their content.
var droppedElements = func() []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, tag := range []string{"script", "style", "noscript", "head", "svg", "nav", "footer"} {
		out = append(out, regexp.MustCompile(`(?is)<`+tag+`(\s[^>]*)?>.*?</`+tag+`>`))
	}
	return out
}()

func extractHTMLTitle(content string) string {
	m := titleTag.FindStringSubmatch(content)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(m[1]))
}

// stripHTML removes markup and returns readable text.
func stripHTML(content string) string {
	for _, re := range droppedElements {
		content = re.ReplaceAllString(content, "")
	}
	content = htmlComments.ReplaceAllString(content, "")

	content = openBlockTags.ReplaceAllString(content, "\n")
	content = paragraphEnds.ReplaceAllString(content, "\n\n")
	content = lineBreaks.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	content = multiBlankLine.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(content)
}
