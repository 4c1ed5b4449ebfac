package domain

import "time"

// Document represents a legal or urban-planning text ready for chunking.
// It is the canonical representation after normalisation and is treated
// as immutable once chunked.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Title is the human-readable title.
	Title string

	// Type is the declared document type (legge, decreto, sentenza...).
	// It is a hint; the enricher classifies the text independently.
	Type string

	// Number is the official act number (e.g. "380" or "12/2005").
	Number string

	// Date is the enactment or publication date as written in the source.
	Date string

	// Authority is the issuing body, when known.
	Authority string

	// Source names the origin of the document (gazette, bulletin, site).
	Source string

	// URI is the original location (file path, URL, etc).
	URI string

	// Content is the full text content after normalisation.
	// This is the complete document text before chunking.
	Content string

	// Preamble is the text preceding the first article, if any.
	// Populated by the segmenter.
	Preamble string

	// Articles is the ordered article structure detected in Content.
	// Empty for documents without legal structure.
	Articles []Article

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// Article is a numbered article of a legal act.
type Article struct {
	// Number may carry a latin suffix, e.g. "5-bis".
	Number string

	// Title is the rubric of the article, empty when absent.
	Title string

	// Text is the full article text including its heading.
	Text string

	// Commas are the numbered sub-paragraphs of the article.
	Commas []Comma
}

// Comma is a numbered sub-paragraph of an Article.
type Comma struct {
	Number string
	Text   string
}

// DocumentConfig carries externally supplied hints about a document.
// Fields left empty are inferred from the text where possible.
type DocumentConfig struct {
	Title     string
	Number    string
	Type      string
	Source    string
	Date      string
	Authority string
}

// ApplyHints fills empty document fields from the supplied hints.
func (d *Document) ApplyHints(hints DocumentConfig) {
	if d.Title == "" {
		d.Title = hints.Title
	}
	if d.Number == "" {
		d.Number = hints.Number
	}
	if d.Type == "" {
		d.Type = hints.Type
	}
	if d.Source == "" {
		d.Source = hints.Source
	}
	if d.Date == "" {
		d.Date = hints.Date
	}
	if d.Authority == "" {
		d.Authority = hints.Authority
	}
}

// Hints returns the document's own fields as a DocumentConfig.
func (d *Document) Hints() DocumentConfig {
	return DocumentConfig{
		Title:     d.Title,
		Number:    d.Number,
		Type:      d.Type,
		Source:    d.Source,
		Date:      d.Date,
		Authority: d.Authority,
	}
}

// HasStructure reports whether articles were detected.
func (d *Document) HasStructure() bool {
	return len(d.Articles) > 0
}
