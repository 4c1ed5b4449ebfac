// Package normalisers turns raw files into documents. Each
// sub-package extracts text from one format; this package holds the
// registry that dispatches on MIME type and the helpers they share.
//
// Normalisers must preserve line structure: article and comma headings
// are recognised at line starts.
package normalisers
