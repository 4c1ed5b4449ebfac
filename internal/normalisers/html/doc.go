// Package html provides a Normaliser for HTML documents. It strips
// tags, scripts, styles and navigation and decodes entities while
// keeping the line structure of the text.
package html
