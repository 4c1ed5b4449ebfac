// Package domain holds the urbanlex vocabulary: acts and their
// articles and commi, chunks, enriched metadata, query classifications,
// merged search results and cited responses.
//
// It imports only the standard library. Every other package may import
// domain; domain imports none of them.
package domain
