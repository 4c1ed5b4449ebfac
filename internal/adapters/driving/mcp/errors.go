// Package mcp provides an MCP (Model Context Protocol) server adapter for urbanlex.
// It lets AI assistants classify questions, query the legal and urban corpora
// and chunk documents through the same services as the CLI.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")

// ErrMissingClassifier is returned when the query classifier is not provided.
var ErrMissingClassifier = errors.New("mcp: query classifier is required")
