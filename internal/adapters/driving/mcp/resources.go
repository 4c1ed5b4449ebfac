package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for urbanlex resources.
	uriScheme = "urbanlex://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "strategies",
		Name:        "strategies",
		Description: "Retrieval strategies and the namespace weights each one uses",
		MIMEType:    "application/json",
	}, s.handleStrategiesResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "List of all ingested documents",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document-content",
		Description: "Full text of an ingested document",
		MIMEType:    "text/plain",
	}, s.handleDocumentContentResource)
}

// handleStrategiesResource returns the built-in routing table.
func (s *Server) handleStrategiesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type strategyInfo struct {
		Strategy             string             `json:"strategy"`
		Weights              map[string]float64 `json:"weights"`
		NeedsLegalDisclaimer bool               `json:"needs_legal_disclaimer"`
	}

	table := domain.DefaultStrategyTable()
	infos := make([]strategyInfo, 0, len(table))
	for _, strategy := range domain.Strategies() {
		weights := make(map[string]float64, len(table[strategy]))
		for ns, w := range table[strategy] {
			weights[string(ns)] = w
		}
		infos = append(infos, strategyInfo{
			Strategy:             string(strategy),
			Weights:              weights,
			NeedsLegalDisclaimer: strategy.NeedsLegalDisclaimer(),
		})
	}

	return jsonResult(req.Params.URI, infos)
}

// handleDocumentsResource returns all stored documents.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	docs, err := s.ports.Documents.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	type docInfo struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Type     string `json:"type,omitempty"`
		Number   string `json:"number,omitempty"`
		Date     string `json:"date,omitempty"`
		URI      string `json:"uri,omitempty"`
		Articles int    `json:"articles"`
	}

	infos := make([]docInfo, len(docs))
	for i := range docs {
		docType := domain.MetaString(docs[i].Metadata, domain.MetaDocumentType)
		if docType == "" {
			docType = docs[i].Type
		}
		infos[i] = docInfo{
			ID:       docs[i].ID,
			Title:    docs[i].Title,
			Type:     docType,
			Number:   docs[i].Number,
			Date:     docs[i].Date,
			URI:      docs[i].URI,
			Articles: len(docs[i].Articles),
		}
	}

	return jsonResult(req.Params.URI, infos)
}

// handleDocumentContentResource returns the content of a specific document.
func (s *Server) handleDocumentContentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// urbanlex://documents/{documentId}
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	doc, err := s.ports.Documents.GetDocument(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     doc.Content,
		}},
	}, nil
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like urbanlex://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
