package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/urbanlex/internal/logger"
)

// defaultVersion is reported when no build version is supplied.
const defaultVersion = "dev"

// instructions is sent to clients on initialise.
const instructions = `urbanlex answers questions on Italian building and urban planning law.
Use "ask" for questions in Italian; answers cite laws by article and comma
and carry a legal disclaimer that must be shown to the user.
Use "classify_query" to see which corpora a question targets, and the
documents resources to read the full text of a cited act.`

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported to clients.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// Server exposes the query, classification and chunking services as
// MCP tools and the stored documents as resources.
type Server struct {
	ports   *Ports
	version string
	server  *mcp.Server
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports, version: defaultVersion}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(
		&mcp.Implementation{Name: "urbanlex", Version: s.version},
		&mcp.ServerOptions{Instructions: instructions},
	)
	s.registerTools()
	s.registerResources()

	return s, nil
}

// Version returns the version reported to clients.
func (s *Server) Version() string {
	return s.version
}

// Run serves JSON-RPC over stdio until ctx is done or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("mcp: serving on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is done.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp: shutdown: %v", err)
		}
	}()

	logger.Info("mcp: listening on %s", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	return nil
}
