package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/urbanlex/internal/adapters/driving/mcp"
	"github.com/custodia-labs/urbanlex/internal/logger"
)

var mcpHTTPAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the corpora to MCP clients",
	Long: `Serve urbanlex to AI assistants over the Model Context Protocol.

JSON-RPC runs over stdio unless --http is given, in which case the
streamable HTTP transport listens on that address. Logs go to stderr.

Tools:     ask, classify_query, chunk_document, extract_metadata
Resources: urbanlex://strategies, urbanlex://documents,
           urbanlex://documents/{documentId}

Claude Desktop and similar clients:
  {
    "mcpServers": {
      "urbanlex": {"command": "urbanlex", "args": ["mcp", "serve"]}
    }
  }

MCP Inspector or remote clients:
  urbanlex mcp serve --http localhost:8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if queryService == nil || classifier == nil {
		return errors.New("query service not configured")
	}

	ports := &mcp.Ports{
		Query:      queryService,
		Classifier: classifier,
		Chunking:   chunkingService,
		Metadata:   metadataService,
	}
	if documentReader != nil {
		ports.Documents = documentReader
	}

	server, err := mcp.NewServer(ports, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)

	if mcpHTTPAddr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://%s\n", mcpHTTPAddr)
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}
	return server.Run(cmd.Context())
}
