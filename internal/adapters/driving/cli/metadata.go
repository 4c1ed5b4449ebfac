package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var metadataJSON bool

var metadataCmd = &cobra.Command{
	Use:   "metadata [file]",
	Short: "Classify a document and extract its legal metadata",
	Long: `Detects the document type, citation, issuing authority, legal status,
topics, territorial scope and quality of a legal text. Flags supply hints
that take precedence over what is detected.`,
	Args: cobra.ExactArgs(1),
	RunE: runMetadata,
}

func init() {
	addHintFlags(metadataCmd)
	metadataCmd.Flags().BoolVar(&metadataJSON, "json", false, "output the metadata as JSON")
	rootCmd.AddCommand(metadataCmd)
}

func runMetadata(cmd *cobra.Command, args []string) error {
	if metadataService == nil {
		return errors.New("metadata service not configured")
	}

	doc, err := loadDocument(cmd.Context(), args[0], docHints)
	if err != nil {
		return err
	}

	// Segmenting first gives the enricher the article structure.
	if chunkingService != nil {
		if _, err := chunkingService.ChunkDocument(cmd.Context(), doc); err != nil {
			return fmt.Errorf("chunking failed: %w", err)
		}
	}

	meta, err := metadataService.ExtractMetadata(cmd.Context(), doc, docHints)
	if err != nil {
		return fmt.Errorf("metadata extraction failed: %w", err)
	}

	if metadataJSON {
		return writeJSON(cmd.OutOrStdout(), meta)
	}
	renderMetadata(cmd.OutOrStdout(), meta)
	return nil
}
