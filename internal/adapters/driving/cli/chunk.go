package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	chunkShowContent bool
	chunkJSON        bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Split a document into chunks without indexing it",
	Long: `Segments a legal text into articles and commas and prints the chunks the
indexer would store, with their hierarchy, token counts and quality.
Texts without legal structure are split on paragraph and sentence
boundaries.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	addHintFlags(chunkCmd)
	chunkCmd.Flags().BoolVarP(&chunkShowContent, "content", "c", false, "print chunk text")
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "output the chunking result as JSON")
	rootCmd.AddCommand(chunkCmd)
}

func runChunk(cmd *cobra.Command, args []string) error {
	if chunkingService == nil {
		return errors.New("chunking service not configured")
	}

	doc, err := loadDocument(cmd.Context(), args[0], docHints)
	if err != nil {
		return err
	}

	result, err := chunkingService.ChunkDocument(cmd.Context(), doc)
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}

	if chunkJSON {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	if len(result.Chunks) == 0 {
		cmd.Println("Document is empty, no chunks produced.")
		return nil
	}
	renderChunks(cmd.OutOrStdout(), result, chunkShowContent)
	return nil
}
