package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/urbanlex/internal/connectors/filesystem"
	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/core/ports/driving"
	"github.com/custodia-labs/urbanlex/internal/logger"
)

var ingestWatch bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Index documents from files or directories",
	Long: `Reads text, Markdown and HTML files, splits them along their legal
structure, enriches them with metadata, embeds the chunks and stores them
in the corpus matching their scope: national law, regional law or urban
planning material.

Re-ingesting a file replaces its previous chunks. With --watch the command
keeps running and indexes files as they are created, changed or deleted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var removeCmd = &cobra.Command{
	Use:   "remove [uri]",
	Short: "Remove an indexed document",
	Long:  `Deletes the document indexed from the given file path and all of its chunks.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var resetCmd = &cobra.Command{
	Use:       "reset [namespace]",
	Short:     "Empty a corpus",
	Long:      `Removes every vector and document from one corpus: legal-national, legal-regional or urban-general.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: namespaceNames(),
	RunE:      runReset,
}

func init() {
	addHintFlags(ingestCmd)
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching the directory for changes")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(resetCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if ingestWatch && len(args) != 1 {
		return errors.New("--watch takes exactly one directory")
	}

	ctx := cmd.Context()
	docs, failed := readDocuments(ctx, cmd, args)

	indexed := 0
	runID := ""
	if len(docs) > 0 {
		reports, err := ingestService.IngestBatch(ctx, docs)
		printReports(cmd, reports)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		for i := range reports {
			runID = reports[i].RunID
			if reports[i].Err != nil {
				failed++
			} else {
				indexed++
			}
		}
	}
	cmd.Printf("\n%d documents indexed, %d failed.\n", indexed, failed)
	if runID != "" {
		cmd.Printf("Run %s\n", runID)
	}

	if ingestWatch {
		return watch(ctx, cmd, args[0])
	}
	if indexed == 0 && failed > 0 {
		return errors.New("no document could be indexed")
	}
	return nil
}

// readDocuments loads every supported file under paths. Files that
// cannot be read or normalised are reported and counted.
func readDocuments(ctx context.Context, cmd *cobra.Command, paths []string) ([]*domain.Document, int) {
	var docs []*domain.Document
	failed := 0

	for _, path := range paths {
		conn := filesystem.New(path, filesystem.WithHints(docHints))
		rawCh, errCh := conn.FullSync(ctx)
		for raw := range rawCh {
			doc, err := loadRaw(ctx, &raw)
			if err != nil {
				cmd.PrintErrf("  %s %s: %v\n", outputStyles.Error.Render("✗"), raw.URI, err)
				failed++
				continue
			}
			docs = append(docs, doc)
		}
		for err := range errCh {
			cmd.PrintErrf("  %s %s: %v\n", outputStyles.Error.Render("✗"), path, err)
			failed++
		}
	}
	return docs, failed
}

func loadRaw(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if normaliser == nil {
		return loadDocument(ctx, raw.URI, raw.Hints)
	}
	return normaliser.Normalise(ctx, raw)
}

func printReports(cmd *cobra.Command, reports []driving.IngestReport) {
	st := outputStyles
	for i := range reports {
		r := &reports[i]
		if r.Err != nil {
			cmd.Printf("  %s %s: %v\n", st.Error.Render("✗"), r.DocumentID, r.Err)
			continue
		}
		label := r.Citation
		if label == "" {
			label = r.DocumentID
		}
		cmd.Printf("  %s %s %s %s\n",
			st.Success.Render("✓"),
			st.Citation.Render(label),
			st.Namespace(r.Namespace).Render(string(r.Namespace)),
			st.Muted.Render(fmt.Sprintf("%d chunks, %d tokens", r.Chunks, r.Stats.TotalTokens)),
		)
	}
}

func watch(ctx context.Context, cmd *cobra.Command, dir string) error {
	conn := filesystem.New(dir, filesystem.WithHints(docHints))
	defer conn.Close()

	changes, err := conn.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch failed: %w", err)
	}
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)...\n", dir)
	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)

	summary, err := ingestService.ApplyChanges(ctx, changes)
	cmd.Printf("\n%d indexed, %d removed, %d failed.\n", summary.Indexed, summary.Removed, summary.Failed)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if err := ingestService.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	cmd.Printf("Removed %s.\n", args[0])
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	ns := domain.Namespace(args[0])
	if err := ingestService.Reset(cmd.Context(), ns); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	cmd.Printf("Corpus %s emptied.\n", ns)
	return nil
}

func namespaceNames() []string {
	all := domain.Namespaces()
	names := make([]string, len(all))
	for i, ns := range all {
		names[i] = string(ns)
	}
	return names
}
