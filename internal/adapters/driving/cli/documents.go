package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/normalisers"
)

// docHints is shared by every command that reads documents from disk.
var docHints domain.DocumentConfig

func addHintFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&docHints.Title, "title", "", "document title")
	cmd.Flags().StringVar(&docHints.Type, "type", "", "document type, e.g. legge, dpr, legge_regionale")
	cmd.Flags().StringVar(&docHints.Number, "number", "", "act number")
	cmd.Flags().StringVar(&docHints.Date, "date", "", "enactment date")
	cmd.Flags().StringVar(&docHints.Authority, "authority", "", "issuing authority")
	cmd.Flags().StringVar(&docHints.Source, "source", "", "publication source, e.g. Gazzetta Ufficiale")
}

// loadDocument reads and normalises a single file.
func loadDocument(ctx context.Context, path string, hints domain.DocumentConfig) (*domain.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	raw := &domain.RawDocument{
		URI:      path,
		MIMEType: normalisers.MIMEForPath(path),
		Content:  content,
		Hints:    hints,
	}

	if normaliser == nil {
		doc := normalisers.NewDocument(raw, normalisers.TitleFromURI(path), string(content), "text")
		return doc, nil
	}
	doc, err := normaliser.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalising %s: %w", path, err)
	}
	return doc, nil
}

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Inspect stored documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show a stored document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

var documentsContent bool

func init() {
	documentsShowCmd.Flags().BoolVar(&documentsContent, "content", false, "print the full text")
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if documentReader == nil {
		return errors.New("document store not configured")
	}

	docs, err := documentReader.ListDocuments(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		cmd.Println("No documents stored.")
		return nil
	}

	st := outputStyles
	for i := range docs {
		doc := &docs[i]
		cmd.Printf("%s  %s\n", st.Citation.Render(doc.ID), doc.Title)
		if citation := domain.MetaString(doc.Metadata, domain.MetaCitation); citation != "" {
			cmd.Printf("    %s\n", st.Muted.Render(citation))
		}
	}
	cmd.Printf("\n%d documents\n", len(docs))
	return nil
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	if documentReader == nil {
		return errors.New("document store not configured")
	}

	doc, err := documentReader.GetDocument(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("document %s not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	st := outputStyles
	cmd.Println(st.Title.Render(doc.Title))
	field := func(label, value string) {
		if value != "" {
			cmd.Printf("  %-10s %s\n", st.Muted.Render(label), value)
		}
	}
	field("id", doc.ID)
	field("uri", doc.URI)
	field("type", doc.Type)
	field("number", doc.Number)
	field("date", doc.Date)
	field("authority", doc.Authority)
	field("source", doc.Source)
	field("articles", fmt.Sprintf("%d", len(doc.Articles)))
	for _, key := range []string{domain.MetaCitation, domain.MetaDocumentType, domain.MetaStatus, domain.MetaScopeLevel, domain.MetaRegionCode} {
		field(key, domain.MetaString(doc.Metadata, key))
	}

	if documentsContent {
		cmd.Println()
		cmd.Println(doc.Content)
	}
	return nil
}
