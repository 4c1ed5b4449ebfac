package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

var (
	searchLimit     int
	searchThreshold float64
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed articles",
	Long: `Retrieves the most relevant articles across the national, regional and
urban corpora and lists them with their citations and scores, without
composing an answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum relevance score between 0 and 1")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("search service not configured")
	}

	// Sources are always freshly ranked.
	resp, err := queryService.Ask(cmd.Context(), strings.Join(args, " "), askOptions(cmd, searchLimit, searchThreshold, true))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		sources := resp.Sources
		if sources == nil {
			sources = []domain.Source{}
		}
		return writeJSON(cmd.OutOrStdout(), sources)
	}

	return outputSearchTable(cmd, resp)
}

func outputSearchTable(cmd *cobra.Command, resp *domain.Response) error {
	if resp.Failed {
		return errors.New("search failed: no corpus could be queried")
	}
	if len(resp.Sources) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Printf("Results (%s):\n\n", resp.Strategy)
	renderSources(cmd.OutOrStdout(), resp.Sources, true)
	return nil
}
