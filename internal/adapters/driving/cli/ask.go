package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

var (
	askTopK      int
	askThreshold float64
	askNoCache   bool
	askJSON      bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about building and planning law",
	Long: `Classifies the question, retrieves matching articles from the national,
regional and urban corpora with the weights of the chosen strategy, and
composes an answer with citations.

Questions touching on legal obligations carry a legal disclaimer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of sources to retrieve (0 = configured default)")
	askCmd.Flags().Float64Var(&askThreshold, "threshold", 0, "minimum relevance score between 0 and 1")
	askCmd.Flags().BoolVar(&askNoCache, "no-cache", false, "bypass the response cache")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	resp, err := queryService.Ask(cmd.Context(), strings.Join(args, " "), askOptions(cmd, askTopK, askThreshold, askNoCache))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return writeJSON(cmd.OutOrStdout(), resp)
	}
	renderResponse(cmd.OutOrStdout(), resp)
	return nil
}

// askOptions leaves the threshold unset unless the flag was given.
func askOptions(cmd *cobra.Command, topK int, threshold float64, noCache bool) domain.AskOptions {
	opts := domain.AskOptions{TopK: topK, NoCache: noCache}
	if cmd.Flags().Changed("threshold") {
		t := threshold
		opts.Threshold = &t
	}
	return opts
}
