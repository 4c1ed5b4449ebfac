package cli

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
)

var classifyJSON bool

var classifyCmd = &cobra.Command{
	Use:   "classify [query]",
	Short: "Show how a question would be routed",
	Long: `Scores the question against the legal, regional and urban keyword tables
and prints the chosen strategy, the corpora it queries and their weights.
Nothing is retrieved.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "output the classification as JSON")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	if classifier == nil {
		return errors.New("classifier not configured")
	}

	cls := classifier.Classify(strings.Join(args, " "))

	if classifyJSON {
		return writeJSON(cmd.OutOrStdout(), cls)
	}
	renderClassification(cmd.OutOrStdout(), cls)
	return nil
}
