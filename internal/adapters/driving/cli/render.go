package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/custodia-labs/urbanlex/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// excerptWidth wraps source excerpts in the terminal.
const excerptWidth = 88

var outputStyles = styles.DefaultStyles()

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func renderResponse(w io.Writer, resp *domain.Response) {
	st := outputStyles

	fmt.Fprintln(w, st.Badge.Render(string(resp.Strategy))+" "+
		st.Muted.Render("confidence ")+st.Score(resp.Confidence).Render(fmt.Sprintf("%.2f", resp.Confidence)))
	fmt.Fprintln(w)

	if resp.Failed {
		fmt.Fprintln(w, st.Error.Render(resp.Answer))
	} else {
		fmt.Fprintln(w, resp.Answer)
	}

	if len(resp.Sources) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.Subtitle.Render("Fonti"))
		renderSources(w, resp.Sources, false)
	}

	if resp.LegalDisclaimer != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.Disclaimer.Width(excerptWidth).Render(resp.LegalDisclaimer))
	}

	if len(resp.FollowUp) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.Subtitle.Render("Domande correlate"))
		for _, q := range resp.FollowUp {
			fmt.Fprintf(w, "  • %s\n", q)
		}
	}
}

func renderSources(w io.Writer, sources []domain.Source, withExcerpt bool) {
	st := outputStyles
	for i := range sources {
		src := &sources[i]
		fmt.Fprintf(w, "  [%d] %s %s %s\n",
			i+1,
			st.Citation.Render(src.Citation),
			st.Namespace(src.Namespace).Render(string(src.Namespace)),
			st.Score(src.Score).Render(fmt.Sprintf("(%.2f)", src.Score)),
		)
		if src.Title != "" && src.Title != src.Citation {
			fmt.Fprintf(w, "      %s\n", st.Muted.Render(src.Title))
		}
		if withExcerpt && src.Excerpt != "" {
			excerpt := st.Normal.Width(excerptWidth).Render(src.Excerpt)
			for _, line := range strings.Split(excerpt, "\n") {
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
	}
}

func renderClassification(w io.Writer, cls domain.QueryClassification) {
	st := outputStyles

	fmt.Fprintf(w, "%s %s\n", st.Muted.Render("Strategy:  "), st.Badge.Render(string(cls.Strategy)))
	fmt.Fprintf(w, "%s %.2f\n", st.Muted.Render("Confidence:"), cls.Confidence)
	if cls.RegionCode != "" {
		fmt.Fprintf(w, "%s %s (%s)\n", st.Muted.Render("Region:    "), cls.RegionName, cls.RegionCode)
	}
	disclaimer := "no"
	if cls.NeedsLegalDisclaimer {
		disclaimer = "yes"
	}
	fmt.Fprintf(w, "%s %s\n", st.Muted.Render("Disclaimer:"), disclaimer)
	fmt.Fprintln(w)

	fmt.Fprintln(w, st.Subtitle.Render("Corpora"))
	for _, ns := range cls.Namespaces {
		fmt.Fprintf(w, "  %-16s %.2f\n", st.Namespace(ns).Render(string(ns)), cls.Weights[ns])
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, st.Subtitle.Render("Scores"))
	fmt.Fprintf(w, "  legal     %.3f (%d matches)\n", cls.Scores.Legal, cls.Matches.Legal)
	fmt.Fprintf(w, "  regional  %.3f (%d matches)\n", cls.Scores.Regional, cls.Matches.Regional)
	fmt.Fprintf(w, "  urban     %.3f (%d matches)\n", cls.Scores.Urban, cls.Matches.Urban)
}

func renderChunks(w io.Writer, result *domain.ChunkingResult, showContent bool) {
	st := outputStyles
	stats := result.Stats

	fmt.Fprintf(w, "%s %s\n", st.Muted.Render("Strategy:"), st.Badge.Render(string(result.Strategy)))
	fmt.Fprintf(w, "%s %d chunks, %d tokens (avg %.0f, min %d, max %d), %d force splits\n",
		st.Muted.Render("Stats:   "),
		stats.TotalChunks, stats.TotalTokens, stats.AverageTokens, stats.MinTokens, stats.MaxTokens, stats.ForceSplits)
	if len(stats.ByType) > 0 {
		types := make([]string, 0, len(stats.ByType))
		for t, n := range stats.ByType {
			types = append(types, fmt.Sprintf("%s=%d", t, n))
		}
		sort.Strings(types)
		fmt.Fprintf(w, "%s %s\n", st.Muted.Render("Types:   "), strings.Join(types, " "))
	}
	fmt.Fprintln(w)

	for i := range result.Chunks {
		c := &result.Chunks[i]
		path := c.Hierarchy.Path()
		if path == "" {
			path = c.ID
		}
		fmt.Fprintf(w, "  [%d] %s %s\n", c.Position+1, st.Citation.Render(path),
			st.Muted.Render(fmt.Sprintf("%s, %d tokens, quality %d", c.Type, c.TokenCount, c.Quality)))
		if len(c.References) > 0 {
			fmt.Fprintf(w, "      %s %s\n", st.Muted.Render("refs:"), strings.Join(c.References, "; "))
		}
		if showContent {
			for _, line := range strings.Split(c.Content, "\n") {
				fmt.Fprintf(w, "      %s\n", line)
			}
			fmt.Fprintln(w)
		}
	}
}

func renderMetadata(w io.Writer, meta *domain.EnrichedMetadata) {
	st := outputStyles

	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(w, "  %-14s %s\n", st.Muted.Render(label), value)
		}
	}

	fmt.Fprintln(w, st.Subtitle.Render("Classification"))
	field("type", fmt.Sprintf("%s (%d%%)", meta.Classification.Type, meta.Classification.Confidence))
	field("citation", meta.Classification.Citation)
	field("authority", meta.Classification.Authority)
	fmt.Fprintln(w)

	fmt.Fprintln(w, st.Subtitle.Render("Status"))
	field("status", fmt.Sprintf("%s (%d%%)", meta.Status.Status, meta.Status.Confidence))
	field("evidence", strings.Join(meta.Status.Evidence, "; "))
	field("modifies", strings.Join(meta.Status.Modifications, "; "))
	fmt.Fprintln(w)

	fmt.Fprintln(w, st.Subtitle.Render("Topics"))
	field("primary", topicList(meta.Topics.Primary))
	field("secondary", topicList(meta.Topics.Secondary))
	field("relevance", fmt.Sprintf("%d/100", meta.Topics.DomainRelevance))
	fmt.Fprintln(w)

	fmt.Fprintln(w, st.Subtitle.Render("Scope"))
	field("level", string(meta.Scope.Level))
	field("territory", meta.Scope.Territory)
	field("region", meta.Scope.RegionCode)
	field("complexity", string(meta.Complexity))
	fmt.Fprintln(w)

	fmt.Fprintln(w, st.Subtitle.Render("Quality"))
	field("completeness", fmt.Sprintf("%d", meta.Quality.Completeness))
	field("structure", fmt.Sprintf("%d", meta.Quality.Structure))
	field("richness", fmt.Sprintf("%d", meta.Quality.Richness))
	field("overall", fmt.Sprintf("%d", meta.Quality.Overall))
	field("confidence", fmt.Sprintf("%d", meta.Confidence))
}

func topicList(topics []domain.TopicScore) string {
	names := make([]string, len(topics))
	for i, t := range topics {
		names[i] = fmt.Sprintf("%s (%.1f)", t.Topic, t.Score)
	}
	return strings.Join(names, ", ")
}
