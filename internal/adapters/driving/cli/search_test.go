package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

func TestSearchCmd_Use(t *testing.T) {
	assert.Equal(t, "search [query]", searchCmd.Use)
}

func TestSearchCmd_Short(t *testing.T) {
	assert.Equal(t, "Search indexed articles", searchCmd.Short)
}

func TestSearchCmd_Long(t *testing.T) {
	assert.Contains(t, searchCmd.Long, "national, regional and")
	assert.Contains(t, searchCmd.Long, "citations")
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	defer resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search"})

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg(s)")
}

func TestSearchCmd_HasLimitFlag(t *testing.T) {
	flag := searchCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "10", flag.DefValue)
}

func TestSearchCmd_ExecutesWithQuery(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "permesso", "di", "costruire"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Results (legal-urban):")
	assert.Contains(t, buf.String(), "D.P.R. 380/2001, art. 10")
	assert.Contains(t, buf.String(), "0.91")
	assert.Equal(t, "permesso di costruire", testQuery.lastQuery)
}

func TestSearchCmd_BypassesCache(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "-n", "5", "distanze"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.True(t, testQuery.lastOpts.NoCache)
	assert.Equal(t, 5, testQuery.lastOpts.TopK)
	assert.Nil(t, testQuery.lastOpts.Threshold)
}

func TestSearchCmd_ThresholdFlag(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "--threshold", "0.4", "distanze"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	require.NotNil(t, testQuery.lastOpts.Threshold)
	assert.InDelta(t, 0.4, *testQuery.lastOpts.Threshold, 1e-9)
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "--json", "distanze"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "\"Citation\"")
	assert.Contains(t, buf.String(), "\"Namespace\": \"legal-national\"")
}

func TestSearchCmd_JSONOutput_Empty(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()
	testQuery.response.Sources = nil

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"search", "--json", "distanze"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, "[]\n", buf.String())
}

func TestSearchCmd_ServiceNotConfigured(t *testing.T) {
	defer resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"search", "test"})

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "search service not configured")
}

func TestOutputSearchTable_EmptyResults(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	err := outputSearchTable(rootCmd, &domain.Response{Strategy: domain.StrategyUrbanOnly})

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "No results found")
}

func TestOutputSearchTable_Failed(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	err := outputSearchTable(rootCmd, &domain.Response{Failed: true})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no corpus could be queried")
}

func TestOutputSearchTable_WithExcerpt(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)

	resp := &domain.Response{
		Strategy: domain.StrategyRegionalFocus,
		Sources: []domain.Source{{
			Citation:  "L.R. Lombardia 12/2005, art. 33",
			Title:     "Legge per il governo del territorio",
			Excerpt:   "Gli interventi edilizi sono subordinati",
			Score:     0.66,
			Namespace: domain.NamespaceRegional,
		}},
	}

	err := outputSearchTable(rootCmd, resp)

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Results (regional-focus):")
	assert.Contains(t, out, "L.R. Lombardia 12/2005, art. 33")
	assert.Contains(t, out, "legal-regional")
	assert.Contains(t, out, "Legge per il governo del territorio")
	assert.Contains(t, out, "Gli interventi edilizi")
}
