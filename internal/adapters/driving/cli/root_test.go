package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

// run executes the root command with args and returns combined output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const sampleLaw = `Art. 1 Oggetto
1. La presente legge disciplina l'attività edilizia.
2. Si applica l'art. 3 del D.P.R. 380/2001.`

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "urbanlex", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ask", "search", "classify", "chunk", "metadata", "ingest", "remove", "reset", "documents", "settings", "mcp", "console", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRootCmd_VerboseFlag(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, flag)
	assert.Equal(t, "v", flag.Shorthand)
}

func TestSetVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("")
	assert.Equal(t, original, version)

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)
}

func TestAskCmd(t *testing.T) {
	t.Run("renders answer", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		out, err := run(t, "ask", "serve", "il", "permesso?")

		require.NoError(t, err)
		assert.Equal(t, "serve il permesso?", testQuery.lastQuery)
		assert.Contains(t, out, "legal-urban")
		assert.Contains(t, out, "Serve il permesso di costruire.")
		assert.Contains(t, out, "Fonti")
		assert.Contains(t, out, "D.P.R. 380/2001, art. 10")
		assert.Contains(t, out, "carattere generale")
		assert.Contains(t, out, "Domande correlate")
	})

	t.Run("passes options", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		_, err := run(t, "ask", "-k", "3", "--no-cache", "--threshold", "0.5", "distanze")

		require.NoError(t, err)
		assert.Equal(t, 3, testQuery.lastOpts.TopK)
		assert.True(t, testQuery.lastOpts.NoCache)
		require.NotNil(t, testQuery.lastOpts.Threshold)
		assert.InDelta(t, 0.5, *testQuery.lastOpts.Threshold, 1e-9)
	})

	t.Run("json", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		out, err := run(t, "ask", "--json", "distanze")

		require.NoError(t, err)
		assert.Contains(t, out, "\"Answer\": \"Serve il permesso di costruire.\"")
		assert.Contains(t, out, "\"Query\": \"distanze\"")
	})

	t.Run("service error", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		testQuery.err = domain.ErrInvalidInput

		_, err := run(t, "ask", "distanze")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("not configured", func(t *testing.T) {
		defer resetFlags()

		_, err := run(t, "ask", "distanze")

		assert.EqualError(t, err, "query service not configured")
	})
}

func TestClassifyCmd(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		out, err := run(t, "classify", "permesso", "di", "costruire")

		require.NoError(t, err)
		assert.Contains(t, out, "legal-urban")
		assert.Contains(t, out, "legal-national")
		assert.Contains(t, out, "0.60")
		assert.Contains(t, out, "Disclaimer: yes")
	})

	t.Run("json", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		out, err := run(t, "classify", "--json", "Permesso")

		require.NoError(t, err)
		assert.Contains(t, out, "\"Normalized\": \"permesso\"")
	})

	t.Run("not configured", func(t *testing.T) {
		defer resetFlags()

		_, err := run(t, "classify", "distanze")

		assert.EqualError(t, err, "classifier not configured")
	})
}

func TestChunkCmd(t *testing.T) {
	t.Run("renders chunks", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		path := writeFile(t, t.TempDir(), "legge_10.txt", sampleLaw)

		out, err := run(t, "chunk", "--title", "Legge 10", "-c", path)

		require.NoError(t, err)
		require.NotNil(t, testChunking.lastDoc)
		assert.Equal(t, "Legge 10", testChunking.lastDoc.Title)
		assert.Contains(t, out, "legal_structure")
		assert.Contains(t, out, "Legge 10 > art. 1")
		assert.Contains(t, out, "art. 3 del D.P.R. 380/2001")
		assert.Contains(t, out, "disciplina l'attività edilizia")
	})

	t.Run("empty document", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		path := writeFile(t, t.TempDir(), "vuoto.txt", "   ")

		out, err := run(t, "chunk", path)

		require.NoError(t, err)
		assert.Contains(t, out, "no chunks produced")
	})

	t.Run("missing file", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		_, err := run(t, "chunk", filepath.Join(t.TempDir(), "missing.txt"))

		assert.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("chunker error", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		testChunking.err = domain.ErrInvalidChunkConfig
		path := writeFile(t, t.TempDir(), "legge.txt", sampleLaw)

		_, err := run(t, "chunk", path)

		assert.ErrorIs(t, err, domain.ErrInvalidChunkConfig)
	})

	t.Run("not configured", func(t *testing.T) {
		defer resetFlags()

		_, err := run(t, "chunk", "legge.txt")

		assert.EqualError(t, err, "chunking service not configured")
	})
}

func TestMetadataCmd(t *testing.T) {
	t.Run("segments before enriching", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		path := writeFile(t, t.TempDir(), "legge.txt", sampleLaw)

		out, err := run(t, "metadata", "--type", "legge", "--number", "10", path)

		require.NoError(t, err)
		assert.Equal(t, 1, testMetadata.lastArticles)
		assert.Equal(t, "legge", testMetadata.lastHints.Type)
		assert.Equal(t, "10", testMetadata.lastHints.Number)
		assert.Contains(t, out, "L. 10/1977")
		assert.Contains(t, out, "edilizia (3.0)")
	})

	t.Run("json", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		path := writeFile(t, t.TempDir(), "legge.txt", sampleLaw)

		out, err := run(t, "metadata", "--json", path)

		require.NoError(t, err)
		assert.Contains(t, out, "\"Citation\": \"L. 10/1977\"")
	})

	t.Run("not configured", func(t *testing.T) {
		defer resetFlags()

		_, err := run(t, "metadata", "legge.txt")

		assert.EqualError(t, err, "metadata service not configured")
	})
}

func TestIngestCmd(t *testing.T) {
	t.Run("directory", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		dir := t.TempDir()
		writeFile(t, dir, "legge_10.txt", sampleLaw)
		writeFile(t, dir, "regolamento.md", "# Regolamento edilizio\n\nArt. 1\nNorme generali.")
		writeFile(t, dir, "immagine.png", "binary")

		out, err := run(t, "ingest", dir)

		require.NoError(t, err)
		require.Len(t, testIngest.batches, 1)
		assert.Len(t, testIngest.batches[0], 2)
		assert.Contains(t, out, "urban-general")
		assert.Contains(t, out, "2 documents indexed, 0 failed.")
		assert.Contains(t, out, "Run run-1")
	})

	t.Run("hints apply to every file", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		path := writeFile(t, t.TempDir(), "dpr.txt", sampleLaw)

		_, err := run(t, "ingest", "--type", "dpr", "--number", "380", "--date", "2001-06-06", path)

		require.NoError(t, err)
		require.Len(t, testIngest.batches, 1)
		doc := testIngest.batches[0][0]
		assert.Equal(t, "dpr", doc.Type)
		assert.Equal(t, "380", doc.Number)
		assert.Equal(t, "dpr-380-2001", doc.ID)
	})

	t.Run("all documents fail", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		testIngest.failAll = true
		path := writeFile(t, t.TempDir(), "legge.txt", sampleLaw)

		out, err := run(t, "ingest", path)

		assert.EqualError(t, err, "no document could be indexed")
		assert.Contains(t, out, "embedding failed")
		assert.Contains(t, out, "0 documents indexed, 1 failed.")
	})

	t.Run("missing path", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		out, err := run(t, "ingest", filepath.Join(t.TempDir(), "missing"))

		assert.EqualError(t, err, "no document could be indexed")
		assert.Contains(t, out, "does not exist")
	})

	t.Run("watch needs one directory", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		_, err := run(t, "ingest", "--watch", t.TempDir(), t.TempDir())

		assert.EqualError(t, err, "--watch takes exactly one directory")
	})

	t.Run("watch stops on cancel", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		testIngest.applyErr = context.Canceled

		out, err := run(t, "ingest", "-w", t.TempDir())

		require.NoError(t, err)
		assert.Contains(t, out, "Watching")
		assert.Contains(t, out, "1 indexed, 0 removed, 0 failed.")
	})

	t.Run("watch error", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		testIngest.applyErr = errors.New("store closed")

		_, err := run(t, "ingest", "-w", t.TempDir())

		assert.ErrorContains(t, err, "store closed")
	})

	t.Run("not configured", func(t *testing.T) {
		defer resetFlags()

		_, err := run(t, "ingest", ".")

		assert.EqualError(t, err, "ingest service not configured")
	})
}

func TestRemoveCmd(t *testing.T) {
	cleanup := setupTestServices()
	defer cleanup()

	out, err := run(t, "remove", "/corpus/dpr380.txt")

	require.NoError(t, err)
	assert.Equal(t, []string{"/corpus/dpr380.txt"}, testIngest.removed)
	assert.Contains(t, out, "Removed /corpus/dpr380.txt.")
}

func TestResetCmd(t *testing.T) {
	t.Run("valid namespace", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		out, err := run(t, "reset", "legal-regional")

		require.NoError(t, err)
		assert.Equal(t, []domain.Namespace{domain.NamespaceRegional}, testIngest.reset)
		assert.Contains(t, out, "Corpus legal-regional emptied.")
	})

	t.Run("unknown namespace", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		_, err := run(t, "reset", "jurisprudence")

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("valid args", func(t *testing.T) {
		assert.ElementsMatch(t, []string{"legal-national", "legal-regional", "urban-general"}, resetCmd.ValidArgs)
	})
}

func TestDocumentsCmd(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		out, err := run(t, "documents", "list")

		require.NoError(t, err)
		assert.Contains(t, out, "dpr380")
		assert.Contains(t, out, "D.P.R. 380/2001")
		assert.Contains(t, out, "1 documents")
	})

	t.Run("list empty", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		testDocuments.docs = nil

		out, err := run(t, "docs", "list")

		require.NoError(t, err)
		assert.Contains(t, out, "No documents stored.")
	})

	t.Run("list error", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()
		testDocuments.err = errors.New("database is locked")

		_, err := run(t, "documents", "list")

		assert.ErrorContains(t, err, "database is locked")
	})

	t.Run("show", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		out, err := run(t, "documents", "show", "--content", "dpr380")

		require.NoError(t, err)
		assert.Contains(t, out, "Testo unico edilizia")
		assert.Contains(t, out, "/corpus/dpr380.txt")
		assert.Contains(t, out, "Art. 1 Ambito di applicazione")
	})

	t.Run("show unknown", func(t *testing.T) {
		cleanup := setupTestServices()
		defer cleanup()

		_, err := run(t, "documents", "show", "missing")

		assert.EqualError(t, err, "document missing not found")
	})

	t.Run("not configured", func(t *testing.T) {
		defer resetFlags()

		_, err := run(t, "documents", "list")

		assert.EqualError(t, err, "document store not configured")
	})
}

func TestMCPServeCmd_RequiresQueryService(t *testing.T) {
	defer resetFlags()

	_, err := run(t, "mcp", "serve")

	assert.EqualError(t, err, "query service not configured")
}

func TestMCPServeCmd_Flags(t *testing.T) {
	flag := mcpServeCmd.Flags().Lookup("http")
	require.NotNil(t, flag)
	assert.Equal(t, "", flag.DefValue)
	assert.Contains(t, mcpServeCmd.Long, "extract_metadata")
}
