package segmenter

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

const sampleLaw = `LEGGE 7 agosto 1990, n. 241
Nuove norme in materia di procedimento amministrativo.

Art. 1 - Principi generali dell'attività amministrativa
1. L'attività amministrativa persegue i fini determinati dalla legge ed è retta da criteri di economicità, di efficacia e di pubblicità.
2. La pubblica amministrazione non può aggravare il procedimento se non per straordinarie e motivate esigenze.

Art. 2
Conclusione del procedimento
1. Ove il procedimento consegua obbligatoriamente ad una istanza, ovvero debba essere iniziato d'ufficio, la pubblica amministrazione ha il dovere di concluderlo mediante l'adozione di un provvedimento espresso.

Art. 2-bis.
(Conseguenze per il ritardo dell'amministrazione)
1. Le pubbliche amministrazioni sono tenute al risarcimento del danno ingiusto cagionato in conseguenza dell'inosservanza del termine.

Art. 3
Art.
Articolo 4 Motivazione del provvedimento
Ogni provvedimento amministrativo deve essere motivato, salvo che negli atti normativi, ai sensi dell'art. 3.
`

func TestSegmenter_Name(t *testing.T) {
	assert.Equal(t, "segmenter", New().Name())
}

func TestSegmenter_Segment(t *testing.T) {
	st := New().Segment(sampleLaw)

	require.True(t, st.IsLegal)
	assert.Equal(t, "LEGGE 7 agosto 1990, n. 241\nNuove norme in materia di procedimento amministrativo.", st.Preamble)
	require.Len(t, st.Articles, 4)

	t.Run("inline title and commas", func(t *testing.T) {
		art := st.Articles[0]
		assert.Equal(t, "1", art.Number)
		assert.Equal(t, "Principi generali dell'attività amministrativa", art.Title)
		require.Len(t, art.Commas, 2)
		assert.Equal(t, "1", art.Commas[0].Number)
		assert.True(t, strings.HasPrefix(art.Commas[0].Text, "Art. 1 - Principi"), "heading joins the first comma")
		assert.Equal(t, "2", art.Commas[1].Number)
		assert.True(t, strings.HasPrefix(art.Commas[1].Text, "2. La pubblica amministrazione"))
	})

	t.Run("title on following line", func(t *testing.T) {
		assert.Equal(t, "2", st.Articles[1].Number)
		assert.Equal(t, "Conclusione del procedimento", st.Articles[1].Title)
	})

	t.Run("suffixed number and bracketed title", func(t *testing.T) {
		assert.Equal(t, "2-bis", st.Articles[2].Number)
		assert.Equal(t, "Conseguenze per il ritardo dell'amministrazione", st.Articles[2].Title)
	})

	t.Run("short units discarded and inline references kept", func(t *testing.T) {
		art := st.Articles[3]
		assert.Equal(t, "4", art.Number)
		assert.Equal(t, "Motivazione del provvedimento", art.Title)
		assert.Contains(t, art.Text, "ai sensi dell'art. 3.")
		assert.Empty(t, art.Commas)
	})
}

func TestSegmenter_FallbackNumber(t *testing.T) {
	text := "Decreto di approvazione.\nARTICOLO UNICO\nÈ approvato il piano regolatore generale del comune.\nArticolo\nLe disposizioni entrano in vigore il giorno successivo."

	st := New().Segment(text)

	require.Len(t, st.Articles, 2)
	assert.Equal(t, "unico", st.Articles[0].Number)
	assert.Equal(t, "2", st.Articles[1].Number)
}

func TestSegmenter_NonLegal(t *testing.T) {
	text := "Il centro storico ospita piazze e giardini.\nLe passeggiate lungo il fiume sono molto frequentate."

	st := New().Segment(text)

	assert.False(t, st.IsLegal)
	assert.Empty(t, st.Articles)
	assert.Empty(t, st.Preamble)
}

func TestSegmenter_LegalWithoutArticles(t *testing.T) {
	text := "Circolare del Ministero sulle modalità di presentazione delle istanze."

	st := New().Segment(text)

	assert.True(t, st.IsLegal)
	assert.Empty(t, st.Articles)
}

func TestSegmenter_EmptyText(t *testing.T) {
	st := New().Segment("   \n ")
	assert.False(t, st.IsLegal)
	assert.Empty(t, st.Articles)
}

func TestSegmenter_CommaMarkers(t *testing.T) {
	text := "Art. 7\n(1) Prima disposizione sufficientemente lunga da essere mantenuta.\nComma 2 Seconda disposizione sufficientemente lunga da essere mantenuta.\n3-bis. Terza disposizione aggiunta con una modifica successiva."

	st := New().Segment(text)

	require.Len(t, st.Articles, 1)
	commas := st.Articles[0].Commas
	require.Len(t, commas, 3)
	assert.Equal(t, "1", commas[0].Number)
	assert.Equal(t, "2", commas[1].Number)
	assert.Equal(t, "3-bis", commas[2].Number)
}

func TestSegmenter_WithPatterns(t *testing.T) {
	s := New(WithPatterns(Patterns{
		Article: regexp.MustCompile(`(?m)^§[ \t]*(\d+)?`),
	}))

	st := s.Segment("Regolamento edilizio comunale ai sensi della legge regionale\n§ 1 Ambito di applicazione del regolamento\n§ 2 Definizioni dei parametri edilizi utilizzati")

	require.Len(t, st.Articles, 2)
	assert.Equal(t, "1", st.Articles[0].Number)
	assert.Equal(t, "Ambito di applicazione del regolamento", st.Articles[0].Title)
}

func TestSegmenter_Process(t *testing.T) {
	s := New()

	t.Run("fills structure", func(t *testing.T) {
		doc := &domain.Document{ID: "l-241-1990", Content: sampleLaw}
		in := []domain.Chunk{{ID: "existing"}}

		out, err := s.Process(context.Background(), doc, in)

		require.NoError(t, err)
		assert.Equal(t, in, out)
		assert.Len(t, doc.Articles, 4)
		assert.NotEmpty(t, doc.Preamble)
	})

	t.Run("keeps existing structure", func(t *testing.T) {
		existing := []domain.Article{{Number: "9", Text: "Articolo già strutturato dal chiamante."}}
		doc := &domain.Document{ID: "x", Content: sampleLaw, Articles: existing}

		_, err := s.Process(context.Background(), doc, nil)

		require.NoError(t, err)
		assert.Equal(t, existing, doc.Articles)
	})
}

func TestNormalizeNumber(t *testing.T) {
	tests := map[string]string{
		"5":        "5",
		"5-bis":    "5-bis",
		"5 bis":    "5-bis",
		"12 - TER": "12-ter",
		"unico":    "unico",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeNumber(in), in)
	}
}
