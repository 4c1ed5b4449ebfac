package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
)

func legalMatch() domain.SearchMatch {
	return domain.SearchMatch{
		ID:            "dpr-380-2001_art20_0",
		Namespace:     domain.NamespaceNational,
		AdjustedScore: 0.92,
		SourceType:    domain.SourceLegal,
		Metadata: map[string]any{
			domain.MetaCitation:      "D.P.R. 380/2001, art. 20",
			domain.MetaDocumentTitle: "Testo unico dell'edilizia",
			domain.MetaText: "La domanda per il rilascio del permesso di costruire è presentata allo sportello unico. " +
				"Il termine per l'istruttoria è di sessanta giorni. Decorso il termine si forma il silenzio-assenso.",
		},
	}
}

func urbanMatch() domain.SearchMatch {
	return domain.SearchMatch{
		ID:            "nta-milano_art4_1",
		Namespace:     domain.NamespaceUrban,
		AdjustedScore: 0.81,
		SourceType:    domain.SourceUrban,
		Metadata: map[string]any{
			domain.MetaDocumentTitle:  "Norme tecniche di attuazione",
			domain.MetaDocumentNumber: "12",
			domain.MetaArticle:        "4",
			domain.MetaText:           "Il cambio di destinazione d'uso è ammesso nelle zone residenziali",
		},
	}
}

func TestResponseComposer_Compose_LegalUrban(t *testing.T) {
	cls := classificationFor(t, domain.StrategyLegalUrban)
	result := &domain.SearchResult{Matches: []domain.SearchMatch{legalMatch(), urbanMatch()}}

	resp := NewResponseComposer().Compose("cambio di destinazione d'uso", result, cls)

	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.ID)
	assert.False(t, resp.Failed)
	assert.Equal(t, domain.StrategyLegalUrban, resp.Strategy)
	assert.Equal(t, DisclaimerLegal, resp.LegalDisclaimer)
	assert.Contains(t, resp.Answer, "Normativa nazionale e giurisprudenza:")
	assert.Contains(t, resp.Answer, "- D.P.R. 380/2001, art. 20: La domanda per il rilascio del permesso di costruire "+
		"è presentata allo sportello unico. Il termine per l'istruttoria è di sessanta giorni.")
	assert.NotContains(t, resp.Answer, "silenzio-assenso")
	assert.Contains(t, resp.Answer, "Indicazioni urbanistiche:")
	assert.Contains(t, resp.Answer, "- Norme tecniche di attuazione n. 12, art. 4")
	assert.Less(t, strings.Index(resp.Answer, "Normativa nazionale"), strings.Index(resp.Answer, "Indicazioni urbanistiche"))

	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "D.P.R. 380/2001, art. 20", resp.Sources[0].Citation)
	assert.Equal(t, "Testo unico dell'edilizia", resp.Sources[0].Title)
	assert.Equal(t, 0.92, resp.Sources[0].Score)
	assert.Equal(t, domain.SourceUrban, resp.Sources[1].SourceType)
	assert.Len(t, resp.FollowUp, 2)
}

func TestResponseComposer_Compose_Regional(t *testing.T) {
	cls := classificationFor(t, domain.StrategyRegionalFocus)
	cls.RegionCode = "LOM"
	cls.RegionName = "Lombardia"
	regional := domain.SearchMatch{
		ID:            "legge-regionale-12-2005_art1_0",
		Namespace:     domain.NamespaceRegional,
		AdjustedScore: 0.88,
		SourceType:    domain.SourceRegional,
		Metadata:      map[string]any{domain.MetaCitation: "L.R. 12/2005, art. 1"},
	}

	resp := NewResponseComposer().Compose("PGT in Lombardia", &domain.SearchResult{Matches: []domain.SearchMatch{regional}}, cls)

	assert.Equal(t, DisclaimerRegional, resp.LegalDisclaimer)
	assert.Equal(t, "LOM", resp.RegionCode)
	assert.Contains(t, resp.Answer, "Regione di riferimento: Lombardia.")
	assert.Contains(t, resp.Answer, "Normativa regionale:\n- L.R. 12/2005, art. 1")
	require.Len(t, resp.FollowUp, 3)
	assert.Contains(t, resp.FollowUp[0], "Regione Lombardia")
}

func TestResponseComposer_Compose_UrbanOnlyHasNoDisclaimer(t *testing.T) {
	cls := classificationFor(t, domain.StrategyUrbanOnly)

	resp := NewResponseComposer().Compose("distanze", &domain.SearchResult{Matches: []domain.SearchMatch{urbanMatch()}}, cls)

	assert.Empty(t, resp.LegalDisclaimer)
	assert.Contains(t, resp.Answer, "Dal punto di vista urbanistico:")
}

func TestResponseComposer_Compose_FallsBackToBestMatches(t *testing.T) {
	cls := classificationFor(t, domain.StrategyLegalOnly)

	resp := NewResponseComposer().Compose("esproprio", &domain.SearchResult{Matches: []domain.SearchMatch{urbanMatch()}}, cls)

	assert.Contains(t, resp.Answer, "Fonti più pertinenti:")
	assert.Len(t, resp.Sources, 1)
}

func TestResponseComposer_Compose_NoMatches(t *testing.T) {
	cls := classificationFor(t, domain.StrategyLegalOnly)

	resp := NewResponseComposer().Compose("esproprio", &domain.SearchResult{}, cls)

	assert.False(t, resp.Failed)
	assert.Equal(t, answerNotFound, resp.Answer)
	assert.Equal(t, 0.1, resp.Confidence)
	assert.Equal(t, DisclaimerGeneral, resp.LegalDisclaimer)
	assert.Empty(t, resp.Sources)
}

func TestResponseComposer_Compose_SearchFailed(t *testing.T) {
	cls := classificationFor(t, domain.StrategyLegalOnly)
	result := &domain.SearchResult{
		Error:    domain.ErrAllNamespacesFailed.Error(),
		Outcomes: []domain.NamespaceOutcome{{Namespace: domain.NamespaceNational, Err: "dial tcp: connection refused"}},
	}

	for _, r := range []*domain.SearchResult{result, nil} {
		resp := NewResponseComposer().Compose("esproprio", r, cls)

		assert.True(t, resp.Failed)
		assert.Equal(t, answerFailed, resp.Answer)
		assert.NotContains(t, resp.Answer, "connection refused")
		assert.NotContains(t, resp.Answer, "namespaces")
		assert.Equal(t, 0.1, resp.Confidence)
		assert.NotEmpty(t, resp.FollowUp)
	}
}

func TestResponseComposer_SourcesCapped(t *testing.T) {
	cls := classificationFor(t, domain.StrategyUrbanOnly)
	var matches []domain.SearchMatch
	for range 7 {
		matches = append(matches, urbanMatch())
	}

	resp := NewResponseComposer().Compose("standard", &domain.SearchResult{Matches: matches}, cls)

	assert.Len(t, resp.Sources, 5)
}

func TestResponseConfidence(t *testing.T) {
	scores := func(vs ...float64) []domain.SearchMatch {
		out := make([]domain.SearchMatch, len(vs))
		for i, v := range vs {
			out[i].AdjustedScore = v
		}
		return out
	}

	tests := []struct {
		name    string
		cls     float64
		matches []domain.SearchMatch
		want    float64
	}{
		{"single strong source", 0.6, scores(0.9), 0.75},
		{"three sources bonus", 0.6, scores(0.8, 0.8, 0.8), 0.75},
		{"five sources bonus", 0.5, scores(0.8, 0.8, 0.8, 0.8, 0.8), 0.75},
		{"clamped high", 1.0, scores(1.1, 1.1, 1.1, 1.1, 1.1), 0.95},
		{"weak matches penalised", 0.5, scores(0.5), 0.4},
		{"clamped low", 0.0, scores(0.1), 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, responseConfidence(tt.cls, tt.matches), 1e-9)
		})
	}
}

func TestCitationFor(t *testing.T) {
	tests := []struct {
		name string
		md   map[string]any
		want string
	}{
		{"stored citation", map[string]any{domain.MetaCitation: "L. 241/1990, art. 3"}, "L. 241/1990, art. 3"},
		{
			"structured fields",
			map[string]any{
				domain.MetaDocumentTitle:  "Regolamento edilizio",
				domain.MetaDocumentNumber: "12",
				domain.MetaDocumentDate:   "2019-03-01",
				domain.MetaArticle:        "4",
				domain.MetaComma:          "2",
			},
			"Regolamento edilizio n. 12 del 2019-03-01, art. 4, comma 2",
		},
		{"comma without article ignored", map[string]any{domain.MetaComma: "2"}, "chunk-1"},
		{"nothing structured", nil, "chunk-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, citationFor(&domain.SearchMatch{ID: "chunk-1", Metadata: tt.md}))
		})
	}
}

func TestExcerptFor(t *testing.T) {
	excerpt := func(text string) string {
		return excerptFor(&domain.SearchMatch{Metadata: map[string]any{domain.MetaText: text}})
	}

	assert.Equal(t,
		"Ai sensi dell'art. 5 del D.P.R. 380/2001 il permesso è rilasciato dal comune. Il termine è di sessanta giorni.",
		excerpt("Ai sensi dell'art. 5 del D.P.R. 380/2001 il permesso è rilasciato dal comune.\nIl termine è di sessanta giorni. Decorso il termine si forma il silenzio."))
	assert.Equal(t, "senza punteggiatura finale", excerpt("senza   punteggiatura\nfinale"))
	assert.Empty(t, excerpt(""))

	long := excerpt(strings.Repeat("parola ", 100))
	assert.True(t, strings.HasSuffix(long, "…"))
	assert.LessOrEqual(t, len([]rune(long)), 321)
}
