package enricher

import (
	"regexp"

	"github.com/custodia-labs/urbanlex/internal/core/domain"
	"github.com/custodia-labs/urbanlex/internal/lexicon"
)

// typeRule recognises one document type.
type typeRule struct {
	Type      domain.DocumentType
	Authority string
	Prefix    string
	Patterns  []*regexp.Regexp
}

func rule(t domain.DocumentType, authority, prefix string, patterns ...string) typeRule {
	r := typeRule{Type: t, Authority: authority, Prefix: prefix}
	for _, p := range patterns {
		r.Patterns = append(r.Patterns, regexp.MustCompile(`(?i)`+p))
	}
	return r
}

// typeRules is evaluated in order; earlier rules win ties.
var typeRules = []typeRule{
	rule(domain.DocTypeDecretoLegislativo, "Governo", "D.Lgs.",
		`\bdecreto legislativo\b`, `\bd\.\s*lgs\b`),
	rule(domain.DocTypeDPR, "Presidente della Repubblica", "D.P.R.",
		`\bdecreto del presidente della repubblica\b`, `\bd\.\s*p\.\s*r\b`),
	rule(domain.DocTypeLeggeRegionale, "Consiglio regionale", "L.R.",
		`\blegge regionale\b`, `\bl\.\s*r\.`),
	rule(domain.DocTypeDGR, "Giunta regionale", "D.G.R.",
		`\bdelibera(?:zione)? (?:della|di) giunta regionale\b`, `\bd\.\s*g\.\s*r\b`),
	rule(domain.DocTypeLegge, "Parlamento", "L.",
		`\blegge\s+(?:\d|n\.)`, `\blegge costituzionale\b`),
	rule(domain.DocTypeDecreto, "Ministero", "D.M.",
		`\bdecreto ministeriale\b`, `\bdecreto del ministro\b`, `\bd\.\s*m\.`),
	rule(domain.DocTypeRegolamento, "Comune", "Reg.",
		`\bregolamento\b`),
	rule(domain.DocTypeSentenza, "Autorità giudiziaria", "Sent.",
		`\bsentenza\b`, `\btar\b`, `\bt\.a\.r\.`, `\bconsiglio di stato\b`,
		`\bcorte costituzionale\b`, `\bcorte di cassazione\b`),
	rule(domain.DocTypeCircolare, "Ministero", "Circ.",
		`\bcircolare\b`),
	rule(domain.DocTypeBUR, "Regione", "BUR",
		`\bbollettino ufficiale (?:della regione|regionale)\b`, `\bbur[a-z]?\b`),
}

func ruleFor(t domain.DocumentType) (typeRule, bool) {
	for _, r := range typeRules {
		if r.Type == t {
			return r, true
		}
	}
	return typeRule{}, false
}

// topic is a weighted keyword set.
type topic struct {
	Name    string
	Weight  float64
	Matcher *lexicon.Matcher
}

var topics = []topic{
	{Name: "pianificazione", Weight: 1.0, Matcher: lexicon.NewMatcher([]string{
		"piano regolatore", "prg", "pgt", "piano di governo del territorio", "pianificazione",
		"piano urbanistico", "zonizzazione", "destinazione d'uso", "variante", "piano attuativo",
		"lottizzazione", "perequazione",
	})},
	{Name: "edilizia", Weight: 0.9, Matcher: lexicon.NewMatcher([]string{
		"edilizia", "edilizio", "edilizi", "permesso di costruire", "scia", "cila", "ristrutturazione",
		"nuova costruzione", "manutenzione", "titolo abilitativo", "agibilità", "sanatoria",
	})},
	{Name: "vincoli", Weight: 0.9, Matcher: lexicon.NewMatcher([]string{
		"vincolo", "vincoli", "paesaggistico", "paesaggistica", "beni culturali", "tutela",
		"soprintendenza", "idrogeologico", "fascia di rispetto",
	})},
	{Name: "esproprio", Weight: 0.8, Matcher: lexicon.NewMatcher([]string{
		"esproprio", "espropriazione", "espropriazioni", "pubblica utilità", "indennità",
		"occupazione d'urgenza", "asservimento",
	})},
	{Name: "standard", Weight: 0.7, Matcher: lexicon.NewMatcher([]string{
		"standard urbanistici", "standard", "distanze", "distanza", "altezze", "densità",
		"indice di fabbricabilità", "volumetria", "superficie", "parcheggi", "verde pubblico",
	})},
	{Name: "ambiente", Weight: 0.6, Matcher: lexicon.NewMatcher([]string{
		"ambiente", "ambientale", "valutazione ambientale strategica", "vas", "inquinamento",
		"rifiuti", "acque", "energetico", "energetica", "suolo",
	})},
	{Name: "procedimento", Weight: 0.5, Matcher: lexicon.NewMatcher([]string{
		"procedimento", "istanza", "conferenza di servizi", "silenzio assenso", "provvedimento",
		"responsabile del procedimento", "ricorso", "autorizzazione", "termine",
	})},
}

// statusRule maps a keyword pattern to a status. Order is priority.
type statusRule struct {
	Status  domain.LegalStatus
	Pattern *regexp.Regexp
}

var statusRules = []statusRule{
	{domain.StatusAbrogato, regexp.MustCompile(`(?i)\babrogat[oaie]\b`)},
	{domain.StatusSospeso, regexp.MustCompile(`(?i)\bsospes[oaie]\b`)},
	{domain.StatusDecaduto, regexp.MustCompile(`(?i)\bdecadut[oaie]\b`)},
	{domain.StatusModificato, regexp.MustCompile(`(?i)\bmodificat[oaie]\b`)},
}

var (
	vigentePattern      = regexp.MustCompile(`(?i)\bvigent[ei]\b`)
	modificationPattern = regexp.MustCompile(`(?i)\bmodificat[oaie]\s+(?:dagli|dalle|dalla|dall'|dal|da)\s*([^.;\n]{3,80})`)
	numberPattern       = regexp.MustCompile(`(?i)\bn\.\s*(\d+(?:/\d{2,4})?)`)
	slashNumberPattern  = regexp.MustCompile(`\b(\d{1,4})/((?:19|20)\d{2})\b`)
	longDatePattern     = regexp.MustCompile(`(?i)\b(\d{1,2})(?:°|º)?\s+(gennaio|febbraio|marzo|aprile|maggio|giugno|luglio|agosto|settembre|ottobre|novembre|dicembre)\s+((?:19|20)\d{2})\b`)
	shortDatePattern    = regexp.MustCompile(`\b(\d{1,2})[/.-](\d{1,2})[/.-]((?:19|20)\d{2})\b`)
	yearPattern         = regexp.MustCompile(`\b((?:19|20)\d{2})\b`)
)

var months = map[string]int{
	"gennaio": 1, "febbraio": 2, "marzo": 3, "aprile": 4, "maggio": 5, "giugno": 6,
	"luglio": 7, "agosto": 8, "settembre": 9, "ottobre": 10, "novembre": 11, "dicembre": 12,
}

// localMarkers indicate a municipal act.
var localMarkers = lexicon.NewMatcher([]string{"comune", "comunale", "consiglio comunale", "giunta comunale"})
