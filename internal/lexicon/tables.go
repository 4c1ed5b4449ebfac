package lexicon

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Tables are the keyword sets used for query classification.
// Regional keywords are administration terms; region names are
// always added on top of them.
type Tables struct {
	Legal         []string       `yaml:"legal"`
	Regional      []string       `yaml:"regional"`
	Urban         []string       `yaml:"urban"`
	Abbreviations []Abbreviation `yaml:"abbreviations"`
}

// DefaultTables returns the built-in Italian keyword sets.
func DefaultTables() Tables {
	return Tables{
		Legal: []string{
			"legge", "leggi", "decreto", "dlgs", "dpr", "dm", "dl",
			"articolo", "articoli", "comma", "normativa", "norma", "norme",
			"codice civile", "testo unico", "giurisprudenza", "sentenza", "tar",
			"consiglio di stato", "cassazione", "corte costituzionale", "ricorso",
			"diritto", "obbligo", "obblighi", "requisiti", "legale", "legali",
			"sanzione", "sanzioni", "responsabilità", "esproprio", "espropriazione",
			"pubblica utilità", "indennità", "abrogato", "abrogazione", "vigente",
			"circolare", "regolamento", "disciplina", "ai sensi", "adempimenti",
			"autorizzazione", "sanatoria", "condono", "illecito", "contenzioso",
			"vincolo",
		},
		Regional: []string{
			"regione", "regioni", "regionale", "regionali", "bur", "burl", "burc",
			"bollettino ufficiale regionale", "lr", "dgr", "giunta regionale",
			"consiglio regionale", "legge regionale", "provincia", "province",
			"territoriale",
		},
		Urban: []string{
			"urbanistica", "urbanistico", "urbanistici", "urbanistiche",
			"piano regolatore generale", "prg", "pgt", "piano di governo del territorio",
			"piano urbanistico", "zonizzazione", "destinazione d'uso",
			"cambio di destinazione", "residenziale", "residenziali", "edificio",
			"edifici", "edilizia", "edilizio", "distanze", "altezze", "volumetria",
			"cubatura", "superficie", "lotto", "permesso di costruire", "scia", "cila",
			"ristrutturazione", "nuova costruzione", "standard urbanistici",
			"oneri di urbanizzazione", "centro storico", "verde pubblico", "parcheggi",
			"titolo edilizio", "lottizzazione",
		},
		Abbreviations: []Abbreviation{
			{From: "d.lgs.", To: "dlgs"},
			{From: "d.lgs", To: "dlgs"},
			{From: "d.p.r.", To: "dpr"},
			{From: "d.m.", To: "dm"},
			{From: "d.l.", To: "dl"},
			{From: "l.r.", To: "lr"},
			{From: "d.g.r.", To: "dgr"},
			{From: "p.r.g.", To: "prg"},
			{From: "p.g.t.", To: "pgt"},
			{From: "t.u.", To: "testo unico"},
			{From: "c.c.", To: "codice civile"},
			{From: "s.m.i.", To: "successive modificazioni"},
			{From: "artt.", To: "articoli"},
			{From: "art.", To: "articolo"},
			{From: "l.", To: "legge"},
		},
	}
}

// LoadTables reads a YAML keyword table. Sections absent from the
// document keep their default values.
func LoadTables(r io.Reader) (Tables, error) {
	var override Tables
	if err := yaml.NewDecoder(r).Decode(&override); err != nil && err != io.EOF {
		return Tables{}, fmt.Errorf("decode keyword tables: %w", err)
	}

	tables := DefaultTables()
	if len(override.Legal) > 0 {
		tables.Legal = override.Legal
	}
	if len(override.Regional) > 0 {
		tables.Regional = override.Regional
	}
	if len(override.Urban) > 0 {
		tables.Urban = override.Urban
	}
	if len(override.Abbreviations) > 0 {
		tables.Abbreviations = override.Abbreviations
	}
	return tables, nil
}

// LoadTablesFile reads a YAML keyword table from path.
func LoadTablesFile(path string) (Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tables{}, fmt.Errorf("open keyword tables: %w", err)
	}
	defer f.Close()
	return LoadTables(f)
}

// Marshal renders tables as YAML, for writing a starting override file.
func (t Tables) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}
