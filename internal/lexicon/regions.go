package lexicon

// Region is an Italian region with its three-letter code.
type Region struct {
	Name    string
	Code    string
	Aliases []string
}

var regions = []Region{
	{Name: "Abruzzo", Code: "ABR"},
	{Name: "Basilicata", Code: "BAS"},
	{Name: "Calabria", Code: "CAL"},
	{Name: "Campania", Code: "CAM"},
	{Name: "Emilia-Romagna", Code: "EMR", Aliases: []string{"emilia romagna"}},
	{Name: "Friuli-Venezia Giulia", Code: "FVG", Aliases: []string{"friuli venezia giulia", "friuli"}},
	{Name: "Lazio", Code: "LAZ"},
	{Name: "Liguria", Code: "LIG"},
	{Name: "Lombardia", Code: "LOM"},
	{Name: "Marche", Code: "MAR"},
	{Name: "Molise", Code: "MOL"},
	{Name: "Piemonte", Code: "PIE"},
	{Name: "Puglia", Code: "PUG"},
	{Name: "Sardegna", Code: "SAR"},
	{Name: "Sicilia", Code: "SIC"},
	{Name: "Toscana", Code: "TOS"},
	{Name: "Trentino-Alto Adige", Code: "TAA", Aliases: []string{"trentino alto adige", "trentino", "alto adige"}},
	{Name: "Umbria", Code: "UMB"},
	{Name: "Valle d'Aosta", Code: "VDA", Aliases: []string{"valle d'aosta", "val d'aosta"}},
	{Name: "Veneto", Code: "VEN"},
}

// Regions returns the twenty Italian regions.
func Regions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}

// RegionByCode looks a region up by its code.
func RegionByCode(code string) (Region, bool) {
	for _, r := range regions {
		if r.Code == code {
			return r, true
		}
	}
	return Region{}, false
}

// RegionMatcher matches region names and aliases. Entry labels are
// region codes.
func RegionMatcher() *Matcher {
	m := &Matcher{}
	for _, r := range regions {
		m.add(r.Code, append([]string{r.Name}, r.Aliases...))
	}
	return m
}

// FindRegion returns the region mentioned earliest in tokens.
func FindRegion(tokens []string) (Region, bool) {
	code, ok := regionMatcher.First(tokens)
	if !ok {
		return Region{}, false
	}
	return RegionByCode(code)
}

var regionMatcher = RegionMatcher()
