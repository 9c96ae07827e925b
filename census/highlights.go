package census

// MaxHighlights caps how many highlight statistics are shown.
const MaxHighlights = 4

// HighlightFields lists the candidate highlight fields in priority order.
var HighlightFields = []Field{
	{"nombre", "Lugar"},
	{"pob_total", "Población total"},
	{"viviendas_part", "Viviendas particulares"},
	{"total_hogares", "Total hogares"},
	{"prom_personas_hogar", "Personas por hogar"},
	{"anios_prom_estudio", "Años prom. estudio"},
	{"edad_promedio", "Edad promedio"},
}

// Highlight is a labeled statistic. Value is markup-safe.
type Highlight struct {
	Key   string
	Label string
	Value string
}

// RenderHighlights returns the first MaxHighlights fields of
// HighlightFields present in d, in list order.
func RenderHighlights(d Dataset) []Highlight {
	var out []Highlight
	for _, f := range HighlightFields {
		if len(out) == MaxHighlights {
			break
		}
		if !d.Present(f.Key) {
			continue
		}
		out = append(out, Highlight{Key: f.Key, Label: f.Label, Value: FormatValue(d[f.Key])})
	}
	return out
}
