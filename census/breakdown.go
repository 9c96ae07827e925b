package census

// Group identifiers, also used in chart URLs.
const (
	GroupSex     = "sexo"
	GroupArea    = "area"
	GroupAge     = "edad"
	GroupPeoples = "pueblos"
)

var (
	sexFields = []Field{
		{"total_sexo_hombre", "Hombres"},
		{"total_sexo_mujeres", "Mujeres"},
	}
	areaFields = []Field{
		{"total_sector_urbano", "Urbana"},
		{"total_sector_rural", "Rural"},
	}
	ageFields = []Field{
		{"pob_edad_014", "0–14"},
		{"pob_edad_1564", "15–64"},
		{"pob_edad_65", "65+"},
	}
	peopleFields = []Field{
		{"pob_pueblo_maya", "Maya"},
		{"pob_pueblo_garifuna", "Garífuna"},
		{"pob_pueblo_xinca", "Xinca"},
		{"pob_pueblo_afrodescendiente", "Afrodescendiente/Creole"},
		{"pob_pueblo_ladino", "Ladino"},
		{"pob_pueblo_extranjero", "Extranjero"},
	}
)

const masculinityField = "indice_masculinidad"

// Bar is one part of a breakdown. Percent is the share of the card's own
// total; Width is Percent clamped to [0,100].
type Bar struct {
	Key     string
	Label   string
	Value   float64
	Percent float64
	Width   float64
}

// Text is the bar caption, "<label> (<formatted value>)".
func (b Bar) Text() string {
	return b.Label + " (" + FormatNumber(b.Value) + ")"
}

// PercentText is the bar's share with one decimal place.
func (b Bar) PercentText() string {
	return FormatPercent(b.Percent) + "%"
}

// Card is one rendered breakdown.
type Card struct {
	Group string
	Title string
	Bars  []Bar
	Total float64
	// Note is an auxiliary markup-safe statistic shown under the bars.
	Note string
}

// RenderBreakdownCards evaluates each breakdown group against d and
// returns the cards whose fields are present, in fixed order: sex, area,
// age, peoples.
func RenderBreakdownCards(d Dataset) []Card {
	var cards []Card
	for _, build := range []func(Dataset) (Card, bool){sexCard, areaCard, ageCard, peoplesCard} {
		if c, ok := build(d); ok {
			cards = append(cards, c)
		}
	}
	return cards
}

// BreakdownCard returns the card for one group, if d supports it.
func BreakdownCard(d Dataset, group string) (Card, bool) {
	for _, c := range RenderBreakdownCards(d) {
		if c.Group == group {
			return c, true
		}
	}
	return Card{}, false
}

func sexCard(d Dataset) (Card, bool) {
	if !allPresent(d, sexFields) {
		return Card{}, false
	}
	c := newCard(GroupSex, "Población por sexo", d, sexFields)
	if d.Present(masculinityField) {
		c.Note = "Índice de masculinidad: " + FormatValue(d[masculinityField]) + " (H/100M)"
	}
	return c, true
}

func areaCard(d Dataset) (Card, bool) {
	if !allPresent(d, areaFields) {
		return Card{}, false
	}
	return newCard(GroupArea, "Población por área", d, areaFields), true
}

// ageCard is shown when any band is present; absent bands count as zero.
func ageCard(d Dataset) (Card, bool) {
	if !anyPresent(d, ageFields) {
		return Card{}, false
	}
	return newCard(GroupAge, "Población por grandes grupos de edad", d, ageFields), true
}

// peoplesCard drops absent groups entirely instead of zero-filling them.
func peoplesCard(d Dataset) (Card, bool) {
	var fields []Field
	for _, f := range peopleFields {
		if d.Present(f.Key) {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return Card{}, false
	}
	return newCard(GroupPeoples, "Población por pueblos", d, fields), true
}

func newCard(group, title string, d Dataset, fields []Field) Card {
	values := make([]float64, len(fields))
	var total float64
	for i, f := range fields {
		values[i] = ToNumber(d[f.Key])
		total += values[i]
	}

	c := Card{Group: group, Title: title, Total: total, Bars: make([]Bar, len(fields))}
	for i, f := range fields {
		p := PercentOf(values[i], total)
		c.Bars[i] = Bar{
			Key:     f.Key,
			Label:   f.Label,
			Value:   values[i],
			Percent: p,
			Width:   ClampPercent(p),
		}
	}
	return c
}

func allPresent(d Dataset, fields []Field) bool {
	for _, f := range fields {
		if !d.Present(f.Key) {
			return false
		}
	}
	return true
}

func anyPresent(d Dataset, fields []Field) bool {
	for _, f := range fields {
		if d.Present(f.Key) {
			return true
		}
	}
	return false
}
