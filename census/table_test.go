package census

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowKeys(tb Table) []string {
	keys := make([]string, len(tb.Rows))
	for i, r := range tb.Rows {
		keys[i] = r.Key
	}
	return keys
}

func TestRenderTable_NoMatchesIsEmpty(t *testing.T) {
	tb := RenderTable(Dataset{"pob_total": 10.0}, "zz")
	assert.Equal(t, 0, tb.Count)
	keys := rowKeys(tb)
	sorted := slices.Clone(keys)
	SortKeys(sorted)
	assert.Equal(t, sorted, keys)
}

func TestRenderTable_Sorted(t *testing.T) {
	d := Dataset{"gamma": 3.0, "beta": 2.0, "Alpha": 1.0, "árbol": "x"}
	tb := RenderTable(d, "")
	assert.Equal(t, 4, tb.Count)
	assert.Equal(t, []string{"Alpha", "árbol", "beta", "gamma"}, rowKeys(tb))
}

func TestRenderTable_Filter(t *testing.T) {
	d := Dataset{
		"pob_total":     12345.0,
		"nombre":        "Guastatoya",
		"total_hogares": "3000",
		"edad_promedio": nil,
		"indice_<masc>": "Alto",
	}

	tests := []struct {
		filter string
		want   []string
	}{
		{"", []string{"edad_promedio", "indice_&lt;masc&gt;", "nombre", "pob_total", "total_hogares"}},
		{"TOTAL", []string{"pob_total", "total_hogares"}},
		{"  guasta ", []string{"nombre"}},
		{"123", []string{"pob_total"}},
		{"null", []string{"edad_promedio"}},
		{"alto", []string{"indice_&lt;masc&gt;"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		tb := RenderTable(d, tt.filter)
		assert.Equal(t, tt.want, rowKeys(tb), "filter %q", tt.filter)
		assert.Equal(t, len(tt.want), tb.Count, "filter %q", tt.filter)
	}
}

func TestRenderTable_FormatsValues(t *testing.T) {
	tb := RenderTable(Dataset{"pob_total": "12345", "nota": "<b>"}, "")
	require.Len(t, tb.Rows, 2)
	assert.Equal(t, Row{Key: "nota", Value: "&lt;b&gt;"}, tb.Rows[0])
	assert.Equal(t, Row{Key: "pob_total", Value: "12,345"}, tb.Rows[1])
}

func TestRenderTable_CountMatchesPredicate(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	words := []string{"pob", "edad", "total", "hogar", "maya", "rural", "urbano"}
	for iter := 0; iter < 50; iter++ {
		d := Dataset{}
		for i := 0; i < 12; i++ {
			k := fmt.Sprintf("%s_%d", words[rng.Intn(len(words))], rng.Intn(100))
			if rng.Intn(2) == 0 {
				d[k] = float64(rng.Intn(5000))
			} else {
				d[k] = words[rng.Intn(len(words))]
			}
		}
		q := words[rng.Intn(len(words))][:2]

		want := 0
		for k, v := range d {
			if strings.Contains(strings.ToLower(k), q) || strings.Contains(strings.ToLower(Stringify(v)), q) {
				want++
			}
		}

		tb := RenderTable(d, q)
		require.Equal(t, want, tb.Count)
		keys := rowKeys(tb)
		sorted := slices.Clone(keys)
		SortKeys(sorted)
		require.Equal(t, sorted, keys)
	}
}
