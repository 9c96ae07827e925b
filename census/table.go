package census

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
)

// Row is one rendered key/value pair. Both fields are markup-safe.
type Row struct {
	Key   string
	Value string
}

// Table is the filtered listing of a dataset.
type Table struct {
	Count int
	Rows  []Row
}

// RenderTable lists every pair of d whose key or value contains filter,
// case-insensitively, sorted by key in Spanish collation order. An empty
// filter keeps every pair.
func RenderTable(d Dataset, filter string) Table {
	q := strings.ToLower(strings.TrimSpace(filter))

	keys := make([]string, 0, len(d))
	for k, v := range d {
		if q == "" || strings.Contains(strings.ToLower(k), q) || strings.Contains(strings.ToLower(Stringify(v)), q) {
			keys = append(keys, k)
		}
	}
	SortKeys(keys)

	rows := make([]Row, len(keys))
	for i, k := range keys {
		rows[i] = Row{Key: EscapeText(k), Value: FormatValue(d[k])}
	}
	return Table{Count: len(rows), Rows: rows}
}

// SortKeys orders keys the way the table lists them.
func SortKeys(keys []string) {
	// Collators keep internal buffers, so each sort gets its own.
	c := collate.New(Locale)
	sort.SliceStable(keys, func(i, j int) bool {
		if r := c.CompareString(keys[i], keys[j]); r != 0 {
			return r < 0
		}
		return keys[i] < keys[j]
	})
}
