// Package census shapes indicator datasets from the census API into the
// table, highlight and breakdown views of the dashboard.
package census

import (
	"strconv"
)

// Dataset maps indicator names to the scalar values returned by the
// indicators API for one municipality. A dataset is replaced as a whole on
// every successful load and never modified in place.
type Dataset map[string]any

// Present reports whether key exists in d with a non-null value.
func (d Dataset) Present(key string) bool {
	v, ok := d[key]
	return ok && v != nil
}

// Field pairs a dataset key with its display label.
type Field struct {
	Key   string
	Label string
}

// datasetFrom projects a decoded JSON document onto a Dataset. Objects map
// directly; arrays and text expand to index keys, one entry per element or
// character; any other value yields an empty dataset.
func datasetFrom(v any) Dataset {
	switch x := v.(type) {
	case map[string]any:
		return Dataset(x)
	case []any:
		d := make(Dataset, len(x))
		for i, e := range x {
			d[strconv.Itoa(i)] = e
		}
		return d
	case string:
		d := make(Dataset, len(x))
		i := 0
		for _, r := range x {
			d[strconv.Itoa(i)] = string(r)
			i++
		}
		return d
	}
	return Dataset{}
}
