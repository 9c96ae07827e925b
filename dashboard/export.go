package dashboard

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/xuri/excelize/v2"

	"github.com/zalepa/censo/census"
)

// FilePrefix starts every exported file name; the municipality code follows.
const FilePrefix = "censo_el_progreso_"

// DeepLinkParam is the query parameter carrying the selected municipality.
const DeepLinkParam = "m"

// Download is an exported file.
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Exporter serializes the current dataset.
type Exporter func(s State) (Download, error)

// DefaultExporters are the formats every dispatcher understands.
func DefaultExporters() map[string]Exporter {
	return map[string]Exporter{
		"json": ExportJSON,
		"csv":  ExportCSV,
		"xlsx": ExportXLSX,
	}
}

// Filename returns the export file name for code and extension ext.
func Filename(code, ext string) string {
	return FilePrefix + code + "." + ext
}

// ExportJSON writes the whole dataset as two-space indented JSON.
func ExportJSON(s State) (Download, error) {
	d := s.Dataset
	if d == nil {
		d = census.Dataset{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return Download{}, fmt.Errorf("encode dataset: %w", err)
	}
	return Download{
		Filename:    Filename(s.Code, "json"),
		ContentType: "application/json",
		Body:        bytes.TrimSuffix(buf.Bytes(), []byte("\n")),
	}, nil
}

// ExportCSV writes one key,value row per dataset entry in table order.
func ExportCSV(s State) (Download, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"indicador", "valor"}); err != nil {
		return Download{}, err
	}
	for _, k := range sortedKeys(s.Dataset) {
		if err := w.Write([]string{k, rawText(s.Dataset[k])}); err != nil {
			return Download{}, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Download{}, fmt.Errorf("write csv: %w", err)
	}
	return Download{
		Filename:    Filename(s.Code, "csv"),
		ContentType: "text/csv; charset=utf-8",
		Body:        buf.Bytes(),
	}, nil
}

const sheetName = "Indicadores"

// ExportXLSX writes the dataset to a single worksheet. Numeric values are
// stored as numbers so they stay usable in formulas.
func ExportXLSX(s State) (Download, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return Download{}, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return Download{}, fmt.Errorf("delete default sheet: %w", err)
	}
	if err := writeSheet(f, sheetName, s.Dataset); err != nil {
		return Download{}, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Download{}, fmt.Errorf("write xlsx: %w", err)
	}
	return Download{
		Filename:    Filename(s.Code, "xlsx"),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Body:        buf.Bytes(),
	}, nil
}

// writeSheet fills sheet with a styled header row and one row per entry.
func writeSheet(f *excelize.File, sheet string, d census.Dataset) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4F46E5"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &[]any{"indicador", "valor"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	if err := f.SetColWidth(sheet, "A", "A", 32); err != nil {
		return fmt.Errorf("column width: %w", err)
	}
	if err := f.SetColWidth(sheet, "B", "B", 20); err != nil {
		return fmt.Errorf("column width: %w", err)
	}

	for i, k := range sortedKeys(d) {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &[]any{k, cellValue(d[k])}); err != nil {
			return fmt.Errorf("write %s: %w", k, err)
		}
	}
	return nil
}

// ShareURL returns page with the deep-link parameter set to code.
func ShareURL(page *url.URL, code string) string {
	u := *page
	q := u.Query()
	q.Set(DeepLinkParam, code)
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String()
}

// ResolveDeepLink returns the municipality named by the deep-link
// parameter when it is one of codes, and fallback otherwise.
func ResolveDeepLink(query url.Values, codes []string, fallback string) string {
	m := query.Get(DeepLinkParam)
	if m == "" {
		return fallback
	}
	for _, c := range codes {
		if c == m {
			return m
		}
	}
	return fallback
}

func sortedKeys(d census.Dataset) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	census.SortKeys(keys)
	return keys
}

func rawText(v any) string {
	if v == nil {
		return ""
	}
	return census.Stringify(v)
}

func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case float64, bool:
		return x
	case string:
		return x
	}
	return census.Stringify(v)
}
