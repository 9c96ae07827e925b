package cmd

import (
	"bytes"
	"encoding/json"
	"image/png"
	"strings"
	"testing"

	"github.com/zalepa/censo/census"
	"github.com/zalepa/censo/dashboard"
)

func guastatoyaState(t *testing.T) dashboard.State {
	t.Helper()
	var d census.Dataset
	if err := json.Unmarshal([]byte(guastatoyaJSON), &d); err != nil {
		t.Fatal(err)
	}
	return dashboard.State{Code: "201", Dataset: d}
}

func TestPdfText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"0–14", "0-14"},
		{"Censo 2018 — Sanarate", "Censo 2018 - Sanarate"},
		{"&lt;b&gt; &amp; co", "<b> & co"},
		{"Población", "Población"},
	}
	for _, tt := range tests {
		if got := pdfText(tt.input); got != tt.want {
			t.Errorf("pdfText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestWriteCardPNG(t *testing.T) {
	card, ok := census.BreakdownCard(guastatoyaState(t).Dataset, census.GroupAge)
	if !ok {
		t.Fatal("age card missing")
	}
	var buf bytes.Buffer
	if err := writeCardPNG(&buf, card); err != nil {
		t.Fatalf("writeCardPNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() <= b.Dy() {
		t.Errorf("chart is %dx%d, want landscape", b.Dx(), b.Dy())
	}
}

func TestRenderReport(t *testing.T) {
	v := dashboard.Render(guastatoyaState(t))
	if len(v.Cards) != 4 {
		t.Fatalf("got %d cards, want 4", len(v.Cards))
	}

	data, err := renderReport("Censo 2018 - Guastatoya (201)", v)
	if err != nil {
		t.Fatalf("renderReport: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
	pages, err := verifyReport(data)
	if err != nil {
		t.Fatalf("verifyReport: %v", err)
	}
	// Four cards do not fit below the highlights on one page.
	if pages < 2 {
		t.Errorf("got %d pages, want at least 2", pages)
	}
}

func TestRenderReport_ErrorState(t *testing.T) {
	v := dashboard.Render(dashboard.State{Code: "202", Err: &census.FetchError{Code: "202", Status: 500}})
	data, err := renderReport("Censo 2018 - Morazán (202)", v)
	if err != nil {
		t.Fatalf("renderReport: %v", err)
	}
	pages, err := verifyReport(data)
	if err != nil {
		t.Fatalf("verifyReport: %v", err)
	}
	if pages != 1 {
		t.Errorf("got %d pages, want 1", pages)
	}
}

func TestVerifyReport_Garbage(t *testing.T) {
	if _, err := verifyReport([]byte("not a pdf")); err == nil {
		t.Fatal("expected error")
	}
}

func TestReportExporter(t *testing.T) {
	exp := reportExporter(func(code string) string {
		if code == "201" {
			return "Guastatoya"
		}
		return code
	})
	dl, err := exp(guastatoyaState(t))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if dl.Filename != "censo_el_progreso_201.pdf" {
		t.Errorf("Filename = %q", dl.Filename)
	}
	if dl.ContentType != "application/pdf" {
		t.Errorf("ContentType = %q", dl.ContentType)
	}
	if !strings.HasPrefix(string(dl.Body[:4]), "%PDF") {
		t.Error("body is not a PDF")
	}
}
