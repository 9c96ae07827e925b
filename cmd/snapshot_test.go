package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalepa/censo/config"
)

func TestSnapshot(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(u)
	cfg.Municipalities = []config.Municipality{
		{Code: "201", Name: "Guastatoya"},
		{Code: "202", Name: "Morazán"},
		{Code: "203", Name: "San Agustín Acasaguastlán"},
	}
	log := testLogger()
	dir := t.TempDir()

	existing := filepath.Join(dir, "censo_el_progreso_203.json")
	if err := os.WriteFile(existing, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := snapshot(context.Background(), cfg, cfg.Client(log), log, dir, "json", 2)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	want := snapshotResult{Written: 1, Skipped: 1, Failed: 1}
	if res != want {
		t.Errorf("got %+v, want %+v", res, want)
	}

	data, err := os.ReadFile(filepath.Join(dir, "censo_el_progreso_201.json"))
	if err != nil {
		t.Fatalf("201 not written: %v", err)
	}
	if !strings.Contains(string(data), `"nombre": "Guastatoya"`) {
		t.Errorf("unexpected 201 export:\n%s", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "censo_el_progreso_202.json")); !os.IsNotExist(err) {
		t.Error("failed municipality left a file behind")
	}
	if data, _ := os.ReadFile(existing); string(data) != "{}" {
		t.Error("existing file was overwritten")
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	for _, c := range u.calls {
		if c == "203" {
			t.Error("existing municipality was fetched")
		}
	}
}

func TestSnapshot_BadFormat(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(u)
	log := testLogger()

	_, err := snapshot(context.Background(), cfg, cfg.Client(log), log, t.TempDir(), "docx", 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(u.calls) != 0 {
		t.Errorf("upstream called %d times", len(u.calls))
	}
}

func TestExportMunicipality(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(u)
	log := testLogger()
	dir := t.TempDir()

	tests := []struct {
		format string
		out    string
		want   string
	}{
		{"csv", dir, filepath.Join(dir, "censo_el_progreso_201.csv")},
		{"XLSX", dir, filepath.Join(dir, "censo_el_progreso_201.xlsx")},
		{"json", filepath.Join(dir, "g.json"), filepath.Join(dir, "g.json")},
	}
	for _, tt := range tests {
		path, err := exportMunicipality(context.Background(), cfg, cfg.Client(log), log, config.ElProgreso[0], tt.format, tt.out)
		if err != nil {
			t.Errorf("%s: %v", tt.format, err)
			continue
		}
		if path != tt.want {
			t.Errorf("%s: path = %q, want %q", tt.format, path, tt.want)
		}
		if st, err := os.Stat(path); err != nil || st.Size() == 0 {
			t.Errorf("%s: file missing or empty", tt.format)
		}
	}
}

func TestExportMunicipality_Errors(t *testing.T) {
	u := newUpstream(t)
	cfg := testConfig(u)
	log := testLogger()
	dir := t.TempDir()

	_, err := exportMunicipality(context.Background(), cfg, cfg.Client(log), log, config.ElProgreso[1], "json", dir)
	if err == nil || !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("got %v, want HTTP 500 error", err)
	}

	_, err = exportMunicipality(context.Background(), cfg, cfg.Client(log), log, config.ElProgreso[0], "docx", dir)
	if err == nil || !strings.Contains(err.Error(), "formats: json, csv, xlsx, pdf") {
		t.Errorf("got %v, want unsupported format error listing formats", err)
	}
}

func TestShareLink(t *testing.T) {
	tests := []struct {
		base, listen, code string
		want               string
	}{
		{"", ":8080", "205", "http://localhost:8080/?m=205"},
		{"", "127.0.0.1:9000", "201", "http://127.0.0.1:9000/?m=201"},
		{"https://censo.example.org/dash?x=1#top", "", "207", "https://censo.example.org/dash?m=207&x=1"},
		{"https://censo.example.org/?m=201", "", "208", "https://censo.example.org/?m=208"},
	}
	for _, tt := range tests {
		got, err := shareLink(tt.base, tt.listen, tt.code)
		if err != nil {
			t.Errorf("shareLink(%q, %q): %v", tt.base, tt.listen, err)
			continue
		}
		if got != tt.want {
			t.Errorf("shareLink(%q, %q, %q) = %q, want %q", tt.base, tt.listen, tt.code, got, tt.want)
		}
	}

	if _, err := shareLink("/relative", "", "201"); err == nil {
		t.Error("expected error for relative base")
	}
}
