package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zalepa/censo/config"
	"github.com/zalepa/censo/dashboard"
)

// Export implements the "export" subcommand.
func Export(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	cfgPath := configFlag(fs)
	format := fs.String("format", "json", "output format: json, csv, xlsx, pdf")
	out := fs.String("o", "", "output file or directory (default: censo_el_progreso_<code>.<format> in the current directory)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: censo export [municipality] [flags]

Download a municipality's indicators and write them to a file.

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  censo export 201
  censo export sanarate -format xlsx -o ./out
  censo export "El Jícaro" -format pdf -o jicaro.pdf
`)
	}
	args = reorderArgs(args)
	fs.Parse(args)

	cfg, log := mustConfig(*cfgPath)
	query := cfg.Default
	if fs.NArg() > 0 {
		query = strings.Join(fs.Args(), " ")
	}
	m, err := resolveMunicipality(cfg.Municipalities, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	path, err := exportMunicipality(context.Background(), cfg, cfg.Client(log), log, m, *format, *out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", path)
}

// newDispatcher returns a dispatcher that also exports PDF reports.
func newDispatcher(cfg *config.Config) *dashboard.Dispatcher {
	d := dashboard.NewDispatcher(cfg.HasCode)
	d.RegisterExporter("pdf", reportExporter(func(code string) string {
		return municipalityName(cfg.Municipalities, code)
	}))
	return d
}

// exportFormats lists d's formats, builtin ones first.
func exportFormats(d *dashboard.Dispatcher) []string {
	order := []string{"json", "csv", "xlsx", "pdf"}
	formats := d.Formats()
	slices.SortFunc(formats, func(a, b string) int {
		ia, ib := slices.Index(order, a), slices.Index(order, b)
		if ia < 0 {
			ia = len(order)
		}
		if ib < 0 {
			ib = len(order)
		}
		if ia != ib {
			return ia - ib
		}
		return strings.Compare(a, b)
	})
	return formats
}

// exportMunicipality loads m and writes it in format. out may name a file, an
// existing directory, or be empty for the working directory. It returns the
// path written.
func exportMunicipality(ctx context.Context, cfg *config.Config, loader dashboard.Loader, log *slog.Logger, m config.Municipality, format, out string) (string, error) {
	d := newDispatcher(cfg)
	sess := dashboard.NewSession("cli", loader, m.Code, log)

	res, err := d.Dispatch(ctx, sess, dashboard.IntentSelect, dashboard.Request{Code: m.Code})
	if err != nil {
		return "", err
	}
	if res.View.Error != "" {
		return "", fmt.Errorf("%s: %s", m.Name, sess.State().Err)
	}

	res, err = d.Dispatch(ctx, sess, dashboard.IntentExport, dashboard.Request{Format: format})
	if err != nil {
		return "", fmt.Errorf("%w (formats: %s)", err, strings.Join(exportFormats(d), ", "))
	}
	dl := res.Download

	path := out
	if path == "" {
		path = dl.Filename
	} else if st, err := os.Stat(path); err == nil && st.IsDir() {
		path = filepath.Join(path, dl.Filename)
	}
	if err := os.WriteFile(path, dl.Body, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	attrs := []any{slog.String("code", m.Code), slog.String("path", path), slog.Int("bytes", len(dl.Body))}
	if strings.EqualFold(format, "pdf") {
		if pages, err := verifyReport(dl.Body); err == nil {
			attrs = append(attrs, slog.Int("pages", pages))
		}
	}
	log.Info("exported", attrs...)
	return path, nil
}
