package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/zalepa/censo/config"
	"github.com/zalepa/censo/dashboard"
)

// snapshotResult counts what a snapshot run did.
type snapshotResult struct {
	Written, Skipped, Failed int
}

// Snapshot implements the "snapshot" subcommand: export every configured
// municipality into a directory.
func Snapshot(args []string) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	cfgPath := configFlag(fs)
	dir := fs.String("dir", ".", "output directory")
	format := fs.String("format", "json", "output format: json, csv, xlsx, pdf")
	workers := fs.Int("workers", 2, "concurrent downloads")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: censo snapshot [-dir path] [-format json] [-workers 2]\n\nExport every configured municipality. Existing files are skipped.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	cfg, log := mustConfig(*cfgPath)
	if err := os.MkdirAll(*dir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "error creating output directory: %v\n", err)
		os.Exit(1)
	}

	res, err := snapshot(context.Background(), cfg, cfg.Client(log), log, *dir, *format, *workers)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Done: %d written, %d skipped, %d failed\n", res.Written, res.Skipped, res.Failed)
	if res.Failed > 0 {
		os.Exit(1)
	}
}

// snapshot exports each municipality to dir, at most workers at a time.
// A failed municipality is logged and counted; it does not stop the others.
func snapshot(ctx context.Context, cfg *config.Config, loader dashboard.Loader, log *slog.Logger, dir, format string, workers int) (snapshotResult, error) {
	format = strings.ToLower(format)
	if !slices.Contains(exportFormats(newDispatcher(cfg)), format) {
		return snapshotResult{}, fmt.Errorf("unsupported export format %q", format)
	}

	var written, skipped, failed atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for _, m := range cfg.Municipalities {
		outPath := filepath.Join(dir, dashboard.Filename(m.Code, format))
		if _, err := os.Stat(outPath); err == nil {
			log.Info("skip existing", slog.String("code", m.Code), slog.String("path", outPath))
			skipped.Add(1)
			continue
		}

		g.Go(func() error {
			if _, err := exportMunicipality(ctx, cfg, loader, log, m, format, outPath); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				log.Error("snapshot failed", slog.String("code", m.Code), slog.String("error", err.Error()))
				failed.Add(1)
				return nil
			}
			written.Add(1)
			return nil
		})
	}

	err := g.Wait()
	return snapshotResult{
		Written: int(written.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}, err
}
