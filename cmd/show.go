package cmd

import (
	"context"
	"flag"
	"fmt"
	"html"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/zalepa/censo/dashboard"
)

const barCells = 30

// Show implements the "show" subcommand: load one municipality and print
// its dashboard to the terminal.
func Show(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	cfgPath := configFlag(fs)
	filter := fs.String("q", "", "only list indicators whose key or value contains this text")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: censo show [municipality] [flags]

Print a municipality's highlights, breakdowns and indicators.

Flags:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  censo show 201
  censo show "el jicaro" -q hogares
`)
	}
	args = reorderArgs(args)
	fs.Parse(args)

	cfg, log := mustConfig(*cfgPath)
	m, err := resolveMunicipality(cfg.Municipalities, cfg.Default)
	if fs.NArg() > 0 {
		m, err = resolveMunicipality(cfg.Municipalities, strings.Join(fs.Args(), " "))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	sess := dashboard.NewSession("cli", cfg.Client(log), m.Code, log)
	d := newDispatcher(cfg)
	res, err := d.Dispatch(context.Background(), sess, dashboard.IntentSelect, dashboard.Request{Code: m.Code})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *filter != "" {
		res, err = d.Dispatch(context.Background(), sess, dashboard.IntentFilter, dashboard.Request{Filter: *filter})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		v := dashboard.Render(sess.State())
		res.View = &v
	}

	renderTerminal(os.Stdout, fmt.Sprintf("Censo 2018 — %s (%s)", m.Name, m.Code), *res.View)
	if res.View.Error != "" {
		os.Exit(1)
	}
}

// renderTerminal prints a rendered view as plain text. Markup-escaped values
// are unescaped for the terminal.
func renderTerminal(w io.Writer, title string, v dashboard.View) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("─", utf8.RuneCountInString(title)))

	if v.Error != "" {
		fmt.Fprintln(w, html.UnescapeString(v.Error))
		return
	}

	if len(v.Highlights) > 0 {
		fmt.Fprintln(w)
		width := 0
		for _, h := range v.Highlights {
			width = max(width, utf8.RuneCountInString(h.Label))
		}
		for _, h := range v.Highlights {
			fmt.Fprintf(w, "%s  %s\n", padRight(h.Label, width), html.UnescapeString(h.Value))
		}
	}

	for _, c := range v.Cards {
		fmt.Fprintf(w, "\n%s\n", c.Title)
		width := 0
		for _, b := range c.Bars {
			width = max(width, utf8.RuneCountInString(html.UnescapeString(b.Text())))
		}
		for _, b := range c.Bars {
			fmt.Fprintf(w, "  %s  %s %6s\n", padRight(html.UnescapeString(b.Text()), width), blockBar(b.Width), b.PercentText())
		}
		if c.Note != "" {
			fmt.Fprintf(w, "  %s\n", html.UnescapeString(c.Note))
		}
	}

	fmt.Fprintf(w, "\n%d ítems", v.Table.Count)
	if v.Filter != "" {
		fmt.Fprintf(w, " (filtro: %q)", v.Filter)
	}
	fmt.Fprintln(w)

	width := 10
	for _, r := range v.Table.Rows {
		width = max(width, utf8.RuneCountInString(html.UnescapeString(r.Key)))
	}
	for _, r := range v.Table.Rows {
		fmt.Fprintf(w, "%s  %s\n", padRight(html.UnescapeString(r.Key), width), html.UnescapeString(r.Value))
	}
}

// blockBar draws pct (0–100) as a fixed-width bar of full and light blocks.
func blockBar(pct float64) string {
	filled := int(math.Round(pct / 100 * barCells))
	filled = min(max(filled, 0), barCells)
	return strings.Repeat("█", filled) + strings.Repeat("░", barCells-filled)
}

func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
