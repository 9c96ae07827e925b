package cmd

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/zalepa/censo/dashboard"
)

// Share implements the "share" subcommand: print the dashboard link that
// opens with a municipality selected.
func Share(args []string) {
	fs := flag.NewFlagSet("share", flag.ExitOnError)
	cfgPath := configFlag(fs)
	base := fs.String("base", "", "dashboard URL (default: http://localhost<listen>/)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: censo share [municipality] [-base url]\n\nPrint a link to the dashboard with a municipality selected.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	args = reorderArgs(args)
	fs.Parse(args)

	cfg, _ := mustConfig(*cfgPath)
	query := cfg.Default
	if fs.NArg() > 0 {
		query = strings.Join(fs.Args(), " ")
	}
	m, err := resolveMunicipality(cfg.Municipalities, query)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	link, err := shareLink(*base, cfg.Listen, m.Code)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(link)
}

// shareLink builds the deep link for code on base, or on the local server
// listening at listen when base is empty.
func shareLink(base, listen, code string) (string, error) {
	if base == "" {
		host := listen
		if strings.HasPrefix(host, ":") {
			host = "localhost" + host
		}
		base = "http://" + host + "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("base url %q is not absolute", base)
	}
	return dashboard.ShareURL(u, code), nil
}
