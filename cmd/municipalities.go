package cmd

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/zalepa/censo/config"
)

// leadingArticles are dropped from names before comparing. Longer articles
// come first so "LOS" is tried before "LO".
var leadingArticles = []string{"LOS", "LAS", "EL", "LA"}

// foldName uppercases name, strips diacritics and collapses whitespace, so
// "el jicaro" and "El Jícaro" compare equal.
func foldName(name string) string {
	var sb strings.Builder
	for _, r := range norm.NFD.String(name) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		sb.WriteRune(unicode.ToUpper(r))
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// stripArticle removes a leading article ("EL", "LA", ...) from a folded
// name. "ELJICARO" is left alone: the article must be a separate word.
func stripArticle(folded string) string {
	for _, a := range leadingArticles {
		if strings.HasPrefix(folded, a+" ") {
			return folded[len(a)+1:]
		}
	}
	return folded
}

// resolveMunicipality finds the municipality named by query: an exact code,
// then a folded name with or without its article, then a unique prefix of
// the name.
func resolveMunicipality(list []config.Municipality, query string) (config.Municipality, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return config.Municipality{}, fmt.Errorf("no municipality given")
	}
	for _, m := range list {
		if m.Code == q {
			return m, nil
		}
	}

	fq := foldName(q)
	for _, m := range list {
		if foldName(m.Name) == fq {
			return m, nil
		}
	}
	bare := stripArticle(fq)
	for _, m := range list {
		if stripArticle(foldName(m.Name)) == bare {
			return m, nil
		}
	}

	var matches []config.Municipality
	for _, m := range list {
		fn := foldName(m.Name)
		if strings.HasPrefix(fn, fq) || strings.HasPrefix(stripArticle(fn), bare) {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return config.Municipality{}, fmt.Errorf("unknown municipality %q", query)
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = fmt.Sprintf("%s (%s)", m.Name, m.Code)
	}
	sort.Strings(names)
	return config.Municipality{}, fmt.Errorf("ambiguous municipality %q: %s", query, strings.Join(names, ", "))
}

// municipalityName returns the configured name for code, or code itself.
func municipalityName(list []config.Municipality, code string) string {
	for _, m := range list {
		if m.Code == code {
			return m.Name
		}
	}
	return code
}

// List implements the "list" subcommand.
func List(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	cfgPath := configFlag(fs)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: censo list [-config file]\n\nList the configured municipalities.\n\nFlags:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	cfg, _ := mustConfig(*cfgPath)
	printMunicipalities(os.Stdout, cfg)
}

func printMunicipalities(w io.Writer, cfg *config.Config) {
	for _, m := range cfg.Municipalities {
		marker := " "
		if m.Code == cfg.Default {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %-6s %s\n", marker, m.Code, m.Name)
	}
}
