package census

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Locale is the display locale for every number rendered by the package.
var Locale = language.MustParse("es-GT")

var printer = message.NewPrinter(Locale)

var numericText = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

var textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeText renders v as text with &, < and > replaced by entities.
func EscapeText(v any) string {
	return textEscaper.Replace(Stringify(v))
}

// FormatNumber renders v with es-GT digit grouping when it coerces to a
// finite number, and falls back to EscapeText otherwise.
func FormatNumber(v any) string {
	x, ok := coerce(v)
	if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
		return EscapeText(v)
	}
	return printer.Sprint(number.Decimal(x, number.MaxFractionDigits(3)))
}

// FormatValue is the formatting entry point shared by the table and the
// highlights: numbers and numeric-looking text are grouped, anything else
// is escaped.
func FormatValue(v any) string {
	switch x := v.(type) {
	case float64, float32, int, int64, json.Number:
		return FormatNumber(x)
	case string:
		if numericText.MatchString(x) {
			return FormatNumber(x)
		}
	}
	return EscapeText(v)
}

// PercentOf returns part's share of total in percent, or 0 when the total
// is zero or the ratio is not finite.
func PercentOf(part, total float64) float64 {
	if total == 0 || math.IsNaN(total) {
		return 0
	}
	r := part / total
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return part * 100 / total
}

// ToNumber coerces v to a number. Missing fields and non-numeric text
// become 0 so they can be summed safely.
func ToNumber(v any) float64 {
	x, ok := coerce(v)
	if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// ClampPercent limits p to [0,100] for display widths.
func ClampPercent(p float64) float64 {
	return math.Max(0, math.Min(100, p))
}

// FormatPercent renders p with one decimal place. Exact halves round away
// from zero, so 12.25 is "12.3".
func FormatPercent(p float64) string {
	// Only odd multiples of 0.25 sit exactly halfway at one decimal.
	if q := p * 4; q == math.Trunc(q) && math.Abs(q) < 1<<52 && math.Mod(q, 2) != 0 {
		p = math.Round(p*10) / 10
	}
	return strconv.FormatFloat(p, 'f', 1, 64)
}

// Stringify returns the text form of a decoded JSON value.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(x); err != nil {
			return ""
		}
		return strings.TrimSuffix(buf.String(), "\n")
	}
}

func formatFloat(x float64) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	}
	if a := math.Abs(x); a >= 1e21 || (a != 0 && a < 1e-6) {
		// Exponent form without zero padding: 1e+21, 1.5e-7.
		mant, exp, _ := strings.Cut(strconv.FormatFloat(x, 'e', -1, 64), "e")
		return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
	}
	return strconv.FormatFloat(x, 'f', -1, 64)
}

// coerce converts v to a float64 the way a browser's Number() would for
// the value kinds JSON can produce.
func coerce(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, true
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		return parseNumericText(x)
	}
	return 0, false
}

func parseNumericText(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	// ParseFloat accepts spellings such as "inf", "nan" and "1_000" that
	// are not numbers in the upstream data.
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(s, "_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
