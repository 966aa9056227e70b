package fabriclog

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// buildPrompt appends the document to a plain template for providers that
// cannot render variables.
func buildPrompt(tpl string, keys []string, doc string) string {
	slog.Debug("starting prompt construction", "template_length", len(tpl), "keys_count", len(keys), "document_length", len(doc))

	if strings.Contains(tpl, "{{.Keys}}") {
		tpl = strings.ReplaceAll(tpl, "{{.Keys}}", strings.Join(keys, ","))
	}
	if doc == "" {
		return tpl
	}
	return tpl + "\n\n<<DOC>>\n" + doc + "\n<<END>>"
}

var numberRE = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// normalizeNumeric folds full-width characters and drops thousands separators.
func normalizeNumeric(s string) string {
	s = width.Narrow.String(s)
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

// parseNumber returns the first number found in s, so "2,000円" is 2000 and
// "¥ 869 (税込)" is 869.
func parseNumber(s string) (float64, bool) {
	m := numberRE.FindString(normalizeNumeric(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// parseLength reads a length in meters. Centimeter and millimeter suffixes
// are converted.
func parseLength(s string) (float64, bool) {
	n := strings.ToLower(normalizeNumeric(s))
	f, ok := parseNumber(n)
	if !ok {
		return 0, false
	}
	switch {
	case strings.Contains(n, "mm"):
		f /= 1000
	case strings.Contains(n, "cm"), strings.Contains(n, "センチ"):
		f /= 100
	}
	return f, true
}

// coerceNumber accepts decoded JSON numbers and numeric-looking strings.
func coerceNumber(v any, parse func(string) (float64, bool)) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		return parse(n)
	default:
		return 0, false
	}
}

// coerceText renders scalars as text and blanks anything structured.
func coerceText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := coerceText(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// FormatLength renders meters without trailing zeros.
func FormatLength(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}
