package httpsec

import (
	"html"
	"strings"
)

// Sanitize walks a response value and escapes HTML-significant characters in
// every string it finds. Non-string leaves are returned untouched and strings
// without markup come back unchanged, so sanitizing twice is a no-op.
func Sanitize(value any) any {
	switch v := value.(type) {
	case string:
		return sanitizeString(v)
	case []string:
		out := make([]string, len(v))
		for i, item := range v {
			out[i] = sanitizeString(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Sanitize(item)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(v))
		for key, item := range v {
			out[key] = sanitizeString(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = Sanitize(item)
		}
		return out
	default:
		return value
	}
}

func sanitizeString(s string) string {
	if !strings.ContainsAny(s, `<>&"'`) {
		return s
	}
	return html.EscapeString(s)
}
