package httpsec

import (
	"reflect"
	"strings"
	"testing"
)

func TestSanitizeEscapesMarkup(t *testing.T) {
	out, ok := Sanitize("<script>alert(1)</script>").(string)
	if !ok {
		t.Fatalf("expected string result")
	}
	if strings.ContainsAny(out, "<>") {
		t.Fatalf("sanitized string still contains raw markup: %q", out)
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Fatalf("expected entity-escaped script tag, got %q", out)
	}
}

func TestSanitizeLeavesPlainTextAlone(t *testing.T) {
	if out := Sanitize("plain text"); out != "plain text" {
		t.Fatalf("plain text was altered: %v", out)
	}
}

func TestSanitizeDoesNotDoubleEscape(t *testing.T) {
	once := Sanitize("a < b").(string)
	twice := Sanitize(once).(string)
	if once != twice {
		t.Fatalf("double escaping: %q then %q", once, twice)
	}
}

func TestSanitizeWalksNestedValues(t *testing.T) {
	in := map[string]any{
		"note":  "<b>x</b>",
		"count": 3,
		"tags":  []any{"a&b", 7},
		"meta":  map[string]string{"k": `"quoted"`},
	}

	out, ok := Sanitize(in).(map[string]any)
	if !ok {
		t.Fatalf("expected map result")
	}
	if out["note"] != "&lt;b&gt;x&lt;/b&gt;" {
		t.Fatalf("nested string not escaped: %v", out["note"])
	}
	if out["count"] != 3 {
		t.Fatalf("non-string value altered: %v", out["count"])
	}
	tags, _ := out["tags"].([]any)
	if !reflect.DeepEqual(tags, []any{"a&amp;b", 7}) {
		t.Fatalf("sequence not sanitized: %v", tags)
	}
	meta, _ := out["meta"].(map[string]string)
	if meta["k"] != "&#34;quoted&#34;" {
		t.Fatalf("string map not sanitized: %v", meta["k"])
	}
}

func TestSanitizeIsPure(t *testing.T) {
	in := []any{"<x>"}
	_ = Sanitize(in)
	if in[0] != "<x>" {
		t.Fatalf("input mutated: %v", in[0])
	}
}
