package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelGating(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(InfoLevel), WithOutput(NewWriterOutput(&buf)))
	l.Debug("hidden")
	l.Info("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug entry should be suppressed at info level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("info entry missing: %q", out)
	}
}

func TestWithFieldsAppearInOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(DebugLevel), WithOutput(NewWriterOutput(&buf)))
	l.With(Component("registry")).Debug("registry.update", Int("changed", 2))
	out := buf.String()
	for _, want := range []string{"registry.update", "component=registry", "changed=2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(DebugLevel), WithFormatter(&JSONFormatter{}), WithOutput(NewWriterOutput(&buf)))
	l.Info("hello", Str("k", "v"))
	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) || !strings.Contains(out, `"k":"v"`) {
		t.Fatalf("unexpected json output: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	if lv, err := ParseLevel("debug"); err != nil || lv != DebugLevel {
		t.Fatalf("parse debug: %v %v", lv, err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
