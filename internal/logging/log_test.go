package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(LevelInfo, &buf).With(map[string]any{"stage": "load", "location": "http://x/a b"})

	log.Debugf("hidden %d", 1)
	log.Infof("loaded %d documents", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line should be filtered at info level: %q", out)
	}
	if !strings.HasPrefix(out, "[INFO] ") {
		t.Errorf("expected uncoloured INFO prefix for a non-terminal writer, got %q", out)
	}
	if !strings.Contains(out, `loaded 3 documents location="http://x/a b" stage=load`) {
		t.Errorf("expected sorted, quoted fields, got %q", out)
	}
}

func TestWithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(LevelDebug, &buf)
	_ = parent.With(map[string]any{"child": true})
	parent.Debugf("plain")
	if strings.Contains(buf.String(), "child=") {
		t.Errorf("parent picked up child fields: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"debug": LevelDebug, "WARNING": LevelWarn, "error": LevelError, "bogus": LevelWarn} {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTruncateList(t *testing.T) {
	if got := TruncateList([]string{"a", "b", "c"}, 2); got != "a,b,+1" {
		t.Errorf("TruncateList = %q", got)
	}
	if got := TruncateList([]string{"a"}, 2); got != "a" {
		t.Errorf("TruncateList = %q", got)
	}
}
