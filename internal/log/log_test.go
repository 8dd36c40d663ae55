package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func capture(t *testing.T, l Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(l)
	t.Cleanup(func() {
		SetOutput(&bytes.Buffer{})
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestInfoWritesKeyValues(t *testing.T) {
	buf := capture(t, LevelInfo)

	Info("parties loaded", "count", 3, "dangling")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if line["message"] != "parties loaded" {
		t.Errorf("message = %v", line["message"])
	}
	if line["level"] != "info" {
		t.Errorf("level = %v", line["level"])
	}
	if line["count"] != float64(3) {
		t.Errorf("count = %v", line["count"])
	}
	if _, ok := line["dangling"]; ok {
		t.Errorf("odd trailing key should be dropped")
	}
}

func TestErrorIncludesErr(t *testing.T) {
	buf := capture(t, LevelInfo)

	Error("delete party failed", errors.New("boom"), "id", 7)

	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("missing error field: %s", buf.String())
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, LevelError)

	Debug("hidden")
	Info("hidden too")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below ERROR, got %q", buf.String())
	}

	SetLevel(LevelDebug)
	Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("debug line missing: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" ERROR ": LevelError,
		"info":    LevelInfo,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
