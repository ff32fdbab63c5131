package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelWarn, Format: FormatText, Output: &buf})

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below warn should be filtered, got: %s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("warn and error should pass, got: %s", out)
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	l.WithTable("/warehouse/db.orders").WithSnapshot(12).Infof("expired snapshot metadata", map[string]any{
		"manifests": 3,
	})

	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if entry.Level != "info" || entry.Message != "expired snapshot metadata" {
		t.Errorf("unexpected entry: %+v", entry)
	}
	if entry.Table != "/warehouse/db.orders" || entry.Snapshot != 12 {
		t.Errorf("scope fields missing: %+v", entry)
	}
	if entry.Fields["manifests"] != float64(3) {
		t.Errorf("fields missing: %+v", entry.Fields)
	}
}

func TestLogger_WithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})
	child := parent.With(map[string]any{"component": "gc"})
	_ = parent.WithSnapshot(99)

	parent.Info("from parent")
	var entry Entry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if entry.Snapshot != 0 || len(entry.Fields) != 0 {
		t.Errorf("parent logger was mutated by derived loggers: %+v", entry)
	}

	buf.Reset()
	child.Info("from child")
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if entry.Fields["component"] != "gc" {
		t.Errorf("child fields lost: %+v", entry)
	}
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: LevelInfo, Format: FormatText, Output: &buf})

	l.WithSnapshot(4).Infof("deleted obsolete data files", map[string]any{"count": 7})

	out := buf.String()
	for _, want := range []string{"[info]", "deleted obsolete data files", "snapshot=4", "count=7"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q: %s", want, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]Level{"debug": LevelDebug, "info": LevelInfo, "warn": LevelWarn, "error": LevelError, "bogus": LevelInfo} {
		if got := ParseLevel(s); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestConfigure_SetsGlobal(t *testing.T) {
	old := Global()
	defer SetGlobal(old)

	l := Configure("debug", "text")
	if Global() != l {
		t.Error("Configure should install the new logger globally")
	}
	if l.GetLevel() != LevelDebug {
		t.Errorf("level = %v, want debug", l.GetLevel())
	}
}
