package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func jsonLogger(buf *bytes.Buffer, level string) *Logger {
	return NewWithWriter(&Config{Level: level, Format: "json"}, buf, "dataflow")
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "debug", Format: FormatConsole, NoColor: true}, &buf, "sdfsched")
	l.Warn("slow compile", Fields("policy", "greedy"))

	out := buf.String()
	for _, want := range []string{"[SDF][WRN]", "slow compile", "policy:greedy"} {
		if !strings.Contains(out, want) {
			t.Errorf("console line %q misses %q", out, want)
		}
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "debug")
	l.Info("schedule computed", Fields("steps", 25))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "schedule computed" {
		t.Errorf("unexpected message %v", entry["message"])
	}
	if entry["steps"] != float64(25) {
		t.Errorf("expected steps=25, got %v", entry["steps"])
	}
	if entry["service"] != "dataflow" {
		t.Errorf("expected service field, got %v", entry["service"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "warn")
	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	l.Warn("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "loud")
	l.Debug("hidden")
	l.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected info level fallback, got %q", buf.String())
	}
}

func TestWithComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, "info").WithComponent("scheduler").WithFields(Fields("graph", "g1"))
	l.Info("phase")
	out := buf.String()
	if !strings.Contains(out, `"component":"scheduler"`) {
		t.Errorf("expected component field, got %q", out)
	}
	if !strings.Contains(out, `"graph":"g1"`) {
		t.Errorf("expected graph field, got %q", out)
	}
}

func TestWithContext_RequestID(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithRequestID(context.Background(), "req-1")
	jsonLogger(&buf, "info").WithContext(ctx).Info("handled")
	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Errorf("expected request_id, got %q", buf.String())
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	jsonLogger(&buf, "info").WithError(errors.New("boom")).Error("failed")
	if !strings.Contains(buf.String(), `"error":"boom"`) {
		t.Errorf("expected error field, got %q", buf.String())
	}
}

func TestFieldsHelpers(t *testing.T) {
	f := Fields("a", 1, "b")
	if len(f) != 1 || f["a"] != 1 {
		t.Errorf("unexpected fields %v", f)
	}
	ef := ErrorFields("compute", errors.New("x"))
	if ef[FieldOperation] != "compute" || ef[FieldError] != "x" {
		t.Errorf("unexpected error fields %v", ef)
	}
	df := DurationFields("compute", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("unexpected duration %v", df[FieldDuration])
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"defaults", func() Config { c := Config{}; c.ApplyDefaults(); return c }(), ""},
		{"bad level", Config{Level: "loud", Format: "json", Output: "stdout"}, "logging.level"},
		{"bad format", Config{Level: "info", Format: "xml", Output: "stdout"}, "logging.format"},
		{"bad output", Config{Level: "info", Format: "json", Output: "file"}, "logging.output"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	var buf bytes.Buffer
	Register("memory-test", jsonLogger(&buf, "info"))
	Get("memory-test").Info("registered")
	if !strings.Contains(buf.String(), "registered") {
		t.Errorf("expected registered logger to be returned, got %q", buf.String())
	}

	Unregister("memory-test")
	buf.Reset()
	prev := GetGlobalLogger()
	t.Cleanup(func() { SetGlobalLogger(prev) })
	var global bytes.Buffer
	SetGlobalLogger(jsonLogger(&global, "info"))

	Get("memory-test").Info("fallback")
	if buf.Len() != 0 {
		t.Errorf("unregistered logger still used: %q", buf.String())
	}
	if !strings.Contains(global.String(), `"component":"memory-test"`) {
		t.Errorf("expected global logger tagged with the name, got %q", global.String())
	}
}

func TestNop(t *testing.T) {
	Nop().Error("discarded")
}
