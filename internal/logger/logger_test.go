package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/david-shiko/rubik-sub000/internal/config"
)

// captureOutput points the global logger at a buffer while f runs.
func captureOutput(t *testing.T, c Config, f func()) string {
	t.Helper()

	var buf bytes.Buffer
	c.Output = &buf
	Init(&c)
	t.Cleanup(func() { Init(&Config{Level: "info", Format: FormatText}) })

	f()
	return buf.String()
}

func TestLogger_TextFormat(t *testing.T) {
	out := captureOutput(t, Config{Level: "debug", Format: FormatText, Component: "test"}, func() {
		Info("covotes built", "owner", 42)
	})

	if !strings.Contains(out, "covotes built") {
		t.Errorf("expected message, got: %s", out)
	}
	if !strings.Contains(out, "component=test") {
		t.Errorf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "owner=42") {
		t.Errorf("expected structured field, got: %s", out)
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	out := captureOutput(t, Config{Level: "info", Format: FormatJSON, Component: "json_test"}, func() {
		Info("json log", "filter", "goal")
	})

	if !strings.Contains(out, `"msg":"json log"`) {
		t.Errorf("expected JSON message, got: %s", out)
	}
	if !strings.Contains(out, `"component":"json_test"`) {
		t.Errorf("expected component in JSON, got: %s", out)
	}
	if !strings.Contains(out, `"filter":"goal"`) {
		t.Errorf("expected structured field in JSON, got: %s", out)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	out := captureOutput(t, Config{Level: "error", Format: FormatText}, func() {
		Info("should not appear")
		Error("should appear")
	})

	if strings.Contains(out, "should not appear") {
		t.Errorf("info log should not appear, got: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("error log should appear, got: %s", out)
	}
}

func TestLogger_WithAndComponent(t *testing.T) {
	out := captureOutput(t, Config{Level: "debug", Format: FormatText}, func() {
		With("session", "7").Info("processing")
		Component("janitor").Info("tick")
	})

	if !strings.Contains(out, "session=7") {
		t.Errorf("expected session field, got: %s", out)
	}
	if !strings.Contains(out, "subsystem=janitor") {
		t.Errorf("expected subsystem field, got: %s", out)
	}
}

func TestLogger_InitFromConfig(t *testing.T) {
	c := config.New()
	c.Log.Level = "debug"
	c.Log.Format = "json"
	c.Log.Component = "cfg_test"
	InitFromConfig(c)
	t.Cleanup(func() { Init(&Config{Level: "info", Format: FormatText}) })

	if L() == nil {
		t.Fatal("expected a logger after InitFromConfig")
	}
	if !L().Enabled(context.Background(), slog.LevelDebug) {
		t.Errorf("expected debug level to be enabled")
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Fatal("expected non-nil discard logger")
	}
	l := Discard()
	if OrDiscard(l) != l {
		t.Errorf("expected the same logger back")
	}
}
