package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewLoggerTo_ProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLoggerTo(&buf, "prod", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.Debug("hidden")
	l.Info("update processed", zap.Int64("update_id", 3))
	_ = l.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["msg"] != "update processed" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["update_id"] != float64(3) {
		t.Errorf("update_id = %v", entry["update_id"])
	}
}

func TestNewLoggerTo_LevelOverride(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLoggerTo(&buf, "dev", "warn")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	l.Info("quiet")
	l.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "loud") {
		t.Errorf("warn line missing: %q", out)
	}
}

func TestNewLogger_Errors(t *testing.T) {
	if _, err := NewLogger("staging"); err == nil {
		t.Error("expected error for unknown environment")
	}
	if _, err := NewLogger("prod", "chatty"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected nop logger, got nil")
	}

	l := zap.NewExample()
	ctx := ContextWithLogger(context.Background(), l)
	if FromContext(ctx) != l {
		t.Error("expected stored logger")
	}
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	base, err := NewLoggerTo(&buf, "prod", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, child := WithFields(context.Background(), base, zap.String("request_id", "req-1"))
	if FromContext(ctx) != child {
		t.Fatal("expected derived logger in context")
	}
	FromContext(ctx).Info("handled")
	_ = child.Sync()

	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Errorf("field missing from %q", buf.String())
	}
}
