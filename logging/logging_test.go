package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDefaultLoggerRoutesByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewWriterLogger(&out, &errOut)
	logger.SetLevel(DebugLevel)

	logger.Debug("frame analyzed", Fields{"offset": 512})
	logger.Warn("short noise segment")
	logger.Error(errors.New("boom"), "stem failed", Fields{"stem": "drums"})

	if !strings.Contains(out.String(), "[DEBUG] frame analyzed offset=512") {
		t.Fatalf("stdout = %q, want debug line with fields", out.String())
	}

	errText := errOut.String()
	if !strings.Contains(errText, "[WARN] short noise segment") {
		t.Fatalf("stderr = %q, want warn line", errText)
	}
	if !strings.Contains(errText, "[ERROR] stem failed: boom stem=drums") {
		t.Fatalf("stderr = %q, want error line with cause and fields", errText)
	}
}

func TestDefaultLoggerLevelFilter(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewWriterLogger(&out, &errOut)

	logger.Debug("hidden")
	if out.Len() != 0 {
		t.Fatalf("debug should be filtered at info level, got %q", out.String())
	}

	logger.Info("shown")
	if !strings.Contains(out.String(), "[INFO] shown") {
		t.Fatalf("stdout = %q, want info line", out.String())
	}
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var out, errOut bytes.Buffer
	parent := NewWriterLogger(&out, &errOut)
	child := parent.WithFields(Fields{"component": "engine"})

	parent.Info("parent")
	child.Info("child")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if strings.Contains(lines[0], "component=") {
		t.Fatalf("parent line carries child field: %q", lines[0])
	}
	if !strings.Contains(lines[1], "component=engine") {
		t.Fatalf("child line missing field: %q", lines[1])
	}
}

func TestWithContextFields(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewWriterLogger(&out, &errOut)

	ctx := ContextWithFields(context.Background(), Fields{"job": "a"})
	ctx = ContextWithFields(ctx, Fields{"stem": "bass"})

	logger.WithContext(ctx).Info("extracting")

	line := out.String()
	if !strings.Contains(line, "job=a") || !strings.Contains(line, "stem=bass") {
		t.Fatalf("context fields missing: %q", line)
	}
}

func TestSetGlobalLoggerNil(t *testing.T) {
	prev := GetGlobalLogger()
	defer SetGlobalLogger(prev)

	SetGlobalLogger(nil)
	if _, ok := GetGlobalLogger().(*NoOpLogger); !ok {
		t.Fatalf("nil logger should install NoOpLogger, got %T", GetGlobalLogger())
	}

	// must not panic
	Component("test").Info("discarded")
}
