package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewHandlerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: FormatJSON, Level: slog.LevelInfo, Output: &buf, Component: ComponentBill})
	logger.Info("hello", "k", "v")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("json output not parseable: %v (%s)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentBill {
		t.Errorf("component = %v, want %s", rec[FieldComponent], ComponentBill)
	}
	if rec["k"] != "v" {
		t.Errorf("k = %v, want v", rec["k"])
	}

	buf.Reset()
	New(Config{Format: FormatPretty, Output: &buf}).Info("colored")
	if !strings.Contains(buf.String(), "colored") {
		t.Errorf("pretty output missing message: %q", buf.String())
	}

	buf.Reset()
	New(Config{Format: "text", Output: &buf}).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug record emitted at info level: %q", buf.String())
	}
}

func TestWithComponentReplacesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: FormatText, Output: &buf}).With("run", 1).WithComponent(ComponentWorker)
	logger.Info("tick")

	out := buf.String()
	if strings.Count(out, "component=") != 1 {
		t.Errorf("expected exactly one component attribute, got %q", out)
	}
	if !strings.Contains(out, "component=worker") || !strings.Contains(out, "run=1") {
		t.Errorf("unexpected output %q", out)
	}
	if logger.Component() != ComponentWorker {
		t.Errorf("Component() = %q", logger.Component())
	}
}

func TestLogFieldsToSliceIsSorted(t *testing.T) {
	got := NewFields().WithOperation(OpCreate).WithError(errors.New("boom")).WithBill(1, "Rent", 100, "Rent", "2025-01-01").ToSlice()
	var keys []string
	for i := 0; i < len(got); i += 2 {
		keys = append(keys, got[i].(string))
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] > keys[i] {
			t.Fatalf("keys not sorted: %v", keys)
		}
	}
	if NewFields().WithError(nil)[FieldError] != nil {
		t.Error("nil error should not set the error field")
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: FormatText, Output: &buf})

	var got *Logger
	h := Middleware(logger)(RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = FromContext(r.Context())
			got.InfoContext(r.Context(), "inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil || !strings.Contains(buf.String(), "request_id=req_1") {
		t.Errorf("request id missing from log output %q", buf.String())
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("FromContext without logger should return the default logger")
	}
}
