package app

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestStripANSI(t *testing.T) {
	t.Parallel()

	in := ansiBlue + "INFO" + ansiReset + " plain " + ansiRed + "ERR" + ansiReset
	got := stripANSI(in)
	want := "INFO plain ERR"
	if got != want {
		t.Fatalf("stripANSI()=%q want=%q", got, want)
	}
}

func TestPrettyHandler_PlainOutput(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	h := newPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}, false)

	r := slog.NewRecord(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), slog.LevelInfo, "http.request", 0)
	r.AddAttrs(
		slog.String("method", "get"),
		slog.String("path", "/auth/me"),
		slog.Int("status", 200),
		slog.Int64("duration_ms", 12),
		slog.String("user_agent", "curl/8.0 (test)"),
	)

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	line := buf.String()
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("color disabled but escape codes present: %q", line)
	}
	for _, want := range []string{"[INFO]", "http.request", "method=GET", "path=/auth/me", "status=200", "duration_ms=12ms", `user_agent="curl/8.0 (test)"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("output missing %q: %q", want, line)
		}
	}
	if !strings.HasSuffix(line, "\n") {
		t.Fatalf("output must be newline terminated")
	}
}

func TestPrettyHandler_LevelFilter(t *testing.T) {
	t.Parallel()

	h := newPrettyHandler(&strings.Builder{}, &slog.HandlerOptions{Level: slog.LevelWarn}, false)
	if h.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatalf("info must be filtered at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Fatalf("error must pass at warn level")
	}
}

func TestQuoteIfNeeded(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", `""`},
		{"plain", "plain"},
		{"two words", `"two words"`},
		{`a"b`, `"a\"b"`},
		{"k=v", `"k=v"`},
	}
	for _, tc := range cases {
		if got := quoteIfNeeded(tc.in); got != tc.want {
			t.Fatalf("quoteIfNeeded(%q)=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestColorizeStatusCode(t *testing.T) {
	t.Parallel()

	if got := colorizeStatusCode(500, false); got != "500" {
		t.Fatalf("no-color mode must return the bare code, got %q", got)
	}
	if got := colorizeStatusCode(500, true); !strings.Contains(got, ansiRed) {
		t.Fatalf("5xx should be red, got %q", got)
	}
	if got := colorizeStatusCode(201, true); !strings.Contains(got, ansiGreen) {
		t.Fatalf("2xx should be green, got %q", got)
	}
}
