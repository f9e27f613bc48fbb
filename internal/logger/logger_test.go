package logger

import (
	"bytes"
	"context"
	"log/slog"
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
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMultiHandler(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	debug := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	warn := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})

	h := NewMultiHandler(debug, warn)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("expected debug to be enabled through the debug handler")
	}

	log := slog.New(h).With("session.id", "abc")
	log.Info("move accepted")
	log.Warn("move rejected")

	if !strings.Contains(debugBuf.String(), "move accepted") || !strings.Contains(debugBuf.String(), "move rejected") {
		t.Errorf("debug handler missed records: %s", debugBuf.String())
	}
	if strings.Contains(warnBuf.String(), "move accepted") {
		t.Errorf("warn handler received an info record: %s", warnBuf.String())
	}
	if !strings.Contains(warnBuf.String(), "session.id=abc") {
		t.Errorf("attributes were not propagated: %s", warnBuf.String())
	}
}
