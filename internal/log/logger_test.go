package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&Config{Level: "debug", Format: FormatJSON, Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	WithComponent(logger, "bridge").Debug("callback delivered", "family", "create")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if rec["component"] != "bridge" || rec["family"] != "create" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&Config{Level: "warn", Output: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output: %s", buf.String())
	}
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	if _, err := New(&Config{Format: "xml"}); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("BEAR_MCP_DEBUG", "")
	t.Setenv("BEAR_MCP_LOG_LEVEL", "ERROR")
	t.Setenv("BEAR_MCP_LOG_FORMAT", "JSON")
	cfg := FromEnv(nil)
	if cfg.Level != "error" || cfg.Format != FormatJSON {
		t.Errorf("got level=%q format=%q", cfg.Level, cfg.Format)
	}

	t.Setenv("BEAR_MCP_DEBUG", "1")
	cfg = FromEnv(nil)
	if cfg.Level != "debug" || !cfg.AddSource {
		t.Errorf("debug env should force debug level with source, got %+v", cfg)
	}
}
