package logger

import (
	"context"
	"testing"

	"github.com/jaennil/heatmap_tiles/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestToZapLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		if got := toZapLevel(tt.in); got != tt.want {
			t.Errorf("toZapLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestBuildConfig_Format(t *testing.T) {
	if enc := buildConfig(config.Logger{Level: "info", Format: "json"}).Encoding; enc != "json" {
		t.Errorf("json format encoding = %q", enc)
	}
	cfg := buildConfig(config.Logger{Level: "debug", Format: "console"})
	if cfg.Encoding != "console" {
		t.Errorf("console format encoding = %q", cfg.Encoding)
	}
	if cfg.Level.Level() != zapcore.DebugLevel {
		t.Errorf("level = %v", cfg.Level.Level())
	}
}

func TestZapLogger_KeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewZapLoggerFrom(zap.New(core))

	l.Debug("dropped")
	l.Warn("upstream slow", "source", "base", "ms", 120)

	if logs.Len() != 1 {
		t.Fatalf("entries = %d, want 1", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["source"] != "base" || fields["ms"] != int64(120) {
		t.Fatalf("fields = %v", fields)
	}
}

func TestFromContext(t *testing.T) {
	if _, ok := FromContext(context.Background()).(discard); !ok {
		t.Fatal("expected no-op logger without an attached one")
	}

	l := NewZapLoggerFrom(zap.NewNop())
	if got := FromContext(WithLogger(context.Background(), l)); got != Logger(l) {
		t.Fatal("attached logger not returned")
	}
}
