package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	if lvl, err := ParseLevel(""); err != nil || lvl != zapcore.InfoLevel {
		t.Fatalf("expected empty level to mean info, got %v %v", lvl, err)
	}
	if lvl, err := ParseLevel(" DEBUG "); err != nil || lvl != zapcore.DebugLevel {
		t.Fatalf("expected debug, got %v %v", lvl, err)
	}
	if lvl, err := ParseLevel("Error"); err != nil || lvl != zapcore.ErrorLevel {
		t.Fatalf("expected error, got %v %v", lvl, err)
	}
	if _, err := ParseLevel("chatty"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestLoggerBeforeInitIsUsable(t *testing.T) {
	Logger().Infof("no-op logger must not panic")
}

func TestInitReplacesLogger(t *testing.T) {
	flush, err := Init("warn")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer flush()
	if Logger().Desugar().Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info must be disabled at warn level")
	}
}
