package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, level := range []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel} {
		logger, err := New(level)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if logger == nil {
			t.Fatalf("expected logger instance")
		}
		if !logger.Core().Enabled(level) {
			t.Fatalf("expected %s to be enabled", level)
		}
		if level == zapcore.InfoLevel && logger.Core().Enabled(zapcore.DebugLevel) {
			t.Fatalf("expected debug to be disabled at info level")
		}
		_ = logger.Sync()
	}
}

func TestComponentQuietsListedNames(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	root := zap.New(core)
	quiet := []string{"publish"}

	Component(root, "publish", quiet).Debug("dropped")
	Component(root, "publish", quiet).Info("kept")
	Component(root, "api", quiet).Debug("kept too")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].LoggerName != "publish" || entries[0].Message != "kept" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
	if entries[1].LoggerName != "api" {
		t.Fatalf("expected api logger name, got %q", entries[1].LoggerName)
	}
}
