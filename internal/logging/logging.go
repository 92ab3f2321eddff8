package logging

import (
	"fmt"
	"slices"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a structured logger configured for JSON output at the given level.
func New(level zapcore.Level) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "json"
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.StacktraceKey = "stacktrace"
	cfg.DisableStacktrace = false

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// Component returns a logger named after a component. Components listed in
// quiet never log below info.
func Component(logger *zap.Logger, name string, quiet []string) *zap.Logger {
	named := logger.Named(name)
	if slices.Contains(quiet, name) {
		named = named.WithOptions(zap.IncreaseLevel(zapcore.InfoLevel))
	}
	return named
}
