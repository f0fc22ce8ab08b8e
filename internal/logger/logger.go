package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tributary-ai-services/opcua-discovery/internal/discovery"
)

// NewLogger creates a new zap.Logger based on the given log level.
func NewLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Encoding:         "console",
		Level:            zap.NewAtomicLevelAt(zapLevel),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
	}

	return cfg.Build()
}

// New creates a new logger with the given level (convenience function)
func New(level string) *zap.Logger {
	logger, err := NewLogger(level)
	if err != nil {
		// Fallback to default logger if creation fails
		logger = zap.NewExample()
	}
	return logger
}

// WithCapabilities returns a child logger carrying this instance's enabled
// capability set as static fields, so every subsequent log line (mdns
// bridge, semaphore watcher, scheduler, consul bootstrap) self-documents
// which optional subsystems were actually live without each call site
// repeating it.
func WithCapabilities(log *zap.Logger, caps discovery.Capabilities) *zap.Logger {
	return log.With(
		zap.Bool("multicast_enabled", caps.MulticastEnabled),
		zap.Bool("semaphore_enabled", caps.SemaphoreEnabled),
		zap.Bool("consul_bootstrap_enabled", caps.ConsulBootstrapEnabled),
	)
}
