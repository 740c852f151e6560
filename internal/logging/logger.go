package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Logger is the global logger instance
	Logger *SafeLogger
)

// SafeLogger wraps a zap logger and tolerates a nil receiver or a nil
// underlying logger, so packages can log before InitLogger has run.
type SafeLogger struct {
	logger *zap.Logger
}

// NewSafeLogger wraps an existing zap logger
func NewSafeLogger(logger *zap.Logger) *SafeLogger {
	return &SafeLogger{logger: logger}
}

// InitLogger initializes the global logger
func InitLogger() error {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Set log level from environment
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel != "" {
		var level zapcore.Level
		if err := level.UnmarshalText([]byte(logLevel)); err == nil {
			config.Level = zap.NewAtomicLevelAt(level)
		}
	}

	zapLogger, err := config.Build(
		zap.AddCallerSkip(1),
		zap.Fields(
			zap.String("service", "identity"),
			zap.String("version", "v1"),
		),
	)
	if err != nil {
		return err
	}

	Logger = &SafeLogger{logger: zapLogger}
	return nil
}

// Debug logs a debug message
func (s *SafeLogger) Debug(msg string, fields ...zap.Field) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger.Debug(msg, fields...)
}

// Info logs an info message
func (s *SafeLogger) Info(msg string, fields ...zap.Field) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger.Info(msg, fields...)
}

// Warn logs a warning message
func (s *SafeLogger) Warn(msg string, fields ...zap.Field) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger.Warn(msg, fields...)
}

// Error logs an error message
func (s *SafeLogger) Error(msg string, fields ...zap.Field) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger.Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func (s *SafeLogger) Fatal(msg string, fields ...zap.Field) {
	if s == nil || s.logger == nil {
		os.Exit(1)
	}
	s.logger.Fatal(msg, fields...)
}

// With returns a child logger with the given fields attached
func (s *SafeLogger) With(fields ...zap.Field) *SafeLogger {
	if s == nil || s.logger == nil {
		return &SafeLogger{}
	}
	return &SafeLogger{logger: s.logger.With(fields...)}
}

// Sync flushes any buffered log entries
func (s *SafeLogger) Sync() error {
	if s == nil || s.logger == nil {
		return nil
	}
	return s.logger.Sync()
}
