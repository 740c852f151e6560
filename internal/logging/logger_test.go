package logging

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLogger(t *testing.T) {
	err := InitLogger()
	require.NoError(t, err)
	assert.NotNil(t, Logger)
	assert.NotNil(t, Logger.logger)
}

func TestInitLogger_WithLogLevel(t *testing.T) {
	os.Setenv("LOG_LEVEL", "debug")
	defer os.Unsetenv("LOG_LEVEL")

	err := InitLogger()
	require.NoError(t, err)
	assert.NotNil(t, Logger)
}

func TestInitLogger_WithInvalidLogLevel(t *testing.T) {
	// Invalid level should still succeed with the default
	os.Setenv("LOG_LEVEL", "invalid")
	defer os.Unsetenv("LOG_LEVEL")

	err := InitLogger()
	require.NoError(t, err)
	assert.NotNil(t, Logger)
}

func TestSafeLogger_AllLevels(t *testing.T) {
	logger := &SafeLogger{logger: zap.NewNop()}

	// Should not panic
	logger.Debug("test debug", zap.Bool("flag", true))
	logger.Info("test message", zap.String("key", "value"))
	logger.Warn("test warning", zap.Int("count", 42))
	logger.Error("test error", zap.String("error", "something went wrong"))
}

func TestSafeLogger_NilLogger(t *testing.T) {
	logger := &SafeLogger{logger: nil}

	// All methods should be safe to call with nil underlying logger
	logger.Debug("test")
	logger.Info("test")
	logger.Warn("test")
	logger.Error("test")
	assert.NoError(t, logger.Sync())
}

func TestSafeLogger_NilSafeLogger(t *testing.T) {
	var logger *SafeLogger

	// Should not panic even with nil SafeLogger
	logger.Debug("test")
	logger.Info("test")
	logger.Warn("test")
	logger.Error("test")
}

func TestSafeLogger_With(t *testing.T) {
	logger := &SafeLogger{logger: zap.NewNop()}

	child := logger.With(zap.String("key", "value"), zap.Int("count", 42))
	require.NotNil(t, child)
	assert.NotNil(t, child.logger)
	child.Info("test message")

	var nilLogger *SafeLogger
	child = nilLogger.With(zap.String("key", "value"))
	require.NotNil(t, child)
	child.Info("still safe")
}
