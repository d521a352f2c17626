package logging

import (
	"context"
	"errors"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, observed := observer.New(level)
	return &Logger{zap: zap.New(core), config: NewDefaultConfig()}, observed
}

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, logger)

	assert.Equal(t, cfg, logger.config)
	assert.NotNil(t, logger.bridge)
	assert.False(t, logger.Bridged())
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Format = "xml"

	_, err := NewLogger(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLogger_Levels(t *testing.T) {
	logger, observed := observedLogger(TraceLevel)
	ctx := context.Background()

	tests := []struct {
		level zapcore.Level
		log   func(context.Context, string, ...zap.Field)
	}{
		{TraceLevel, logger.Trace},
		{zapcore.DebugLevel, logger.Debug},
		{zapcore.InfoLevel, logger.Info},
		{zapcore.WarnLevel, logger.Warn},
		{zapcore.ErrorLevel, logger.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			observed.TakeAll()
			tt.log(ctx, "message", zap.String("key", "val"))

			logs := observed.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.level, logs[0].Level)
			assert.Equal(t, "message", logs[0].Message)
			assert.Len(t, logs[0].Context, 1)
		})
	}
}

func TestLogger_TraceFilteredAboveLevel(t *testing.T) {
	logger, observed := observedLogger(zapcore.InfoLevel)

	logger.Trace(context.Background(), "noisy")
	logger.Debug(context.Background(), "noisy")

	assert.Zero(t, observed.Len())
	assert.False(t, logger.Enabled(TraceLevel))
	assert.True(t, logger.Enabled(zapcore.ErrorLevel))
}

func TestLogger_WithAndNamed(t *testing.T) {
	logger, observed := observedLogger(zapcore.InfoLevel)

	logger.With(zap.String("child_field", "value")).
		Named("subsystem").
		Info(context.Background(), "child log")

	logs := observed.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "subsystem", logs[0].LoggerName)
	assert.Equal(t, "value", logs[0].ContextMap()["child_field"])
}

func TestLogger_InjectsRequestID(t *testing.T) {
	logger, observed := observedLogger(zapcore.InfoLevel)
	ctx := WithRequestID(context.Background(), "req_123")

	logger.Info(ctx, "handled", zap.Int("status", 200))

	logs := observed.All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "req_123", fields["request.id"])
	assert.Equal(t, int64(200), fields["status"])
}

func TestIsStdoutSyncError(t *testing.T) {
	assert.True(t, isStdoutSyncError(syscall.EINVAL))
	assert.True(t, isStdoutSyncError(&wrappedErr{syscall.ENOTTY}))
	assert.False(t, isStdoutSyncError(syscall.EIO))
	assert.False(t, isStdoutSyncError(errors.New("boom")))
}

type wrappedErr struct{ err error }

func (w *wrappedErr) Error() string { return "sync: " + w.err.Error() }
func (w *wrappedErr) Unwrap() error { return w.err }
