package logging

import (
	"context"
	"testing"
	"time"

	"github.com/fyrsmithlabs/otelboot/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func sampledLogger(levels map[zapcore.Level]LevelSamplingConfig) (*Logger, *observer.ObservedLogs) {
	core, observed := observer.New(TraceLevel)
	sampled := newSampledCore(core, SamplingConfig{
		Enabled: true,
		Tick:    config.Duration(time.Minute),
		Levels:  levels,
	})
	return &Logger{zap: zap.New(sampled), config: NewDefaultConfig()}, observed
}

func TestNewSampledCore_Disabled(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)

	assert.Equal(t, core, newSampledCore(core, SamplingConfig{Enabled: false}))
}

func TestSampling_ErrorsNeverDropped(t *testing.T) {
	logger, observed := sampledLogger(DefaultLevelSamplingConfig())

	for i := 0; i < 500; i++ {
		logger.Error(context.Background(), "error message")
	}

	assert.Equal(t, 500, observed.FilterMessage("error message").Len())
}

func TestSampling_InitialThenDrop(t *testing.T) {
	logger, observed := sampledLogger(map[zapcore.Level]LevelSamplingConfig{
		zapcore.InfoLevel: {Initial: 5, Thereafter: 0},
	})

	for i := 0; i < 20; i++ {
		logger.Info(context.Background(), "info message")
	}

	assert.Equal(t, 5, observed.FilterMessage("info message").Len())
}

func TestSampling_Thereafter(t *testing.T) {
	logger, observed := sampledLogger(map[zapcore.Level]LevelSamplingConfig{
		zapcore.InfoLevel: {Initial: 5, Thereafter: 2},
	})

	for i := 0; i < 100; i++ {
		logger.Info(context.Background(), "repeated message")
	}

	// first 5, then every second entry of the remaining 95
	assert.Equal(t, 52, observed.FilterMessage("repeated message").Len())
}

func TestSampling_PerLevelRates(t *testing.T) {
	logger, observed := sampledLogger(map[zapcore.Level]LevelSamplingConfig{
		TraceLevel:         {Initial: 1},
		zapcore.DebugLevel: {Initial: 3},
		zapcore.InfoLevel:  {Initial: 10},
	})
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		logger.Trace(ctx, "msg")
		logger.Debug(ctx, "msg")
		logger.Info(ctx, "msg")
		logger.Warn(ctx, "msg")
	}

	byLevel := map[zapcore.Level]int{}
	for _, e := range observed.All() {
		byLevel[e.Level]++
	}
	assert.Equal(t, 1, byLevel[TraceLevel])
	assert.Equal(t, 3, byLevel[zapcore.DebugLevel])
	assert.Equal(t, 10, byLevel[zapcore.InfoLevel])
	assert.Equal(t, 20, byLevel[zapcore.WarnLevel], "levels without a rate are not sampled")
}

func TestLevelFilterCore_With(t *testing.T) {
	core, observed := observer.New(TraceLevel)
	filtered := &levelFilterCore{Core: core, minLevel: zapcore.ErrorLevel, maxLevel: zapcore.FatalLevel}
	logger := &Logger{zap: zap.New(filtered), config: NewDefaultConfig()}

	child := logger.With(zap.String("component", "test"))
	child.Info(context.Background(), "info message")
	child.Warn(context.Background(), "warn message")
	child.Error(context.Background(), "error message")

	logs := observed.All()
	assert.Len(t, logs, 1)
	assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
	assert.Equal(t, "test", logs[0].ContextMap()["component"])
}

func TestSampling_TraceThereafter(t *testing.T) {
	logger, observed := sampledLogger(map[zapcore.Level]LevelSamplingConfig{
		TraceLevel: {Initial: 5, Thereafter: 2},
	})

	for i := 0; i < 100; i++ {
		logger.Trace(context.Background(), "trace message")
	}

	assert.Equal(t, 52, observed.FilterMessage("trace message").Len())
}

func TestMessageSampler_SharedAcrossWith(t *testing.T) {
	core, observed := observer.New(TraceLevel)
	s := newMessageSampler(core, time.Minute, 2, 0)
	child := s.With([]zapcore.Field{zap.String("component", "child")})
	now := time.Now()

	for _, c := range []zapcore.Core{s, child, s, child} {
		e := zapcore.Entry{Level: TraceLevel, Message: "msg", Time: now}
		if ce := c.Check(e, nil); ce != nil {
			ce.Write()
		}
	}

	assert.Equal(t, 2, observed.Len())
}

func TestMessageSampler_TickReset(t *testing.T) {
	core, observed := observer.New(TraceLevel)
	s := newMessageSampler(core, time.Second, 1, 0)
	start := time.Now()

	for _, at := range []time.Time{start, start.Add(100 * time.Millisecond), start.Add(2 * time.Second)} {
		e := zapcore.Entry{Level: TraceLevel, Message: "msg", Time: at}
		if ce := s.Check(e, nil); ce != nil {
			ce.Write()
		}
	}

	assert.Equal(t, 2, observed.Len(), "one per tick")
}

func TestMessageSampler_PerMessage(t *testing.T) {
	logger, observed := sampledLogger(map[zapcore.Level]LevelSamplingConfig{
		TraceLevel: {Initial: 1},
	})

	for i := 0; i < 3; i++ {
		logger.Trace(context.Background(), "first")
		logger.Trace(context.Background(), "second")
	}

	assert.Equal(t, 1, observed.FilterMessage("first").Len())
	assert.Equal(t, 1, observed.FilterMessage("second").Len())
}
