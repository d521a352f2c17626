package logging

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// recordingExporter keeps exported log records in memory.
type recordingExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range records {
		e.records = append(e.records, records[i].Clone())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) Records() []sdklog.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sdklog.Record(nil), e.records...)
}

func newRecordingProvider(t *testing.T) (*sdklog.LoggerProvider, *recordingExporter) {
	t.Helper()
	exp := &recordingExporter{}
	lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp)))
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })
	return lp, exp
}

func TestNewDualCore_StdoutOnly(t *testing.T) {
	cfg := NewDefaultConfig()
	bridge := newBridgeCore()

	core, err := newDualCore(cfg, nil, bridge)
	require.NoError(t, err)
	assert.NotNil(t, core)
	assert.False(t, bridge.attached())
}

func TestNewDualCore_OTELWithProvider(t *testing.T) {
	lp, _ := newRecordingProvider(t)
	cfg := NewDefaultConfig()
	cfg.Output.OTEL = true
	bridge := newBridgeCore()

	_, err := newDualCore(cfg, lp, bridge)
	require.NoError(t, err)
	assert.True(t, bridge.attached())
}

func TestNewDualCore_OTELIgnoredWhenDisabled(t *testing.T) {
	lp, _ := newRecordingProvider(t)
	bridge := newBridgeCore()

	_, err := newDualCore(NewDefaultConfig(), lp, bridge)
	require.NoError(t, err)
	assert.False(t, bridge.attached())
}

func TestNewDualCore_NoOutputs(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output = OutputConfig{}

	_, err := newDualCore(cfg, nil, newBridgeCore())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one output")
}

func TestLogger_AttachOTEL(t *testing.T) {
	lp, exp := newRecordingProvider(t)
	tl := NewTestLogger()
	ctx := context.Background()

	tl.Info(ctx, "before attach")
	assert.Empty(t, exp.Records())

	tl.AttachOTEL(lp)
	require.True(t, tl.Bridged())

	tl.Warn(ctx, "after attach", zap.String("component", "bootstrap"))

	records := exp.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "after attach", records[0].Body().AsString())
	assert.Equal(t, BridgeScope, records[0].InstrumentationScope().Name)

	var component string
	records[0].WalkAttributes(func(kv otellog.KeyValue) bool {
		if kv.Key == "component" {
			component = kv.Value.AsString()
		}
		return true
	})
	assert.Equal(t, "bootstrap", component)

	tl.AssertLogged(t, zapcore.InfoLevel, "before attach")
	tl.AssertLogged(t, zapcore.WarnLevel, "after attach")
}

func TestLogger_AttachOTELSharedWithChildren(t *testing.T) {
	lp, exp := newRecordingProvider(t)
	tl := NewTestLogger()
	child := tl.Named("child").With(zap.String("k", "v"))

	tl.AttachOTEL(lp)
	child.Info(context.Background(), "from child")

	assert.True(t, child.Bridged())
	require.Len(t, exp.Records(), 1)
}

func TestLogger_AttachOTELCorrelatesTrace(t *testing.T) {
	lp, exp := newRecordingProvider(t)
	tl := NewTestLogger()
	tl.AttachOTEL(lp)

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	tl.Info(ctx, "inside span")
	span.End()

	records := exp.Records()
	require.Len(t, records, 1)
	assert.Equal(t, span.SpanContext().TraceID(), records[0].TraceID())
	assert.Equal(t, span.SpanContext().SpanID(), records[0].SpanID())
	tl.AssertTraceCorrelation(t, "inside span")
}

func TestLogger_DetachOTEL(t *testing.T) {
	lp, exp := newRecordingProvider(t)
	tl := NewTestLogger()

	tl.AttachOTEL(lp)
	tl.AttachOTEL(nil)
	tl.Info(context.Background(), "detached")

	assert.False(t, tl.Bridged())
	assert.Empty(t, exp.Records())
}

func TestBridgeCore_RespectsLevel(t *testing.T) {
	lp, exp := newRecordingProvider(t)
	cfg := NewDefaultConfig()
	cfg.Sampling.Enabled = false

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	logger.AttachOTEL(lp)

	logger.Debug(context.Background(), "below level")
	logger.Info(context.Background(), "at level")

	records := exp.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "at level", records[0].Body().AsString())
}
