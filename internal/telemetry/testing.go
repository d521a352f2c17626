package telemetry

import (
	"context"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestTelemetry is a Telemetry wired to in-memory exporters.
type TestTelemetry struct {
	*Telemetry

	SpanExporter *tracetest.InMemoryExporter
	MetricReader *sdkmetric.ManualReader
	LogExporter  *InMemoryLogExporter
}

// TestOptions returns options that keep every signal in memory, and the
// sinks behind them.
func TestOptions() ([]Option, *tracetest.InMemoryExporter, *sdkmetric.ManualReader, *InMemoryLogExporter) {
	spans := tracetest.NewInMemoryExporter()
	reader := sdkmetric.NewManualReader()
	logs := &InMemoryLogExporter{}
	return []Option{
		WithTraceExporter(spans),
		WithMetricReader(reader),
		WithLogExporter(logs),
	}, spans, reader, logs
}

// NewTestTelemetry creates telemetry with in-memory exporters. It is not
// started, so nothing is installed globally.
func NewTestTelemetry(tb testing.TB, instrumentations ...Instrumentation) *TestTelemetry {
	tb.Helper()

	opts, spans, reader, logs := TestOptions()
	tel, err := New(context.Background(), NewDefaultConfig(), instrumentations, opts...)
	if err != nil {
		tb.Fatalf("creating test telemetry: %v", err)
	}
	tb.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	return &TestTelemetry{
		Telemetry:    tel,
		SpanExporter: spans,
		MetricReader: reader,
		LogExporter:  logs,
	}
}

// Spans flushes the batcher and returns all exported spans.
func (t *TestTelemetry) Spans() tracetest.SpanStubs {
	_ = t.tracerProvider.ForceFlush(context.Background())
	return t.SpanExporter.GetSpans()
}

// SpanByName finds a span by name, or nil if not found.
func (t *TestTelemetry) SpanByName(name string) *tracetest.SpanStub {
	spans := t.Spans()
	for i := range spans {
		if spans[i].Name == name {
			return &spans[i]
		}
	}
	return nil
}

// AssertSpanExists verifies a span with the given name was recorded.
func (t *TestTelemetry) AssertSpanExists(tb testing.TB, name string) {
	tb.Helper()
	if t.SpanByName(name) == nil {
		tb.Errorf("expected span %q not found, got: %v", name, t.spanNames())
	}
}

// AssertSpanAttribute verifies a span has the expected attribute.
func (t *TestTelemetry) AssertSpanAttribute(tb testing.TB, spanName string, key string, expected interface{}) {
	tb.Helper()
	span := t.SpanByName(spanName)
	if span == nil {
		tb.Fatalf("span %q not found", spanName)
	}

	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			if got := attrValue(attr.Value); got != expected {
				tb.Errorf("span %q attribute %q: got %v, want %v", spanName, key, got, expected)
			}
			return
		}
	}
	tb.Errorf("span %q missing attribute %q", spanName, key)
}

func (t *TestTelemetry) spanNames() []string {
	spans := t.Spans()
	names := make([]string, len(spans))
	for i := range spans {
		names[i] = spans[i].Name
	}
	return names
}

func attrValue(v attribute.Value) interface{} {
	switch v.Type() {
	case attribute.STRING:
		return v.AsString()
	case attribute.INT64:
		return v.AsInt64()
	case attribute.FLOAT64:
		return v.AsFloat64()
	case attribute.BOOL:
		return v.AsBool()
	default:
		return v.AsInterface()
	}
}

// Collect reads the current metrics from the manual reader.
func (t *TestTelemetry) Collect(tb testing.TB) metricdata.ResourceMetrics {
	tb.Helper()
	var rm metricdata.ResourceMetrics
	if err := t.MetricReader.Collect(context.Background(), &rm); err != nil {
		tb.Fatalf("collecting metrics: %v", err)
	}
	return rm
}

// MetricByName returns the named metric from rm, or nil.
func MetricByName(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// Logs flushes the batch processor and returns all exported log records.
func (t *TestTelemetry) Logs() []sdklog.Record {
	_ = t.loggerProvider.ForceFlush(context.Background())
	return t.LogExporter.Records()
}

// Reset drops recorded spans and logs.
func (t *TestTelemetry) Reset() {
	t.SpanExporter.Reset()
	t.LogExporter.Reset()
}

// InMemoryLogExporter is an sdklog.Exporter that keeps records in memory.
type InMemoryLogExporter struct {
	mu      sync.Mutex
	records []sdklog.Record
}

// Export stores clones of records.
func (e *InMemoryLogExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range records {
		e.records = append(e.records, records[i].Clone())
	}
	return nil
}

// Shutdown implements sdklog.Exporter.
func (e *InMemoryLogExporter) Shutdown(context.Context) error { return nil }

// ForceFlush implements sdklog.Exporter.
func (e *InMemoryLogExporter) ForceFlush(context.Context) error { return nil }

// Records returns a copy of the stored records.
func (e *InMemoryLogExporter) Records() []sdklog.Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sdklog.Record(nil), e.records...)
}

// Reset drops stored records.
func (e *InMemoryLogExporter) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = nil
}
