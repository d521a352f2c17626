package telemetry

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/fyrsmithlabs/otelboot/internal/logging"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc/credentials"
)

// Option overrides parts of the SDK pipeline, mostly for tests.
type Option func(*options)

type options struct {
	traceExporter  trace.SpanExporter
	metricExporter metric.Exporter
	metricReader   metric.Reader
	logExporter    sdklog.Exporter
	logger         *logging.Logger
}

// WithTraceExporter replaces the OTLP trace exporter.
func WithTraceExporter(exp trace.SpanExporter) Option {
	return func(o *options) {
		o.traceExporter = exp
	}
}

// WithMetricExporter replaces the OTLP metric exporter. It is still wrapped
// in a periodic reader at the configured interval.
func WithMetricExporter(exp metric.Exporter) Option {
	return func(o *options) {
		o.metricExporter = exp
	}
}

// WithMetricReader replaces the periodic reader entirely, e.g. with a
// metric.ManualReader.
func WithMetricReader(r metric.Reader) Option {
	return func(o *options) {
		o.metricReader = r
	}
}

// WithLogExporter replaces the OTLP log exporter. It is still wrapped in a
// batching processor.
func WithLogExporter(exp sdklog.Exporter) Option {
	return func(o *options) {
		o.logExporter = exp
	}
}

// newResource describes the service. Service attributes are applied last so
// they win over OTEL_RESOURCE_ATTRIBUTES.
func newResource(ctx context.Context, cfg *Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithProcessRuntimeDescription(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
}

// exporterSettings is what every OTLP exporter needs besides its endpoint.
type exporterSettings struct {
	headers       map[string]string
	tlsSkipVerify bool
}

func newExporterSettings(cfg *Config) (exporterSettings, error) {
	headers, err := ParseHeaders(cfg.Headers.Value())
	if err != nil {
		return exporterSettings{}, err
	}
	return exporterSettings{headers: headers, tlsSkipVerify: cfg.TLSSkipVerify}, nil
}

// skipVerifyTLS is only used when the operator sets
// OTEL_EXPORTER_OTLP_INSECURE_SKIP_VERIFY for collectors behind internal CAs.
func skipVerifyTLS() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicitly requested
}

// newTraceExporter creates an OTLP span exporter for ep.
func newTraceExporter(ctx context.Context, ep Endpoint, s exporterSettings) (trace.SpanExporter, error) {
	switch ep.Protocol {
	case ProtocolHTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(ep.Host)}
		if ep.Path != "" {
			opts = append(opts, otlptracehttp.WithURLPath(ep.Path))
		}
		if len(s.headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(s.headers))
		}
		if ep.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		} else if s.tlsSkipVerify {
			opts = append(opts, otlptracehttp.WithTLSClientConfig(skipVerifyTLS()))
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(ep.Host)}
		if len(s.headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(s.headers))
		}
		if ep.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		} else if s.tlsSkipVerify {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(skipVerifyTLS())))
		}
		return otlptracegrpc.New(ctx, opts...)
	}
}

// cumulativeSelector keeps Prometheus-compatible backends happy and
// overrides OTEL_EXPORTER_OTLP_METRICS_TEMPORALITY_PREFERENCE from parent
// processes.
func cumulativeSelector(metric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

// newMetricExporter creates an OTLP metric exporter for ep.
func newMetricExporter(ctx context.Context, ep Endpoint, s exporterSettings) (metric.Exporter, error) {
	switch ep.Protocol {
	case ProtocolHTTP:
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(ep.Host),
			otlpmetrichttp.WithTemporalitySelector(cumulativeSelector),
		}
		if ep.Path != "" {
			opts = append(opts, otlpmetrichttp.WithURLPath(ep.Path))
		}
		if len(s.headers) > 0 {
			opts = append(opts, otlpmetrichttp.WithHeaders(s.headers))
		}
		if ep.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		} else if s.tlsSkipVerify {
			opts = append(opts, otlpmetrichttp.WithTLSClientConfig(skipVerifyTLS()))
		}
		return otlpmetrichttp.New(ctx, opts...)
	default:
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(ep.Host),
			otlpmetricgrpc.WithTemporalitySelector(cumulativeSelector),
		}
		if len(s.headers) > 0 {
			opts = append(opts, otlpmetricgrpc.WithHeaders(s.headers))
		}
		if ep.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		} else if s.tlsSkipVerify {
			opts = append(opts, otlpmetricgrpc.WithTLSCredentials(credentials.NewTLS(skipVerifyTLS())))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	}
}

// newLogExporter creates an OTLP log exporter for ep.
func newLogExporter(ctx context.Context, ep Endpoint, s exporterSettings) (sdklog.Exporter, error) {
	switch ep.Protocol {
	case ProtocolHTTP:
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(ep.Host)}
		if ep.Path != "" {
			opts = append(opts, otlploghttp.WithURLPath(ep.Path))
		}
		if len(s.headers) > 0 {
			opts = append(opts, otlploghttp.WithHeaders(s.headers))
		}
		if ep.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		} else if s.tlsSkipVerify {
			opts = append(opts, otlploghttp.WithTLSClientConfig(skipVerifyTLS()))
		}
		return otlploghttp.New(ctx, opts...)
	default:
		opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(ep.Host)}
		if len(s.headers) > 0 {
			opts = append(opts, otlploggrpc.WithHeaders(s.headers))
		}
		if ep.Insecure {
			opts = append(opts, otlploggrpc.WithInsecure())
		} else if s.tlsSkipVerify {
			opts = append(opts, otlploggrpc.WithTLSCredentials(credentials.NewTLS(skipVerifyTLS())))
		}
		return otlploggrpc.New(ctx, opts...)
	}
}

// newSampler maps the configured rate onto a parent-based sampler.
func newSampler(rate float64) trace.Sampler {
	var root trace.Sampler
	switch {
	case rate >= 1.0:
		root = trace.AlwaysSample()
	case rate <= 0:
		root = trace.NeverSample()
	default:
		root = trace.TraceIDRatioBased(rate)
	}
	return trace.ParentBased(root)
}

// newTracerProvider creates a TracerProvider with a batching span processor.
func newTracerProvider(ctx context.Context, cfg *Config, res *resource.Resource, s exporterSettings, o *options) (*trace.TracerProvider, error) {
	exporter := o.traceExporter
	if exporter == nil {
		ep, err := ParseEndpoint(cfg.TracesEndpoint, cfg.Protocol)
		if err != nil {
			return nil, err
		}
		exporter, err = newTraceExporter(ctx, ep, s)
		if err != nil {
			return nil, fmt.Errorf("creating trace exporter: %w", err)
		}
	}

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(newSampler(cfg.SamplingRate)),
	), nil
}

// newMeterProvider creates a MeterProvider with a periodic reader.
func newMeterProvider(ctx context.Context, cfg *Config, res *resource.Resource, s exporterSettings, o *options) (*metric.MeterProvider, error) {
	reader := o.metricReader
	if reader == nil {
		exporter := o.metricExporter
		if exporter == nil {
			ep, err := ParseEndpoint(cfg.MetricsEndpoint, cfg.Protocol)
			if err != nil {
				return nil, err
			}
			exporter, err = newMetricExporter(ctx, ep, s)
			if err != nil {
				return nil, fmt.Errorf("creating metric exporter: %w", err)
			}
		}
		reader = metric.NewPeriodicReader(exporter, metric.WithInterval(cfg.ExportInterval()))
	}

	return metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(reader),
	), nil
}

// newLoggerProvider creates a LoggerProvider with a batching log processor.
func newLoggerProvider(ctx context.Context, cfg *Config, res *resource.Resource, s exporterSettings, o *options) (*sdklog.LoggerProvider, error) {
	exporter := o.logExporter
	if exporter == nil {
		ep, err := ParseEndpoint(cfg.LogsEndpoint, cfg.Protocol)
		if err != nil {
			return nil, err
		}
		exporter, err = newLogExporter(ctx, ep, s)
		if err != nil {
			return nil, fmt.Errorf("creating log exporter: %w", err)
		}
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	), nil
}
