package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/fyrsmithlabs/otelboot/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Telemetry is a constructed OpenTelemetry SDK: tracer, meter and logger
// providers plus the instrumentations started with them.
//
// Telemetry failures do not crash the application; they degrade gracefully.
type Telemetry struct {
	config *Config
	logger *logging.Logger

	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	loggerProvider *sdklog.LoggerProvider

	instrumentations []Instrumentation

	started  atomic.Bool
	stopped  atomic.Bool
	healthy  atomic.Bool
	degraded atomic.Bool
}

// WithLogger hands logger to instrumentations through Providers.Logger.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New validates cfg and constructs the SDK providers. Nothing is installed
// globally until Start. If construction fails, providers built so far are
// shut down before the error is returned.
func New(ctx context.Context, cfg *Config, instrumentations []Instrumentation, opts ...Option) (*Telemetry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("invalid telemetry config: nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	t := &Telemetry{
		config:           cfg,
		logger:           o.logger,
		instrumentations: append([]Instrumentation(nil), instrumentations...),
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	settings, err := newExporterSettings(cfg)
	if err != nil {
		return nil, fmt.Errorf("exporter headers: %w", err)
	}

	if t.tracerProvider, err = newTracerProvider(ctx, cfg, res, settings, o); err != nil {
		return nil, fmt.Errorf("tracer provider: %w", err)
	}

	if t.meterProvider, err = newMeterProvider(ctx, cfg, res, settings, o); err != nil {
		_ = t.shutdownProviders(ctx)
		return nil, fmt.Errorf("meter provider: %w", err)
	}

	if t.loggerProvider, err = newLoggerProvider(ctx, cfg, res, settings, o); err != nil {
		_ = t.shutdownProviders(ctx)
		return nil, fmt.Errorf("logger provider: %w", err)
	}

	t.healthy.Store(true)
	return t, nil
}

// Start installs the providers and the W3C propagator as OpenTelemetry
// globals, then starts every instrumentation in order. It does not wait for
// the collector; exporters connect lazily. Start may only be called once.
func (t *Telemetry) Start(ctx context.Context) error {
	if t == nil {
		return fmt.Errorf("telemetry is nil")
	}
	if !t.started.CompareAndSwap(false, true) {
		return fmt.Errorf("telemetry already started")
	}

	otel.SetTracerProvider(t.tracerProvider)
	otel.SetMeterProvider(t.meterProvider)
	global.SetLoggerProvider(t.loggerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	p := Providers{
		ServiceName:    t.config.ServiceName,
		TracerProvider: t.tracerProvider,
		MeterProvider:  t.meterProvider,
		LoggerProvider: t.loggerProvider,
		Logger:         t.logger,
	}
	for _, inst := range t.instrumentations {
		if err := inst.Start(ctx, p); err != nil {
			t.degraded.Store(true)
			return fmt.Errorf("starting instrumentation %q: %w", inst.Name(), err)
		}
	}

	return nil
}

// Tracer returns a tracer for the given instrumentation scope.
//
// Falls back to the global provider if telemetry is nil.
func (t *Telemetry) Tracer(name string, opts ...oteltrace.TracerOption) oteltrace.Tracer {
	if t == nil || t.tracerProvider == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return t.tracerProvider.Tracer(name, opts...)
}

// Meter returns a meter for the given instrumentation scope.
//
// Falls back to the global provider if telemetry is nil.
func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if t == nil || t.meterProvider == nil {
		return otel.GetMeterProvider().Meter(name, opts...)
	}
	return t.meterProvider.Meter(name, opts...)
}

// LoggerProvider returns the SDK logger provider, or nil.
func (t *Telemetry) LoggerProvider() log.LoggerProvider {
	if t == nil || t.loggerProvider == nil {
		return nil
	}
	return t.loggerProvider
}

// Config returns the configuration the SDK was built from.
func (t *Telemetry) Config() *Config {
	if t == nil {
		return nil
	}
	return t.config
}

// Instrumentations returns the instrumentation set in start order.
func (t *Telemetry) Instrumentations() []Instrumentation {
	if t == nil {
		return nil
	}
	return append([]Instrumentation(nil), t.instrumentations...)
}

// InstrumentationNames returns the names of the instrumentation set.
func (t *Telemetry) InstrumentationNames() []string {
	insts := t.Instrumentations()
	names := make([]string, len(insts))
	for i, inst := range insts {
		names[i] = inst.Name()
	}
	return names
}

// Shutdown flushes and stops all providers. Without a deadline on ctx the
// configured shutdown timeout applies. Calls after the first are no-ops.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	if !t.stopped.CompareAndSwap(false, true) {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok && t.config != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.ShutdownTimeout.Duration())
		defer cancel()
	}

	err := t.shutdownProviders(ctx)
	t.healthy.Store(false)
	return err
}

func (t *Telemetry) shutdownProviders(ctx context.Context) error {
	var errs []error

	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace provider shutdown: %w", err))
		}
	}

	if t.meterProvider != nil {
		if err := t.meterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if t.loggerProvider != nil {
		if err := t.loggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("logger provider shutdown: %w", err))
		}
	}

	return errors.Join(errs...)
}

// ForceFlush immediately exports all pending telemetry data.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if t == nil || t.stopped.Load() {
		return nil
	}

	var errs []error

	if t.tracerProvider != nil {
		if err := t.tracerProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("trace flush: %w", err))
		}
	}

	if t.meterProvider != nil {
		if err := t.meterProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter flush: %w", err))
		}
	}

	if t.loggerProvider != nil {
		if err := t.loggerProvider.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("log flush: %w", err))
		}
	}

	return errors.Join(errs...)
}

// HealthStatus reports telemetry health.
type HealthStatus struct {
	Healthy  bool `json:"healthy"`
	Degraded bool `json:"degraded"`
}

// Health returns the current telemetry health status.
func (t *Telemetry) Health() HealthStatus {
	if t == nil {
		return HealthStatus{Healthy: false, Degraded: true}
	}
	return HealthStatus{
		Healthy:  t.healthy.Load(),
		Degraded: t.degraded.Load(),
	}
}

// IsEnabled returns true if telemetry is started and not shut down.
func (t *Telemetry) IsEnabled() bool {
	return t != nil && t.started.Load() && !t.stopped.Load()
}
