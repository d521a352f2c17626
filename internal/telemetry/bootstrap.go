package telemetry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fyrsmithlabs/otelboot/internal/config"
	"github.com/fyrsmithlabs/otelboot/internal/logging"
	"go.uber.org/zap"
)

// Bootstrapper decides whether to bring up telemetry and does so. Zero
// fields fall back to the process environment, a nop logger and the
// default registry.
type Bootstrapper struct {
	Getenv   config.LookupFunc
	Logger   *logging.Logger
	Registry *Registry
	Options  []Option
}

// Register bootstraps the SDK when the runtime gate allows it.
//
// Outside the server runtime it returns nil without logging or constructing
// anything. Otherwise it assembles the instrumentation set, builds the
// configuration from the environment, constructs and starts the SDK and
// returns it. Failures are logged once at error level and never returned;
// the host keeps running without telemetry.
func (b *Bootstrapper) Register(ctx context.Context) *Telemetry {
	getenv := b.Getenv
	if getenv == nil {
		getenv = config.OSLookup
	}
	if getenv(RuntimeEnvVar) != ServerRuntime {
		return nil
	}

	logger := b.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	registry := b.Registry
	if registry == nil {
		registry = defaultRegistry
	}
	log := logger.Named("otel")

	instrumentations := []Instrumentation{NewAutoInstrumentation()}
	if inst, ok := registry.Lookup(LogCorrelationName); ok {
		log.Info(ctx, "log correlation instrumentation loaded (structured logs + trace correlation enabled)")
		instrumentations = append(instrumentations, inst)
	} else {
		log.Info(ctx, "log correlation not linked, skipping; logs are captured from container stdout")
	}

	tel, err := b.start(ctx, getenv, logger, instrumentations)
	if err != nil {
		logger.AttachOTEL(nil)
		log.Error(ctx, "failed to start OpenTelemetry SDK", zap.Error(err))
		return nil
	}

	cfg := tel.Config()
	log.Info(ctx, "OpenTelemetry SDK started",
		zap.String("service", cfg.ServiceName),
		zap.String("traces_endpoint", cfg.TracesEndpoint),
		zap.String("metrics_endpoint", cfg.MetricsEndpoint),
		zap.String("logs_endpoint", cfg.LogsEndpoint),
		zap.Duration("metric_export_interval", cfg.ExportInterval()),
		zap.Strings("instrumentations", tel.InstrumentationNames()),
	)
	return tel
}

// start runs the fallible steps. Anything built before a failure is shut
// down without logging, and panics from the SDK or an instrumentation are
// turned into errors.
func (b *Bootstrapper) start(ctx context.Context, getenv config.LookupFunc, logger *logging.Logger, instrumentations []Instrumentation) (tel *Telemetry, err error) {
	defer func() {
		if r := recover(); r != nil {
			if tel != nil {
				_ = tel.Shutdown(ctx)
			}
			tel, err = nil, fmt.Errorf("panic during telemetry start: %v", r)
		}
	}()

	cfg := ConfigFromEnv(getenv)

	opts := append([]Option{WithLogger(logger)}, b.Options...)
	tel, err = New(ctx, cfg, instrumentations, opts...)
	if err != nil {
		return nil, err
	}

	if err = tel.Start(ctx); err != nil {
		_ = tel.Shutdown(ctx)
		return nil, err
	}
	return tel, nil
}

var (
	registerOnce sync.Once
	instance     atomic.Pointer[Telemetry]
)

// Register bootstraps telemetry for the process from the environment. Only
// the first call has any effect. The started SDK is available from Global.
func Register(ctx context.Context, logger *logging.Logger) {
	registerOnce.Do(func() {
		b := &Bootstrapper{Logger: logger}
		if tel := b.Register(ctx); tel != nil {
			instance.Store(tel)
		}
	})
}

// Global returns the process-wide SDK, or nil if Register did not start one.
func Global() *Telemetry {
	return instance.Load()
}

// Shutdown flushes and stops the process-wide SDK. It is safe to call when
// telemetry never started.
func Shutdown(ctx context.Context) error {
	return Global().Shutdown(ctx)
}
