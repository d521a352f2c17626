// Package telemetry bootstraps the OpenTelemetry SDK for otelboot.
//
// # Overview
//
// At process start the host calls Register once. In the server runtime
// (NEXT_RUNTIME=nodejs) it reads the OTEL_* environment, builds OTLP trace,
// metric and log exporters, constructs tracer, meter and logger providers,
// installs them as OpenTelemetry globals and starts the instrumentation set.
// Everywhere else it does nothing.
//
//	logger, _ := logging.NewLogger(logging.NewDefaultConfig(), nil)
//	telemetry.Register(ctx, logger)
//	defer telemetry.Shutdown(context.Background())
//
// # Instrumentations
//
// The "auto" instrumentation (Go runtime and host metrics) is always
// present. Optional capabilities register themselves in the default
// Registry from an init function, following the database/sql driver idiom:
//
//	import _ "github.com/fyrsmithlabs/otelboot/internal/telemetry/logbridge"
//
// A capability that is not linked into the binary is reported at info level
// and skipped.
//
// # Configuration
//
//	OTEL_SERVICE_NAME             nextjs-frontend
//	OTEL_EXPORTER_OTLP_ENDPOINT   grpc://otel-collector:4317
//	OTEL_METRIC_EXPORT_INTERVAL   5000 (ms)
//
// Per-signal OTEL_EXPORTER_OTLP_{TRACES,METRICS,LOGS}_ENDPOINT variables
// take precedence over the shared endpoint. The endpoint scheme selects the
// transport: grpc, grpcs, http or https.
//
// # Error Handling
//
// Telemetry failures do not crash the application. Register logs a single
// error and the host continues without telemetry.
//
// # Testing
//
//	tt := telemetry.NewTestTelemetry(t)
//	_, span := tt.Tracer("test").Start(ctx, "test-span")
//	span.End()
//	tt.AssertSpanExists(t, "test-span")
package telemetry
