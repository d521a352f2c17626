package telemetry

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fyrsmithlabs/otelboot/internal/config"
)

// Runtime gate. Telemetry is only bootstrapped in the full server runtime.
const (
	RuntimeEnvVar = "NEXT_RUNTIME"
	ServerRuntime = "nodejs"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvServiceName          = "OTEL_SERVICE_NAME"
	EnvServiceVersion       = "OTEL_SERVICE_VERSION"
	EnvEndpoint             = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvTracesEndpoint       = "OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"
	EnvMetricsEndpoint      = "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"
	EnvLogsEndpoint         = "OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"
	EnvProtocol             = "OTEL_EXPORTER_OTLP_PROTOCOL"
	EnvHeaders              = "OTEL_EXPORTER_OTLP_HEADERS"
	EnvInsecureSkipVerify   = "OTEL_EXPORTER_OTLP_INSECURE_SKIP_VERIFY"
	EnvMetricExportInterval = "OTEL_METRIC_EXPORT_INTERVAL"
	EnvTracesSamplerArg     = "OTEL_TRACES_SAMPLER_ARG"
	EnvShutdownTimeout      = "OTEL_SHUTDOWN_TIMEOUT"
)

// Defaults applied when a variable is unset or empty.
const (
	DefaultServiceName          = "nextjs-frontend"
	DefaultServiceVersion       = "0.1.0"
	DefaultEndpoint             = "grpc://otel-collector:4317"
	DefaultExportIntervalMillis = 5000
	DefaultProtocol             = ProtocolGRPC
	DefaultSamplingRate         = 1.0
	DefaultShutdownTimeout      = 5 * time.Second
)

// Protocol is an OTLP transport.
type Protocol string

const (
	ProtocolGRPC Protocol = "grpc"
	ProtocolHTTP Protocol = "http/protobuf"
)

// Config holds telemetry configuration. It is built once from the
// environment and never mutated afterwards.
type Config struct {
	ServiceName    string `koanf:"service_name" json:"service_name"`
	ServiceVersion string `koanf:"service_version" json:"service_version"`

	TracesEndpoint  string `koanf:"traces_endpoint" json:"traces_endpoint"`
	MetricsEndpoint string `koanf:"metrics_endpoint" json:"metrics_endpoint"`
	LogsEndpoint    string `koanf:"logs_endpoint" json:"logs_endpoint"`

	// Protocol applies to endpoints without a scheme.
	Protocol      Protocol      `koanf:"protocol" json:"protocol"`
	Headers       config.Secret `koanf:"headers" json:"headers"`
	TLSSkipVerify bool          `koanf:"tls_skip_verify" json:"tls_skip_verify"`

	ExportIntervalMillis int             `koanf:"export_interval_ms" json:"export_interval_ms"`
	SamplingRate         float64         `koanf:"sampling_rate" json:"sampling_rate"`
	ShutdownTimeout      config.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout"`
}

// NewDefaultConfig returns the configuration used when no variable is set.
func NewDefaultConfig() *Config {
	return &Config{
		ServiceName:          DefaultServiceName,
		ServiceVersion:       DefaultServiceVersion,
		TracesEndpoint:       DefaultEndpoint,
		MetricsEndpoint:      DefaultEndpoint,
		LogsEndpoint:         DefaultEndpoint,
		Protocol:             DefaultProtocol,
		ExportIntervalMillis: DefaultExportIntervalMillis,
		SamplingRate:         DefaultSamplingRate,
		ShutdownTimeout:      config.Duration(DefaultShutdownTimeout),
	}
}

// maxExportIntervalMillis is the largest interval a time.Duration can hold.
const maxExportIntervalMillis = math.MaxInt64 / int64(time.Millisecond)

// OTLP/HTTP paths appended to a shared base endpoint.
const (
	tracesPath  = "/v1/traces"
	metricsPath = "/v1/metrics"
	logsPath    = "/v1/logs"
)

// ConfigFromEnv builds a Config from getenv. Unset or empty variables take
// their default. An unparseable, non-positive or overflowing export interval
// falls back to DefaultExportIntervalMillis; an unparseable, NaN or
// out-of-range sampling rate falls back to 1.0.
//
// A per-signal endpoint is used as-is. The shared OTEL_EXPORTER_OTLP_ENDPOINT
// is a base URL: for http/protobuf the signal path (/v1/traces, /v1/metrics,
// /v1/logs) is appended to it.
func ConfigFromEnv(getenv config.LookupFunc) *Config {
	if getenv == nil {
		getenv = config.OSLookup
	}

	rate := getenv.Float(EnvTracesSamplerArg, DefaultSamplingRate)
	if math.IsNaN(rate) || rate < 0 || rate > 1 {
		rate = DefaultSamplingRate
	}

	interval := getenv.PositiveInt(EnvMetricExportInterval, DefaultExportIntervalMillis)
	if int64(interval) > maxExportIntervalMillis {
		interval = DefaultExportIntervalMillis
	}

	protocol := Protocol(getenv.String(EnvProtocol, string(DefaultProtocol)))
	shared := getenv.String(EnvEndpoint, "")

	return &Config{
		ServiceName:          getenv.String(EnvServiceName, DefaultServiceName),
		ServiceVersion:       getenv.String(EnvServiceVersion, DefaultServiceVersion),
		TracesEndpoint:       signalEndpoint(getenv, EnvTracesEndpoint, shared, tracesPath, protocol),
		MetricsEndpoint:      signalEndpoint(getenv, EnvMetricsEndpoint, shared, metricsPath, protocol),
		LogsEndpoint:         signalEndpoint(getenv, EnvLogsEndpoint, shared, logsPath, protocol),
		Protocol:             protocol,
		Headers:              config.Secret(getenv.String(EnvHeaders, "")),
		TLSSkipVerify:        getenv.Bool(EnvInsecureSkipVerify, false),
		ExportIntervalMillis: interval,
		SamplingRate:         rate,
		ShutdownTimeout:      config.Duration(getenv.Duration(EnvShutdownTimeout, DefaultShutdownTimeout)),
	}
}

// signalEndpoint resolves one signal's endpoint from its own variable, then
// the shared base endpoint, then DefaultEndpoint.
func signalEndpoint(getenv config.LookupFunc, key, shared, signalPath string, protocol Protocol) string {
	if v := getenv.String(key, ""); v != "" {
		return v
	}
	if shared == "" {
		return DefaultEndpoint
	}
	ep, err := ParseEndpoint(shared, protocol)
	if err != nil || ep.Protocol != ProtocolHTTP {
		// invalid values are left for Validate to report
		return shared
	}
	return strings.TrimRight(strings.TrimSpace(shared), "/") + signalPath
}

// ExportInterval returns the metric export period.
func (c *Config) ExportInterval() time.Duration {
	return time.Duration(c.ExportIntervalMillis) * time.Millisecond
}

// Validate checks configuration for errors.
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}

	switch c.Protocol {
	case ProtocolGRPC, ProtocolHTTP:
	default:
		return fmt.Errorf("unsupported protocol %q (want %q or %q)", c.Protocol, ProtocolGRPC, ProtocolHTTP)
	}

	for _, ep := range []struct{ signal, raw string }{
		{"traces", c.TracesEndpoint},
		{"metrics", c.MetricsEndpoint},
		{"logs", c.LogsEndpoint},
	} {
		if _, err := ParseEndpoint(ep.raw, c.Protocol); err != nil {
			return fmt.Errorf("%s endpoint: %w", ep.signal, err)
		}
	}

	if _, err := ParseHeaders(c.Headers.Value()); err != nil {
		return fmt.Errorf("headers: %w", err)
	}

	if c.ExportIntervalMillis <= 0 {
		return fmt.Errorf("export_interval_ms must be positive, got %d", c.ExportIntervalMillis)
	}
	if int64(c.ExportIntervalMillis) > maxExportIntervalMillis {
		return fmt.Errorf("export_interval_ms is too large, got %d", c.ExportIntervalMillis)
	}

	if math.IsNaN(c.SamplingRate) || c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("sampling_rate must be between 0 and 1, got %f", c.SamplingRate)
	}

	if c.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive")
	}

	return nil
}
