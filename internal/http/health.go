package http

import (
	"net/http"

	"github.com/fyrsmithlabs/otelboot/internal/telemetry"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string          `json:"status"`
	Telemetry TelemetryStatus `json:"telemetry"`
}

// TelemetryStatus reports the state of the OpenTelemetry SDK.
type TelemetryStatus struct {
	Enabled  bool `json:"enabled"`
	Healthy  bool `json:"healthy"`
	Degraded bool `json:"degraded"`
}

func telemetryStatus(tel *telemetry.Telemetry) TelemetryStatus {
	h := tel.Health()
	return TelemetryStatus{
		Enabled:  tel.IsEnabled(),
		Healthy:  h.Healthy,
		Degraded: h.Degraded,
	}
}

// healthMetrics exposes telemetry state on /metrics.
type healthMetrics struct {
	checks prometheus.Counter
}

func newHealthMetrics(reg prometheus.Registerer, tel *telemetry.Telemetry) *healthMetrics {
	factory := promauto.With(reg)

	boolGauge := func(name, help string, get func(TelemetryStatus) bool) {
		factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: "otelboot",
				Subsystem: "telemetry",
				Name:      name,
				Help:      help,
			},
			func() float64 {
				if get(telemetryStatus(tel)) {
					return 1
				}
				return 0
			},
		)
	}
	boolGauge("enabled", "Whether the OpenTelemetry SDK is running (1=running, 0=not running)",
		func(s TelemetryStatus) bool { return s.Enabled })
	boolGauge("healthy", "Current telemetry health (1=healthy, 0=unhealthy)",
		func(s TelemetryStatus) bool { return s.Healthy })
	boolGauge("degraded", "Whether an instrumentation failed to start (1=degraded)",
		func(s TelemetryStatus) bool { return s.Degraded })

	return &healthMetrics{
		checks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "otelboot",
			Subsystem: "http",
			Name:      "health_checks_total",
			Help:      "Total number of health check requests",
		}),
	}
}

// handleHealth reports process and telemetry health. The process is healthy
// whenever it can answer; telemetry problems never fail the check.
func (s *Server) handleHealth(c echo.Context) error {
	s.health.checks.Inc()
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Telemetry: telemetryStatus(s.telemetry),
	})
}
