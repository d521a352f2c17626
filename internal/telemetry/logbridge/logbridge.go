// Package logbridge links structured log export into the telemetry SDK.
//
// Importing the package registers the "log-correlation" instrumentation in
// the default registry. When it starts, the host logger is attached to the
// SDK's LoggerProvider through the otelzap bridge, so every entry is also
// exported over OTLP with the active trace and span IDs attached.
//
//	import _ "github.com/fyrsmithlabs/otelboot/internal/telemetry/logbridge"
package logbridge

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/otelboot/internal/telemetry"
)

func init() {
	telemetry.RegisterInstrumentation(telemetry.LogCorrelationName, New)
}

// Instrumentation attaches the host logger to the OTEL log pipeline.
type Instrumentation struct{}

// New returns the log correlation instrumentation.
func New() telemetry.Instrumentation {
	return &Instrumentation{}
}

// Name implements telemetry.Instrumentation.
func (*Instrumentation) Name() string { return telemetry.LogCorrelationName }

// Start attaches p.Logger to p.LoggerProvider. Without a host logger there
// is nothing to bridge and Start does nothing.
func (*Instrumentation) Start(_ context.Context, p telemetry.Providers) error {
	if p.Logger == nil {
		return nil
	}
	if p.LoggerProvider == nil {
		return errors.New("log correlation requires a logger provider")
	}
	p.Logger.AttachOTEL(p.LoggerProvider)
	return nil
}
