package telemetry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fyrsmithlabs/otelboot/internal/logging"
	"go.opentelemetry.io/contrib/instrumentation/host"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Well-known instrumentation names.
const (
	AutoInstrumentationName = "auto"
	LogCorrelationName      = "log-correlation"
)

// Providers is what an instrumentation receives when the SDK starts.
type Providers struct {
	ServiceName    string
	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
	LoggerProvider log.LoggerProvider

	// Logger is the host's logger. It may be nil.
	Logger *logging.Logger
}

// Instrumentation is a capability plugin started together with the SDK.
type Instrumentation interface {
	Name() string
	Start(ctx context.Context, p Providers) error
}

// Factory creates an Instrumentation.
type Factory func() Instrumentation

// Registry maps capability names to factories. Optional capabilities
// register themselves from init, so a capability is available exactly when
// its package is linked into the binary.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. It panics if name is empty, factory is nil or
// name is already registered.
func (r *Registry) Register(name string, factory Factory) {
	if name == "" {
		panic("telemetry: Register with empty instrumentation name")
	}
	if factory == nil {
		panic(fmt.Sprintf("telemetry: Register instrumentation %q with nil factory", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("telemetry: Register called twice for instrumentation %q", name))
	}
	r.factories[name] = factory
}

// Lookup returns a fresh instance of the named capability, or false when
// nothing registered it.
func (r *Registry) Lookup(name string) (Instrumentation, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	inst := factory()
	return inst, inst != nil
}

// Names returns the registered names in sorted order. A nil registry has
// none.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is the registry optional capability packages register into.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// RegisterInstrumentation registers factory in the default registry.
func RegisterInstrumentation(name string, factory Factory) {
	defaultRegistry.Register(name, factory)
}

// autoInstrumentation collects Go runtime and host metrics. HTTP server
// spans come from the host's middleware through the global providers.
type autoInstrumentation struct{}

// NewAutoInstrumentation returns the always-on instrumentation.
func NewAutoInstrumentation() Instrumentation {
	return autoInstrumentation{}
}

func (autoInstrumentation) Name() string { return AutoInstrumentationName }

func (autoInstrumentation) Start(_ context.Context, p Providers) error {
	if p.MeterProvider == nil {
		return nil
	}
	if err := runtime.Start(runtime.WithMeterProvider(p.MeterProvider)); err != nil {
		return fmt.Errorf("start runtime metrics: %w", err)
	}
	if err := host.Start(host.WithMeterProvider(p.MeterProvider)); err != nil {
		return fmt.Errorf("start host metrics: %w", err)
	}
	return nil
}
