// internal/logging/otel.go
package logging

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BridgeScope is the instrumentation scope of records produced by the OTEL bridge.
const BridgeScope = "github.com/fyrsmithlabs/otelboot/internal/logging"

// newDualCore creates core with stdout and/or OTEL outputs. The bridge core
// is always part of the tee so a provider can be attached after construction.
func newDualCore(cfg *Config, otelProvider log.LoggerProvider, bridge *bridgeCore) (zapcore.Core, error) {
	cores := make([]zapcore.Core, 0, 3)

	if cfg.Output.Stdout {
		baseEncoder := newEncoder(cfg.Format)
		encoder, err := NewRedactingEncoder(baseEncoder, cfg.Redaction)
		if err != nil {
			return nil, fmt.Errorf("failed to create redacting encoder: %w", err)
		}
		writer := zapcore.AddSync(os.Stdout)
		cores = append(cores, zapcore.NewCore(encoder, writer, cfg.Level))
	}

	if cfg.Output.OTEL && otelProvider != nil {
		bridge.attach(otelzap.NewCore(BridgeScope, otelzap.WithLoggerProvider(otelProvider)))
	}

	if len(cores) == 0 && !cfg.Output.OTEL {
		return nil, fmt.Errorf("at least one output must be enabled and available")
	}

	bridge.level = cfg.Level
	cores = append(cores, bridge)

	core := zapcore.NewTee(cores...)

	return newSampledCore(core, cfg.Sampling), nil
}

// AttachOTEL routes every subsequent entry of this logger, its children and
// its parent to provider through the otelzap bridge. A nil provider detaches.
func (l *Logger) AttachOTEL(provider log.LoggerProvider) {
	if l == nil || l.bridge == nil {
		return
	}
	if provider == nil {
		l.bridge.attach(nil)
		return
	}
	l.bridge.attach(otelzap.NewCore(BridgeScope, otelzap.WithLoggerProvider(provider)))
}

// Bridged reports whether an OTEL provider is currently attached.
func (l *Logger) Bridged() bool {
	return l != nil && l.bridge.attached()
}

// contextField carries ctx to the otelzap core. Encoders skip it.
func contextField(ctx context.Context) zap.Field {
	return zap.Field{Key: "ctx", Type: zapcore.SkipType, Interface: ctx}
}

// bridgeCore is a zapcore.Core whose target can be swapped at runtime.
// Children created through With share the slot and replay their fields.
type bridgeCore struct {
	slot   *atomic.Pointer[zapcore.Core]
	fields []zapcore.Field
	level  zapcore.Level
}

func newBridgeCore() *bridgeCore {
	return &bridgeCore{slot: &atomic.Pointer[zapcore.Core]{}}
}

func (c *bridgeCore) attach(core zapcore.Core) {
	if core == nil {
		c.slot.Store(nil)
		return
	}
	c.slot.Store(&core)
}

func (c *bridgeCore) attached() bool {
	return c != nil && c.slot.Load() != nil
}

func (c *bridgeCore) target() zapcore.Core {
	if p := c.slot.Load(); p != nil {
		return *p
	}
	return nil
}

func (c *bridgeCore) Enabled(lvl zapcore.Level) bool {
	if lvl < c.level {
		return false
	}
	t := c.target()
	return t != nil && t.Enabled(lvl)
}

func (c *bridgeCore) With(fields []zapcore.Field) zapcore.Core {
	merged := make([]zapcore.Field, 0, len(c.fields)+len(fields))
	merged = append(merged, c.fields...)
	merged = append(merged, fields...)
	return &bridgeCore{slot: c.slot, fields: merged, level: c.level}
}

func (c *bridgeCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *bridgeCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	t := c.target()
	if t == nil {
		return nil
	}
	if len(c.fields) > 0 {
		t = t.With(c.fields)
	}
	return t.Write(ent, fields)
}

func (c *bridgeCore) Sync() error {
	if t := c.target(); t != nil {
		return t.Sync()
	}
	return nil
}
