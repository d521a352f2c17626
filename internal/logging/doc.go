// Package logging provides structured logging with OpenTelemetry integration.
//
// # Overview
//
// Logging package wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Stdout output plus a swappable OpenTelemetry bridge
//   - Automatic context field injection (trace_id, span_id, request.id)
//   - Secret redaction at the encoder
//   - Level-aware sampling (errors never sampled)
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info(ctx, "request processed", zap.Duration("duration", d))
//
// # OpenTelemetry Bridge
//
// Every logger is built with a bridge core that is empty until a
// log.LoggerProvider is attached:
//
//	logger.AttachOTEL(tel.LoggerProvider())
//
// From then on every entry written through the logger, its children and its
// parent is also emitted as an OTEL log record. The request context is passed
// to the otelzap bridge so records carry the active trace and span IDs.
// Attaching nil detaches the bridge.
//
// # Secret Redaction
//
// Secrets are redacted at multiple layers:
//  1. Domain primitives (config.Secret type)
//  2. Encoder-level field name filtering
//  3. Encoder-level pattern matching
//
// Use helpers for manual redaction:
//
//	logger.Info(ctx, "exporter configured",
//	    logging.Secret("headers", cfg.Headers))
//
// # Sampling
//
// Each level below Error is sampled per tick with its own rate:
//   - Trace: first 1 per second, drop rest
//   - Debug: first 10 per second, drop rest
//   - Info: first 100, then 1 every 10
//   - Warn: first 100, then 1 every 100
//   - Error+: never sampled
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "test message", zap.String("key", "value"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "test message")
//	tl.AssertField(t, "test message", "key", "value")
//	tl.AssertNoSecrets(t)
package logging
