package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fyrsmithlabs/otelboot/internal/telemetry"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// newTracedEcho starts in-memory telemetry, which installs the global
// providers and propagator the middleware uses.
func newTracedEcho(t *testing.T) (*echo.Echo, *telemetry.TestTelemetry) {
	t.Helper()

	tt := telemetry.NewTestTelemetry(t)
	require.NoError(t, tt.Start(context.Background()))

	e := echo.New()
	e.Use(TracingMiddleware(nil))
	return e, tt
}

func TestTracingMiddleware_ServerSpan(t *testing.T) {
	e, tt := newTracedEcho(t)

	var handlerSpan trace.SpanContext
	e.GET("/items/:id", func(c echo.Context) error {
		handlerSpan = trace.SpanContextFromContext(c.Request().Context())
		return c.String(http.StatusOK, "ok")
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))

	span := tt.SpanByName("GET /items/:id")
	require.NotNil(t, span)
	assert.Equal(t, trace.SpanKindServer, span.SpanKind)
	assert.Equal(t, span.SpanContext.SpanID(), handlerSpan.SpanID(), "handler sees the server span")
	assert.Equal(t, codes.Unset, span.Status.Code)

	tt.AssertSpanAttribute(t, "GET /items/:id", "http.request.method", "GET")
	tt.AssertSpanAttribute(t, "GET /items/:id", "http.route", "/items/:id")
	tt.AssertSpanAttribute(t, "GET /items/:id", "url.path", "/items/42")
	tt.AssertSpanAttribute(t, "GET /items/:id", "http.response.status_code", int64(http.StatusOK))
}

func TestTracingMiddleware_ExtractsTraceContext(t *testing.T) {
	e, tt := newTracedEcho(t)
	e.GET("/health", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	e.ServeHTTP(httptest.NewRecorder(), req)

	span := tt.SpanByName("GET /health")
	require.NotNil(t, span)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", span.Parent.SpanID().String())
	assert.True(t, span.Parent.IsRemote())
}

func TestTracingMiddleware_ServerError(t *testing.T) {
	e, tt := newTracedEcho(t)
	e.GET("/fail", func(c echo.Context) error {
		return errors.New("boom")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	span := tt.SpanByName("GET /fail")
	require.NotNil(t, span)
	assert.Equal(t, codes.Error, span.Status.Code)
	tt.AssertSpanAttribute(t, "GET /fail", "http.response.status_code", int64(http.StatusInternalServerError))
	require.NotEmpty(t, span.Events)
	assert.Equal(t, "exception", span.Events[0].Name)
}

func TestTracingMiddleware_ClientErrorIsNotSpanError(t *testing.T) {
	e, tt := newTracedEcho(t)
	e.GET("/missing", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "not here")
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	span := tt.SpanByName("GET /missing")
	require.NotNil(t, span)
	assert.Equal(t, codes.Unset, span.Status.Code)
}
