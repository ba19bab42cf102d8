package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"compliance/internal/config"
)

func setupProvider(t *testing.T) {
	t.Helper()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
		_ = tp.Shutdown(context.Background())
	})
}

func TestKafkaHeaderPropagation(t *testing.T) {
	setupProvider(t)

	ctx, span := StartSpan(context.Background(), "publish")
	defer span.End()

	headers := InjectTraceContext(ctx, nil)
	require.NotEmpty(t, headers)
	assert.Equal(t, "traceparent", headers[0].Key)

	consumed, child := StartSpanFromKafkaMessage(context.Background(), "consume", []kafka.Header(headers))
	defer child.End()
	assert.Equal(t, TraceIDFromContext(ctx), TraceIDFromContext(consumed))
}

func TestNATSHeaderPropagation(t *testing.T) {
	setupProvider(t)

	ctx, span := StartSpan(context.Background(), "publish")
	defer span.End()

	header := nats.Header{}
	InjectNATSHeaders(ctx, header)
	assert.NotEmpty(t, header.Get("traceparent"))

	consumed, child := StartSpanFromNATSMessage(context.Background(), "consume", header)
	defer child.End()
	assert.Equal(t, TraceIDFromContext(ctx), TraceIDFromContext(consumed))
}

func TestEndSpanRecordsError(t *testing.T) {
	setupProvider(t)
	_, span := StartSpan(context.Background(), "op")
	EndSpan(span, errors.New("boom"))
	assert.False(t, span.IsRecording())
}

func TestTraceIDFromContext_NoSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}

func TestInit_Disabled(t *testing.T) {
	tp, err := Init(config.TracingConfig{Enabled: false}, "")
	require.NoError(t, err)
	require.NoError(t, tp.Shutdown(context.Background()))
}

func TestTracedSkipsProbes(t *testing.T) {
	assert.False(t, traced(httptest.NewRequest(http.MethodGet, "/health", nil)))
	assert.False(t, traced(httptest.NewRequest(http.MethodGet, "/metrics", nil)))
	assert.True(t, traced(httptest.NewRequest(http.MethodPost, "/api/v1/checks", nil)))
}

func TestSamplerFor(t *testing.T) {
	assert.Equal(t, sdktrace.NeverSample().Description(), samplerFor(config.SamplerConfig{Type: "always_off"}).Description())
	assert.Equal(t, sdktrace.AlwaysSample().Description(), samplerFor(config.SamplerConfig{}).Description())
	assert.Contains(t, samplerFor(config.SamplerConfig{Type: "traceidratio", Param: 0.25}).Description(), "ParentBased")
}
