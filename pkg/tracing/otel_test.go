package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartIdentifySpan_RecordsOutcome(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartIdentifySpan(context.Background(), "gemini", "req-1", 128)
	EndSpan(span, "", nil)
	_, span = StartIdentifySpan(context.Background(), "gemini", "req-2", 0)
	EndSpan(span, "invalid_input", errors.New("empty"))

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "vision.identify", ended[0].Name())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
	assert.Equal(t, codes.Error, ended[1].Status().Code)
	assert.Equal(t, "invalid_input", ended[1].Status().Description)
}

func TestInitTracer_RequiresEndpoint(t *testing.T) {
	_, err := InitTracer(context.Background(), OTelConfig{ServiceName: "car-identifier"})
	assert.Error(t, err)
}
