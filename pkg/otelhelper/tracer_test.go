package otelhelper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func recordingTracer() (trace.Tracer, *tracetest.SpanRecorder) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	return provider.Tracer("test"), recorder
}

func TestStartSpan_AttachesAttributes(t *testing.T) {
	tracer, recorder := recordingTracer()

	_, span := StartSpan(t.Context(), tracer, "workflow.validate",
		attribute.String(WorkflowIDKey, "wf-1"),
		attribute.Int64(WorkflowVersionKey, 3),
	)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "workflow.validate", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String(WorkflowIDKey, "wf-1"))
	assert.Contains(t, ended[0].Attributes(), attribute.Int64(WorkflowVersionKey, 3))
}

func TestSetError_MarksSpanFailed(t *testing.T) {
	tracer, recorder := recordingTracer()

	_, span := StartSpan(t.Context(), tracer, "workflow.validate")
	SetError(span, errors.New("workflow not found"), attribute.String(WorkflowIDKey, "wf-404"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "workflow not found", ended[0].Status().Description)

	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
	assert.Contains(t, ended[0].Events()[0].Attributes, attribute.String(WorkflowIDKey, "wf-404"))
}
