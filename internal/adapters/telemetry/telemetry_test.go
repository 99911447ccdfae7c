package telemetry_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/stitch/internal/adapters/telemetry"
	"go.trai.ch/stitch/internal/core/ports"
	"go.trai.ch/stitch/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.OTelTracer)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = (*telemetry.NoOpSpan)(nil)
	var _ sdktrace.SpanProcessor = (*telemetry.LogBridge)(nil)
}

func TestOTelTracer_RecordsAttributes(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := telemetry.NewOTelTracer(tp, "test")

	_, span := tracer.Start(context.Background(), "resolve", ports.WithAttribute("entry", "app"))
	span.SetAttribute("components", 3)
	span.SetAttribute("size", int64(7))
	span.SetAttribute("ratio", 0.5)
	span.SetAttribute("cached", true)
	span.SetAttribute("ids", []string{"a", "b"})
	span.SetAttribute("other", struct{ N int }{N: 1})
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "resolve", ended[0].Name())

	attrs := ended[0].Attributes()
	assert.Contains(t, attrs, attribute.String("entry", "app"))
	assert.Contains(t, attrs, attribute.Int("components", 3))
	assert.Contains(t, attrs, attribute.Int64("size", 7))
	assert.Contains(t, attrs, attribute.Float64("ratio", 0.5))
	assert.Contains(t, attrs, attribute.Bool("cached", true))
	assert.Contains(t, attrs, attribute.StringSlice("ids", []string{"a", "b"}))
	assert.Contains(t, attrs, attribute.String("other", "{1}"))
}

func TestOTelTracer_RecordError(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := telemetry.NewOTelTracer(tp, "test")

	_, span := tracer.Start(context.Background(), "registry.fetch")
	span.RecordError(errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "boom", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
}

func TestOTelTracer_NestsSpans(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := telemetry.NewOTelTracer(tp, "test")

	ctx, parent := tracer.Start(context.Background(), "resolve")
	_, child := tracer.Start(ctx, "resolve.round")
	child.End()
	parent.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
}

func TestNoOpTracer_Start(t *testing.T) {
	t.Parallel()

	tracer := telemetry.NewNoOpTracer()
	ctx := context.Background()

	got, span := tracer.Start(ctx, "test-span", ports.WithAttribute("k", "v"))
	assert.Equal(t, ctx, got)
	assert.NotNil(t, span)

	span.SetAttribute("key", "value")
	span.RecordError(errors.New("ignored"))
	span.End()
}

func TestLogBridge_OnEnd(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)

	var line string
	logger.EXPECT().Info(gomock.Any()).Do(func(msg string) { line = msg }).Times(1)

	tracer := telemetry.NewOTelTracer(telemetry.NewLoggingProvider(logger), "test")
	_, span := tracer.Start(context.Background(), "resolve.round", ports.WithAttribute("round", 2))
	span.SetAttribute("frontier", 4)
	span.End()

	assert.True(t, strings.HasPrefix(line, "span resolve.round "), line)
	assert.True(t, strings.HasSuffix(line, " frontier=4 round=2"), line)
}

func TestLogBridge_OnEndWithError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)

	var line string
	logger.EXPECT().Warn(gomock.Any()).Do(func(msg string) { line = msg }).Times(1)

	tracer := telemetry.NewOTelTracer(telemetry.NewLoggingProvider(logger), "test")
	_, span := tracer.Start(context.Background(), "registry.fetch")
	span.RecordError(errors.New("connection refused"))
	span.End()

	assert.True(t, strings.HasSuffix(line, ": connection refused"), line)
}

func TestLogBridge_NilLogger(_ *testing.T) {
	bridge := telemetry.NewLogBridge(nil)

	tp := sdktrace.NewTracerProvider()
	_, span := tp.Tracer("test").Start(context.Background(), "test-span")
	span.End()

	if roSpan, ok := span.(sdktrace.ReadOnlySpan); ok {
		bridge.OnEnd(roSpan)
	}
	_ = bridge.ForceFlush(context.Background())
	_ = bridge.Shutdown(context.Background())
}
