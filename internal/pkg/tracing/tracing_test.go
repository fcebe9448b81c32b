package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewProvider_Sampling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		ratio float64
		want  int
	}{
		{name: "always", ratio: 1, want: 1},
		{name: "never", ratio: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := tracetest.NewSpanRecorder()
			tp := NewProvider(Config{ServiceName: "archive-test", SampleRatio: tt.ratio}, sdktraceSpanProcessor(rec))
			defer func() { _ = tp.Shutdown(context.Background()) }()

			_, span := tp.Tracer("test").Start(context.Background(), "op")
			span.End()

			assert.Len(t, rec.Ended(), tt.want)
		})
	}
}

func TestNewProvider_ServiceName(t *testing.T) {
	t.Parallel()

	rec := tracetest.NewSpanRecorder()
	tp := NewProvider(Config{SampleRatio: 1}, sdktraceSpanProcessor(rec))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	span.End()

	require.Len(t, rec.Ended(), 1)
	attrs := rec.Ended()[0].Resource().Attributes()
	assert.Contains(t, attrs, attribute.String("service.name", "archive"))
}

func sdktraceSpanProcessor(rec *tracetest.SpanRecorder) sdktrace.TracerProviderOption {
	return sdktrace.WithSpanProcessor(rec)
}
