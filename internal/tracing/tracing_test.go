package tracing

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/danilovkiri/dk-go-earnhub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartEnd(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := Start(context.Background(), "wallet.Credit", attribute.String("user.id", "u1"))
	End(span, nil)
	_, span = Start(context.Background(), "workflow.Submit")
	End(span, errors.New("boom"))

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "wallet.Credit", ended[0].Name())
	assert.Contains(t, ended[0].Attributes(), attribute.String("user.id", "u1"))
	assert.Equal(t, codes.Error, ended[1].Status().Code)
}

func TestInit(t *testing.T) {
	shutdown, err := Init(&config.TracingConfig{}, "earnhub")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	shutdown, err = Init(&config.TracingConfig{Enabled: true, File: filepath.Join(t.TempDir(), "spans.json")}, "earnhub")
	require.NoError(t, err)
	_, span := Start(context.Background(), "probe")
	End(span, nil)
	assert.NoError(t, shutdown(context.Background()))
}
