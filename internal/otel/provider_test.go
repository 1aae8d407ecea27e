package otel

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutSinks(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "dotmap"})
	assert.ErrorIs(t, err, ErrNoExporter)
}

func TestNew_FileExporter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{
		Enabled:      true,
		ServiceName:  "dotmap",
		BatchTimeout: time.Second,
		LogWriter:    &buf,
		Attributes:   []attribute.KeyValue{attribute.String("dotmap.host", "dotmap-term")},
	})
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())
	assert.True(t, p.Enabled())

	ctx := context.Background()
	assert.NoError(t, p.Flush(ctx))
	assert.NoError(t, p.Shutdown(ctx))
	assert.False(t, p.Enabled(), "shutdown releases the provider")
	assert.NoError(t, p.Shutdown(ctx))
}

func TestMeter(t *testing.T) {
	m := Meter("frame")
	require.NotNil(t, m)
	c, err := m.Int64Counter("test.counter")
	require.NoError(t, err)
	c.Add(context.Background(), 1)
}
