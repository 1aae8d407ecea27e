package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func TestSetup_FileOnly_NoConsole(t *testing.T) {
	out := captureConsole(t)

	var fileBuf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &fileBuf, Level: "info"})
	m.Logger().Info("hello file")

	assert.Contains(t, fileBuf.String(), "hello file", "log should appear in file")
	assert.Empty(t, out.String(), "nothing should be written to the console when file is provided")
}

func TestSetup_NoFile_WritesToConsole(t *testing.T) {
	out := captureConsole(t)

	m := NewSlogManager()
	m.Setup(Options{Level: "info"})
	m.Logger().Info("hello console")

	assert.Contains(t, out.String(), "hello console")
}

func TestSetup_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &buf, Level: "debug"})

	m.Logger().Debug("debug msg")
	m.Logger().Info("info msg")

	output := buf.String()
	assert.Contains(t, output, "debug msg")
	assert.Contains(t, output, "info msg")
}

func TestSetup_InfoLevel_FiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &buf, Level: "info"})

	m.Logger().Debug("should be filtered")
	m.Logger().Info("should appear")

	output := buf.String()
	assert.NotContains(t, output, "should be filtered")
	assert.Contains(t, output, "should appear")
}

func TestSetup_ReplacesLogger(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	m := NewSlogManager()

	m.Setup(Options{File: &buf1, Level: "info"})
	m.Logger().Info("first")

	m.Setup(Options{File: &buf2, Level: "info"})
	m.Logger().Info("second")

	assert.Contains(t, buf1.String(), "first")
	assert.NotContains(t, buf1.String(), "second", "old file should not receive new logs")
	assert.Contains(t, buf2.String(), "second")
}

func TestSetup_GraylogGetsJSON(t *testing.T) {
	var file, gl bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &file, Graylog: &gl, Level: "info"})
	m.Logger().Info("to graylog", "dots", 12)

	assert.Contains(t, gl.String(), `"msg":"to graylog"`)
	assert.Contains(t, gl.String(), `"dots":12`)
	assert.Contains(t, file.String(), "dots=12")
}

func TestSetup_FrameContext(t *testing.T) {
	var buf bytes.Buffer
	fc := &FrameContext{}
	m := NewSlogManager()
	m.Setup(Options{File: &buf, Level: "info", Context: fc})

	m.Logger().Info("before session")
	assert.NotContains(t, buf.String(), "session=")

	fc.SetSession("abc")
	fc.SetFrame(42)
	m.Logger().Info("inside session")
	assert.Contains(t, buf.String(), "session=abc")
	assert.Contains(t, buf.String(), "frame=42")

	fc.SetSession("")
	assert.Nil(t, fc.Attrs())
}

func TestLogger_DefaultBeforeSetup(t *testing.T) {
	m := NewSlogManager()
	logger := m.Logger()
	assert.Equal(t, slog.Default(), logger)
}

func TestFlush_NilProvider(t *testing.T) {
	m := NewSlogManager()
	err := m.Flush(context.Background())
	assert.NoError(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"invalid", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.input))
		})
	}
}

func textSink(buf *bytes.Buffer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level})
}

func TestMultiHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("fan out skips nil", func(t *testing.T) {
		var a, b bytes.Buffer
		multi := NewMultiHandler(nil, textSink(&a, slog.LevelInfo), nil, textSink(&b, slog.LevelInfo))
		require.Len(t, multi.handlers, 2)

		slog.New(multi).Info("hotspot selected", "id", "lab")
		assert.Contains(t, a.String(), "id=lab")
		assert.Contains(t, b.String(), "id=lab")
	})

	t.Run("enabled if any sink is", func(t *testing.T) {
		info := textSink(&bytes.Buffer{}, slog.LevelInfo)
		debug := textSink(&bytes.Buffer{}, slog.LevelDebug)

		assert.False(t, NewMultiHandler().Enabled(ctx, slog.LevelError))
		assert.False(t, NewMultiHandler(info).Enabled(ctx, slog.LevelDebug))
		assert.True(t, NewMultiHandler(info, debug).Enabled(ctx, slog.LevelDebug))
	})

	t.Run("level filtered per sink", func(t *testing.T) {
		var quiet, loud bytes.Buffer
		logger := slog.New(NewMultiHandler(textSink(&quiet, slog.LevelWarn), textSink(&loud, slog.LevelDebug)))
		logger.Debug("hover moved")

		assert.Empty(t, quiet.String())
		assert.Contains(t, loud.String(), "hover moved")
	})

	t.Run("attrs and groups", func(t *testing.T) {
		var buf bytes.Buffer
		multi := NewMultiHandler(textSink(&buf, slog.LevelInfo))

		slog.New(multi.WithAttrs([]slog.Attr{slog.String("component", "arc")})).Info("rebuilt")
		slog.New(multi.WithGroup("grp")).Info("grouped", "key", "val")

		assert.Contains(t, buf.String(), "component=arc")
		assert.Contains(t, buf.String(), "grp.key=val")
		assert.Same(t, multi, multi.WithGroup(""))
	})

	t.Run("failing sink does not block others", func(t *testing.T) {
		var buf bytes.Buffer
		multi := NewMultiHandler(&errorHandler{}, textSink(&buf, slog.LevelInfo))

		var r slog.Record
		r.Level = slog.LevelInfo
		r.Message = "should reach spy"
		err := multi.Handle(ctx, r)

		assert.EqualError(t, err, "handler error")
		assert.Contains(t, buf.String(), "should reach spy")
	})
}

// errorHandler is a slog.Handler that always returns an error from Handle.
type errorHandler struct {
	slog.Handler
}

func (h *errorHandler) Handle(context.Context, slog.Record) error { return errors.New("handler error") }

func (h *errorHandler) Enabled(context.Context, slog.Level) bool { return true }

func TestContextHandler_Func(t *testing.T) {
	var buf bytes.Buffer
	calls := 0
	provider := ContextProviderFunc(func() []slog.Attr {
		calls++
		return []slog.Attr{slog.Int("tick", calls)}
	})

	logger := slog.New(NewContextHandler(textSink(&buf, slog.LevelInfo), provider)).With("host", "term")
	logger.Info("one")
	logger.Info("two")

	assert.Equal(t, 2, calls)
	assert.Contains(t, buf.String(), "host=term tick=1")
	assert.Contains(t, buf.String(), "host=term tick=2")
}

func TestFlush_WithProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider() // no exporter, just validates non-nil path
	m := NewSlogManager()

	var buf bytes.Buffer
	m.Setup(Options{File: &buf, Level: "info", Provider: provider})

	err := m.Flush(context.Background())
	assert.NoError(t, err)
}

func TestSetup_WithOTelProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()

	var buf bytes.Buffer
	m := NewSlogManager()
	m.Setup(Options{File: &buf, Level: "info", Provider: provider})

	m.Logger().Info("otel integrated")
	assert.Contains(t, buf.String(), "otel integrated")
}

// captureConsole swaps the console writer for a buffer until the test ends.
func captureConsole(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := console
	console = &buf
	t.Cleanup(func() { console = orig })
	return &buf
}
