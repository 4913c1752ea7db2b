package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/campus-agents/campus-hub/internal/application/command"
	"github.com/campus-agents/campus-hub/internal/domain/shared"
	"github.com/campus-agents/campus-hub/pkg/logger"
)

func bufferLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(logger.Options{Output: buf, Level: logger.LevelDebug, Format: logger.FormatJSON})
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	h := RecoveryMiddleware(bufferLogger(&buf))(func(context.Context, command.Command) error {
		panic("boom")
	})

	err := h(context.Background(), &command.RequestEventsCommand{})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Contains(t, buf.String(), "handler panic recovered")
}

func TestRequestAndLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := bufferLogger(&buf)

	var seen string
	chain := RequestMiddleware(log)(LoggingMiddleware()(func(ctx context.Context, cmd command.Command) error {
		seen = RequestIDFrom(ctx)
		return nil
	}))

	ctx := WithRequestID(context.Background(), "req-42")
	require.NoError(t, chain(ctx, &command.RequestLessonCommand{Topic: "AI Basics"}))
	assert.Equal(t, "req-42", seen)

	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "action dispatched", lines[0]["msg"])
	assert.Equal(t, "req-42", lines[0]["request_id"])
	assert.Equal(t, "request-lesson", lines[0]["action"])
}

func TestRequestMiddleware_GeneratesID(t *testing.T) {
	var seen string
	chain := RequestMiddleware(logger.Nop())(func(ctx context.Context, _ command.Command) error {
		seen = RequestIDFrom(ctx)
		return nil
	})

	require.NoError(t, chain(context.Background(), &command.RequestEventsCommand{}))
	assert.NotEmpty(t, seen)
}

func TestLoggingMiddleware_Failure(t *testing.T) {
	var buf bytes.Buffer
	ctx := logger.WithContext(context.Background(), bufferLogger(&buf))

	err := LoggingMiddleware()(func(context.Context, command.Command) error {
		return errors.New("store down")
	})(ctx, &command.RequestEventsCommand{})

	require.Error(t, err)
	lines := logLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "action failed", lines[0]["msg"])
	assert.Equal(t, "store down", lines[0]["error"])
}

func TestTracingMiddleware_SpanPerAction(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	h := newHarness(t, func(c *Config) {
		c.Tracer = tp.Tracer("test")
		c.Middlewares = DefaultMiddlewares(logger.Nop(), c.Tracer)
	})

	h.dispatch(t, command.KindRequestCourse, `{"course":"AI Basics"}`)

	spans := rec.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "campus.dispatch.request-course", span.Name())

	attrs := map[string]string{}
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "request-course", attrs["campus.action"])
	assert.Equal(t, "ok", attrs["campus.outcome"])
	assert.Equal(t, "1", attrs["campus.follow_ups"])

	require.Len(t, span.Events(), 1)
	assert.Equal(t, "follow-up", span.Events()[0].Name)
}
