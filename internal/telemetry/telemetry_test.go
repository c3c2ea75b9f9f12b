package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("ERROR"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo, "json").Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	NewLogger(&buf, slog.LevelInfo, "text").Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")

	buf.Reset()
	NewLogger(&buf, slog.LevelWarn, "text").Info("hidden")
	assert.Empty(t, buf.String())
}

func TestLoggerContext(t *testing.T) {
	logger := NewLogger(&bytes.Buffer{}, slog.LevelInfo, "json")
	ctx := WithLogger(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveRequest("GET /x", "200")
	m.ObserveInvocation("GET /x", "user", "SUCCEEDED", 15*time.Millisecond)
	m.ObserveInvocation("GET /x", "user", "SUCCEEDED", 5*time.Millisecond)
	m.RecordError("repo")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET /x", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.invocationsTotal.WithLabelValues("GET /x", "user", "SUCCEEDED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordErrors.WithLabelValues("repo")))

	count, err := testutil.GatherAndCount(reg, "conduit_action_invocation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInitTracer(t *testing.T) {
	logger := NewLogger(&bytes.Buffer{}, slog.LevelInfo, "json")

	shutdown, err := InitTracer("conduit-test", TracingNone, logger)
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, err = InitTracer("conduit-test", "jaeger", logger)
	assert.Error(t, err)
}
