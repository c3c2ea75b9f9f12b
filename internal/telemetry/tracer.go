package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Экспортеры трассировки (CONDUIT_TRACING).
const (
	TracingNone   = ""
	TracingStdout = "stdout"
)

// ShutdownFunc завершает работу провайдера трассировки.
type ShutdownFunc func(context.Context) error

// InitTracer инициализирует OpenTelemetry.
//
// exporter == TracingNone — трассировка выключена, возвращается no-op shutdown.
func InitTracer(serviceName, exporter string, logger *slog.Logger) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }

	switch exporter {
	case TracingNone:
		return noop, nil
	case TracingStdout:
	default:
		return nil, fmt.Errorf("unknown tracing exporter %q", exporter)
	}

	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, fmt.Errorf("create stdout exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(attribute.String("service.name", serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.Info("tracing initialized", "service", serviceName, "exporter", exporter)

	return tp.Shutdown, nil
}
