// Package telemetry обеспечивает наблюдаемость gateway и CLI.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики маршрутов и вызовов action
//   - tracer.go  — OpenTelemetry (stdout exporter)
//
// Ядро action не логирует и не пишет метрики: это делает хост.
package telemetry
