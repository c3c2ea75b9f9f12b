package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — Prometheus метрики gateway.
type Metrics struct {
	requestsTotal      *prometheus.CounterVec
	invocationsTotal   *prometheus.CounterVec
	invocationDuration *prometheus.HistogramVec
	recordErrors       *prometheus.CounterVec
}

// NewMetrics регистрирует метрики в reg.
// reg == nil — используется prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "conduit_gateway_http_requests_total",
			Help: "Total HTTP requests handled by gateway routes",
		}, []string{"route", "code"}),

		invocationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "conduit_action_invocations_total",
			Help: "Total action invocations by outcome",
		}, []string{"route", "action", "status"}),

		invocationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "conduit_action_invocation_duration_seconds",
			Help:    "Action invocation latency including the upstream request",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "action"}),

		recordErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "conduit_invocation_record_errors_total",
			Help: "Failures to persist or publish invocation records",
		}, []string{"sink"}),
	}
}

// ObserveRequest учитывает обработанный запрос к маршруту.
func (m *Metrics) ObserveRequest(route, code string) {
	m.requestsTotal.WithLabelValues(route, code).Inc()
}

// ObserveInvocation учитывает завершённый вызов action.
func (m *Metrics) ObserveInvocation(route, action, status string, d time.Duration) {
	m.invocationsTotal.WithLabelValues(route, action, status).Inc()
	m.invocationDuration.WithLabelValues(route, action).Observe(d.Seconds())
}

// RecordError учитывает ошибку записи вызова (repo, mq).
func (m *Metrics) RecordError(sink string) {
	m.recordErrors.WithLabelValues(sink).Inc()
}
