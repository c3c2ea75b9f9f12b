package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/conduit/internal/action"
	"github.com/shaiso/conduit/internal/config"
	"github.com/shaiso/conduit/internal/domain"
	"github.com/shaiso/conduit/internal/repo"
	"github.com/shaiso/conduit/internal/telemetry"
)

// recordTimeout — таймаут записи вызова (repo, mq).
const recordTimeout = 5 * time.Second

// reservedPrefixes — пути служебных endpoints.
var reservedPrefixes = []string{"/api/v1/", "/healthz", "/metrics"}

// InvocationStore — чтение журнала вызовов.
type InvocationStore interface {
	List(ctx context.Context, filter repo.InvocationFilter) ([]domain.Invocation, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Invocation, error)
}

// ScheduleSource — текущее состояние расписаний.
type ScheduleSource interface {
	Schedules() []domain.Schedule
}

// Handler — HTTP gateway с зависимостями.
type Handler struct {
	routes    []config.RouteConfig
	registry  *action.Registry
	recorders []Recorder
	store     InvocationStore
	schedules ScheduleSource
	metrics   *telemetry.Metrics
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
	startTime time.Time
}

// Config — конфигурация для создания Handler.
type Config struct {
	Routes    []config.RouteConfig
	Registry  *action.Registry    // nil — action.DefaultRegistry(nil)
	Recorders []Recorder          // получатели записей о вызовах
	Store     InvocationStore     // nil — /api/v1/invocations отвечает 503
	Schedules ScheduleSource      // nil — пустой список расписаний
	Metrics   *telemetry.Metrics  // nil — метрики в отдельном реестре
	Gatherer  prometheus.Gatherer // nil — prometheus.DefaultGatherer
	Logger    *slog.Logger
}

// NewHandler создаёт новый Handler.
// Возвращает ошибку, если маршрут пересекается со служебными путями,
// конфликтует с другим маршрутом или его шаблон некорректен.
func NewHandler(cfg Config) (*Handler, error) {
	for _, r := range cfg.Routes {
		for _, prefix := range reservedPrefixes {
			if strings.HasPrefix(r.Path, prefix) {
				return nil, fmt.Errorf("%w: route %s uses reserved path %s", config.ErrInvalidConfig, r.Pattern(), prefix)
			}
		}
	}
	if err := checkPatterns(cfg.Routes); err != nil {
		return nil, err
	}

	h := &Handler{
		routes:    cfg.Routes,
		registry:  cfg.Registry,
		recorders: cfg.Recorders,
		store:     cfg.Store,
		schedules: cfg.Schedules,
		metrics:   cfg.Metrics,
		gatherer:  cfg.Gatherer,
		logger:    cfg.Logger,
		startTime: time.Now(),
	}

	if h.registry == nil {
		h.registry = action.DefaultRegistry(nil)
	}
	if h.metrics == nil {
		h.metrics = telemetry.NewMetrics(prometheus.NewRegistry())
	}
	if h.gatherer == nil {
		h.gatherer = prometheus.DefaultGatherer
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h, nil
}

// record передаёт завершённый вызов всем Recorder.
// Не зависит от отмены запроса: клиент мог уже отключиться.
func (h *Handler) record(ctx context.Context, logger *slog.Logger, inv *domain.Invocation) {
	if len(h.recorders) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	for _, rec := range h.recorders {
		if err := rec.Record(ctx, inv); err != nil {
			h.metrics.RecordError(rec.Name())
			logger.Warn("failed to record invocation", "sink", rec.Name(), "error", err)
		}
	}
}
