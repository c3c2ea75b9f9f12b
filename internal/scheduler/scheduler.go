package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/conduit/internal/action"
	"github.com/shaiso/conduit/internal/config"
	"github.com/shaiso/conduit/internal/domain"
	"github.com/shaiso/conduit/internal/gateway"
	"github.com/shaiso/conduit/internal/telemetry"
)

const (
	defaultTickInterval = time.Second
	recordTimeout       = 5 * time.Second
)

// Locker — выбор лидера между репликами.
// Tick выполняет только реплика, удерживающая блокировку.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// Scheduler — планировщик, выполняющий action по расписанию.
type Scheduler struct {
	schedules    []*domain.Schedule
	registry     *action.Registry
	recorders    []gateway.Recorder
	metrics      *telemetry.Metrics
	locker       Locker
	logger       *slog.Logger
	tickInterval time.Duration

	mu sync.Mutex // защищает schedules
}

// Config — конфигурация Scheduler.
type Config struct {
	Schedules    []config.ScheduleConfig
	Registry     *action.Registry   // nil — action.DefaultRegistry(nil)
	Recorders    []gateway.Recorder // получатели записей о вызовах
	Metrics      *telemetry.Metrics // nil — метрики в отдельном реестре
	Locker       Locker             // nil — реплика всегда лидер
	Logger       *slog.Logger
	TickInterval time.Duration // default: 1s
}

// New создаёт Scheduler и вычисляет первое время запуска каждого schedule.
func New(cfg Config) (*Scheduler, error) {
	s := &Scheduler{
		registry:     cfg.Registry,
		recorders:    cfg.Recorders,
		metrics:      cfg.Metrics,
		locker:       cfg.Locker,
		logger:       cfg.Logger,
		tickInterval: cfg.TickInterval,
	}

	if s.registry == nil {
		s.registry = action.DefaultRegistry(nil)
	}
	if s.metrics == nil {
		s.metrics = telemetry.NewMetrics(prometheus.NewRegistry())
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tickInterval <= 0 {
		s.tickInterval = defaultTickInterval
	}

	now := time.Now()
	for _, sc := range cfg.Schedules {
		sched := &domain.Schedule{
			Name:     sc.Name,
			CronExpr: sc.Cron,
			Interval: sc.Interval,
			Timezone: sc.Timezone,
			Enabled:  !sc.Disabled,
			Context:  sc.Context,
			Actions:  sc.Actions,
		}

		if sched.IsCron() {
			if err := ValidateCronExpr(sched.CronExpr); err != nil {
				return nil, fmt.Errorf("schedule %q: %w", sched.Name, err)
			}
		}

		next, err := CalculateNextDue(sched, now)
		if err != nil {
			return nil, fmt.Errorf("schedule %q: %w", sched.Name, err)
		}
		sched.NextDueAt = &next

		s.schedules = append(s.schedules, sched)
	}

	return s, nil
}

// Schedules возвращает копию текущего состояния расписаний.
func (s *Scheduler) Schedules() []domain.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Schedule, len(s.schedules))
	for i, sched := range s.schedules {
		out[i] = *sched
	}
	return out
}

// Run выполняет Tick каждые tickInterval до отмены ctx.
//
// Если задан Locker, тик выполняется только лидером.
func (s *Scheduler) Run(ctx context.Context) error {
	tk := time.NewTicker(s.tickInterval)
	defer tk.Stop()

	var leader bool
	defer func() {
		if leader {
			if err := s.locker.Unlock(context.Background()); err != nil {
				s.logger.Warn("failed to release scheduler lock", "error", err)
			}
		}
	}()

	s.logger.Info("scheduler started", "schedules", len(s.schedules), "tick", s.tickInterval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil

		case t := <-tk.C:
			ok := s.tryLead(ctx)
			if ok != leader {
				s.logger.Info("scheduler leadership changed", "leader", ok)
				leader = ok
			}
			if !leader {
				continue
			}
			s.Tick(ctx, t)
		}
	}
}

// tryLead пытается стать лидером (или подтвердить лидерство).
func (s *Scheduler) tryLead(ctx context.Context) bool {
	if s.locker == nil {
		return true
	}

	ok, err := s.locker.TryLock(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("scheduler lock failed", "error", err)
		}
		return false
	}
	return ok
}

// Tick выполняет все schedules, время которых подошло.
//
// Ошибки одного schedule не блокируют обработку остальных.
// Возвращает количество запущенных schedules.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) int {
	// Снимки созревших расписаний; actions выполняются без s.mu,
	// чтобы Schedules() не ждал HTTP вызовов.
	s.mu.Lock()
	var due []*domain.Schedule
	var snapshots []domain.Schedule
	for _, sched := range s.schedules {
		if sched.IsDue(now) {
			due = append(due, sched)
			snapshots = append(snapshots, *sched)
		}
	}
	s.mu.Unlock()

	for i := range snapshots {
		snapshot := &snapshots[i]

		if err := s.processSchedule(ctx, snapshot, now); err != nil {
			s.logger.Warn("scheduled actions failed",
				"schedule", snapshot.Name,
				"error", err,
			)
		}

		next, err := CalculateNextDue(snapshot, now)

		s.mu.Lock()
		if err != nil {
			s.logger.Error("failed to calculate next due, disabling schedule",
				"schedule", snapshot.Name,
				"error", err,
			)
			due[i].Enabled = false
		} else {
			due[i].RecordRun(now, next)
		}
		s.mu.Unlock()
	}

	if len(due) > 0 {
		s.logger.Debug("scheduler tick completed", "fired", len(due))
	}
	return len(due)
}

// processSchedule выполняет action расписания последовательно.
// Первая ошибка прерывает выполнение оставшихся action.
func (s *Scheduler) processSchedule(ctx context.Context, sched *domain.Schedule, now time.Time) error {
	route := sched.Route()
	outputs := make(map[string]any, len(sched.Actions))

	staticCtx := sched.Context
	if staticCtx == nil {
		staticCtx = map[string]any{}
	}

	hydration := map[string]any{
		"schedule": map[string]any{
			"name":     sched.Name,
			"fired_at": now.UTC().Format(time.RFC3339),
		},
		"context": staticCtx,
		"actions": outputs,
	}

	for i, def := range sched.Actions {
		name := gateway.ActionName(def, i)

		result, err := s.invoke(ctx, route, name, &action.Invocation{
			Definition: def,
			Hydration:  hydration,
		})
		if err != nil {
			return fmt.Errorf("action %s: %w", name, err)
		}
		outputs[name] = result.Output
	}
	return nil
}

// invoke выполняет один action и записывает результат.
func (s *Scheduler) invoke(ctx context.Context, route, name string, inv *action.Invocation) (*action.Result, error) {
	rec := domain.NewInvocation(route, name)
	logger := telemetry.WithInvocation(s.logger, rec.ID.String(), route, name)
	start := time.Now()

	var result *action.Result
	a, err := s.registry.For(inv.Definition)
	if err == nil {
		result, err = a.Execute(ctx, inv)
	}

	var te *action.TransportError
	switch {
	case err == nil:
		rec.Method = result.Request.Method
		rec.URL = result.Request.URL
		rec.MarkSucceeded(result.StatusCode, false)
		logger.Debug("scheduled action succeeded", "status_code", result.StatusCode)
	case errors.As(err, &te):
		rec.Method = te.Method
		rec.URL = te.URL
		rec.MarkFailed(err.Error())
	default:
		rec.MarkFailed(err.Error())
	}

	s.metrics.ObserveInvocation(route, name, string(rec.Status), time.Since(start))
	s.record(ctx, logger, rec)

	return result, err
}

// record передаёт завершённый вызов всем Recorder.
func (s *Scheduler) record(ctx context.Context, logger *slog.Logger, inv *domain.Invocation) {
	if len(s.recorders) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	for _, rec := range s.recorders {
		if err := rec.Record(ctx, inv); err != nil {
			s.metrics.RecordError(rec.Name())
			logger.Warn("failed to record invocation", "sink", rec.Name(), "error", err)
		}
	}
}
