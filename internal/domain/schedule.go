package domain

import (
	"time"
)

// Schedule — расписание периодического запуска action.
//
// Schedule позволяет запускать action:
// - По cron-выражению: "0 9 * * *" (каждый день в 9:00)
// - По интервалу: каждые N секунд
//
// Scheduler проверяет NextDueAt и выполняет action, когда время подошло.
type Schedule struct {
	// Name — уникальное имя расписания. Вызовы записываются с маршрутом "schedule:<name>".
	Name string `json:"name"`

	// CronExpr — cron-выражение.
	// Формат: "минуты часы дни месяцы дни_недели"
	// Примеры:
	//   "0 9 * * *"     — каждый день в 9:00
	//   "*/5 * * * *"   — каждые 5 минут
	//   "0 0 * * 0"     — каждое воскресенье в полночь
	// Если задан CronExpr, Interval игнорируется.
	CronExpr string `json:"cron_expr,omitempty"`

	// Interval — интервал между запусками.
	// Используется если CronExpr не задан.
	Interval time.Duration `json:"interval,omitempty"`

	// Timezone — часовой пояс для вычисления времени.
	// По умолчанию: "UTC".
	Timezone string `json:"timezone"`

	// Enabled — флаг активности расписания.
	// Если false, scheduler игнорирует это расписание.
	Enabled bool `json:"enabled"`

	// Context — статический контекст, доступный шаблонам как context.*.
	Context map[string]any `json:"context,omitempty"`

	// Actions — определения action, выполняются последовательно.
	Actions []map[string]any `json:"-"`

	// NextDueAt — время следующего запуска.
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastRunAt — время последнего запуска.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
}

// Route возвращает имя маршрута для записей о вызовах.
func (s *Schedule) Route() string {
	return "schedule:" + s.Name
}

// IsCron возвращает true, если расписание использует cron-выражение.
func (s *Schedule) IsCron() bool {
	return s.CronExpr != ""
}

// IsInterval возвращает true, если расписание использует интервал.
func (s *Schedule) IsInterval() bool {
	return s.CronExpr == "" && s.Interval > 0
}

// IsDue проверяет, пора ли запускать.
func (s *Schedule) IsDue(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	if s.NextDueAt == nil {
		return false
	}
	return now.After(*s.NextDueAt) || now.Equal(*s.NextDueAt)
}

// RecordRun записывает информацию о запуске.
func (s *Schedule) RecordRun(ranAt, nextDue time.Time) {
	s.LastRunAt = &ranAt
	s.NextDueAt = &nextDue
}
