package gateway

import (
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/conduit/internal/config"
	"github.com/shaiso/conduit/internal/domain"
)

// InvocationResponse — вызов action в ответе API.
type InvocationResponse struct {
	ID             uuid.UUID  `json:"id"`
	Route          string     `json:"route"`
	Action         string     `json:"action,omitempty"`
	Method         string     `json:"method,omitempty"`
	URL            string     `json:"url,omitempty"`
	Status         string     `json:"status"`
	ResponseStatus int        `json:"response_status,omitempty"`
	Dispatched     bool       `json:"dispatched"`
	Error          string     `json:"error,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	DurationMs     int64      `json:"duration_ms"`
}

// InvocationFromDomain преобразует domain.Invocation в ответ API.
func InvocationFromDomain(inv domain.Invocation) InvocationResponse {
	return InvocationResponse{
		ID:             inv.ID,
		Route:          inv.Route,
		Action:         inv.Action,
		Method:         inv.Method,
		URL:            inv.URL,
		Status:         string(inv.Status),
		ResponseStatus: inv.ResponseStatus,
		Dispatched:     inv.Dispatched,
		Error:          inv.Error,
		StartedAt:      inv.StartedAt,
		FinishedAt:     inv.FinishedAt,
		DurationMs:     inv.Duration().Milliseconds(),
	}
}

// RouteResponse — маршрут gateway в ответе API.
type RouteResponse struct {
	Method  string   `json:"method"`
	Path    string   `json:"path"`
	Actions []string `json:"actions"`
}

// RouteFromConfig преобразует маршрут конфигурации в ответ API.
func RouteFromConfig(r config.RouteConfig) RouteResponse {
	names := make([]string, len(r.Actions))
	for i, def := range r.Actions {
		names[i] = ActionName(def, i)
	}
	return RouteResponse{
		Method:  r.Method,
		Path:    r.Path,
		Actions: names,
	}
}

// ScheduleResponse — расписание в ответе API.
type ScheduleResponse struct {
	Name      string     `json:"name"`
	Cron      string     `json:"cron,omitempty"`
	Interval  string     `json:"interval,omitempty"`
	Timezone  string     `json:"timezone,omitempty"`
	Enabled   bool       `json:"enabled"`
	Actions   []string   `json:"actions"`
	NextDueAt *time.Time `json:"next_due_at,omitempty"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
}

// ScheduleFromDomain преобразует domain.Schedule в ответ API.
func ScheduleFromDomain(s domain.Schedule) ScheduleResponse {
	resp := ScheduleResponse{
		Name:      s.Name,
		Cron:      s.CronExpr,
		Timezone:  s.Timezone,
		Enabled:   s.Enabled,
		Actions:   make([]string, len(s.Actions)),
		NextDueAt: s.NextDueAt,
		LastRunAt: s.LastRunAt,
	}
	if s.IsInterval() {
		resp.Interval = s.Interval.String()
	}
	for i, def := range s.Actions {
		resp.Actions[i] = ActionName(def, i)
	}
	return resp
}
