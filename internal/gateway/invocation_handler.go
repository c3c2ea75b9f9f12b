package gateway

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/conduit/internal/domain"
	"github.com/shaiso/conduit/internal/repo"
)

// Healthz отвечает на проверку живости.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "ok %s", time.Since(h.startTime).Round(time.Second))
}

// ListRoutes возвращает маршруты gateway.
// GET /api/v1/routes
func (h *Handler) ListRoutes(w http.ResponseWriter, _ *http.Request) {
	result := make([]RouteResponse, len(h.routes))
	for i, r := range h.routes {
		result[i] = RouteFromConfig(r)
	}
	List(w, result, len(result))
}

// ListSchedules возвращает расписания и время их следующего запуска.
// GET /api/v1/schedules
func (h *Handler) ListSchedules(w http.ResponseWriter, _ *http.Request) {
	var schedules []domain.Schedule
	if h.schedules != nil {
		schedules = h.schedules.Schedules()
	}

	result := make([]ScheduleResponse, len(schedules))
	for i, s := range schedules {
		result[i] = ScheduleFromDomain(s)
	}
	List(w, result, len(result))
}

// ListInvocations возвращает журнал вызовов с фильтрацией.
// GET /api/v1/invocations?route=...&status=...&limit=...&offset=...
func (h *Handler) ListInvocations(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		Unavailable(w, "invocation log is not configured")
		return
	}

	q := r.URL.Query()
	filter := repo.InvocationFilter{Route: q.Get("route")}

	if status := q.Get("status"); status != "" {
		filter.Status = domain.InvocationStatus(status)
		if !filter.Status.IsValid() {
			BadRequest(w, "invalid status")
			return
		}
	}

	var err error
	if filter.Limit, err = parseIntParam(q.Get("limit"), repo.DefaultListLimit); err != nil {
		BadRequest(w, "invalid limit")
		return
	}
	if filter.Offset, err = parseIntParam(q.Get("offset"), 0); err != nil {
		BadRequest(w, "invalid offset")
		return
	}

	invocations, err := h.store.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]InvocationResponse, len(invocations))
	for i, inv := range invocations {
		result[i] = InvocationFromDomain(inv)
	}
	List(w, result, len(result))
}

// GetInvocation возвращает вызов по ID.
// GET /api/v1/invocations/{id}
func (h *Handler) GetInvocation(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		Unavailable(w, "invocation log is not configured")
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid invocation id")
		return
	}

	inv, err := h.store.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "invocation not found") {
		return
	}

	Success(w, InvocationFromDomain(*inv))
}

func parseIntParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}
