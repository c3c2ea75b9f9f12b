package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shaiso/conduit/internal/action"
	"github.com/shaiso/conduit/internal/config"
	"github.com/shaiso/conduit/internal/domain"
	"github.com/shaiso/conduit/internal/engine"
	"github.com/shaiso/conduit/internal/telemetry"
)

// routeHandler выполняет action маршрута последовательно.
//
// Первая ошибка прерывает маршрут. Если ни один action не отправил ответ,
// возвращается 204.
func (h *Handler) routeHandler(route config.RouteConfig) http.HandlerFunc {
	pattern := route.Pattern()
	params := pathParams(route.Path)

	return func(w http.ResponseWriter, r *http.Request) {
		rw := newResponseWriter(w)
		defer func() {
			h.metrics.ObserveRequest(pattern, strconv.Itoa(rw.status))
		}()

		hydration, err := hydrate(r, params)
		if err != nil {
			BadRequest(rw, err.Error())
			return
		}

		sink := newResponseSink(rw)
		outputs := hydration["actions"].(map[string]any)

		for i, def := range route.Actions {
			name := ActionName(def, i)

			result, err := h.invoke(r.Context(), pattern, name, def, &action.Invocation{
				Definition:     def,
				Hydration:      hydration,
				InboundHeaders: r.Header,
				Sink:           sink,
			})
			if err != nil {
				h.writeActionError(rw, sink, h.logger.With("route", pattern, "action", name), err)
				return
			}

			outputs[name] = result.Output
		}

		if !sink.Sent() {
			NoContent(rw)
		}
	}
}

// invoke выполняет один action и записывает результат.
func (h *Handler) invoke(ctx context.Context, route, name string, def map[string]any, inv *action.Invocation) (*action.Result, error) {
	rec := domain.NewInvocation(route, name)
	logger := telemetry.WithInvocation(h.logger, rec.ID.String(), route, name)
	start := time.Now()

	result, err := h.execute(ctx, def, inv)

	var te *action.TransportError
	switch {
	case err == nil:
		rec.Method = result.Request.Method
		rec.URL = result.Request.URL
		rec.MarkSucceeded(result.StatusCode, result.Dispatched)
		logger.Debug("action succeeded", "status_code", result.StatusCode, "dispatched", result.Dispatched)
	case errors.As(err, &te):
		rec.Method = te.Method
		rec.URL = te.URL
		rec.MarkFailed(err.Error())
	default:
		rec.MarkFailed(err.Error())
	}

	h.metrics.ObserveInvocation(route, name, string(rec.Status), time.Since(start))
	h.record(ctx, logger, rec)

	return result, err
}

func (h *Handler) execute(ctx context.Context, def map[string]any, inv *action.Invocation) (*action.Result, error) {
	a, err := h.registry.For(def)
	if err != nil {
		return nil, err
	}
	return a.Execute(ctx, inv)
}

// writeActionError преобразует ошибку action в HTTP ответ.
// Если ответ уже отправлен, ошибка только логируется.
func (h *Handler) writeActionError(w http.ResponseWriter, sink *responseSink, logger *slog.Logger, err error) {
	if sink.Sent() {
		logger.Error("action failed after response was sent", "error", err)
		return
	}

	var ve *engine.ValidationError
	switch {
	case errors.As(err, &ve):
		logger.Warn("invalid action config", "error", err)
		Error(w, http.StatusInternalServerError, ErrCodeInvalidActionConfig, ve.Error())
	case action.IsTransportError(err):
		logger.Warn("upstream request failed", "error", err)
		Error(w, http.StatusBadGateway, ErrCodeBadGateway, err.Error())
	default:
		InternalError(w, logger, err)
	}
}

// ActionName возвращает имя action или его индекс в списке.
func ActionName(def map[string]any, index int) string {
	if name, ok := def["name"].(string); ok && name != "" {
		return name
	}
	return strconv.Itoa(index)
}
