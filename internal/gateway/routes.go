package gateway

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shaiso/conduit/internal/config"
)

// servicePatterns — шаблоны служебных endpoints, см. RegisterRoutes.
var servicePatterns = []string{
	"GET /healthz",
	"GET /metrics",
	"GET /api/v1/routes",
	"GET /api/v1/invocations",
	"GET /api/v1/invocations/{id}",
	"GET /api/v1/schedules",
}

// checkPatterns регистрирует шаблоны маршрутов на временном ServeMux.
// ServeMux паникует на некорректном или конфликтующем шаблоне;
// паника превращается в ErrInvalidConfig.
func checkPatterns(routes []config.RouteConfig) (err error) {
	mux := http.NewServeMux()
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	pattern := ""
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: route %s: %v", config.ErrInvalidConfig, pattern, r)
		}
	}()

	for _, pattern = range servicePatterns {
		mux.Handle(pattern, noop)
	}
	for _, route := range routes {
		pattern = route.Pattern()
		mux.Handle(pattern, noop)
	}
	return nil
}

// RegisterRoutes регистрирует служебные endpoints и маршруты gateway.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Health и metrics
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))

	// Management API
	mux.Handle("GET /api/v1/routes", chain(http.HandlerFunc(h.ListRoutes)))
	mux.Handle("GET /api/v1/invocations", chain(http.HandlerFunc(h.ListInvocations)))
	mux.Handle("GET /api/v1/invocations/{id}", chain(http.HandlerFunc(h.GetInvocation)))
	mux.Handle("GET /api/v1/schedules", chain(http.HandlerFunc(h.ListSchedules)))

	// Маршруты action
	for _, route := range h.routes {
		pattern := route.Pattern()
		handler := otelhttp.NewHandler(h.routeHandler(route), pattern)
		mux.Handle(pattern, chain(handler))
		h.logger.Info("route registered", "pattern", pattern, "actions", len(route.Actions))
	}
}

// Router создаёт http.Handler со всеми маршрутами.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}
