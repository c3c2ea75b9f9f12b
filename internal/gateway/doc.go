// Package gateway — HTTP сервер, выполняющий action по маршрутам из конфигурации.
//
// Каждый маршрут — шаблон http.ServeMux и список определений action.
// Контекст первого прохода строится из входящего запроса (params, query,
// headers, body) и результатов уже выполненных action маршрута (actions.<name>).
// Ответ вызывающему пишет responseMapping одного из action; если никто не
// ответил — 204.
//
// Ошибки action:
//   - *engine.ValidationError → 500 INVALID_ACTION_CONFIG
//   - *action.TransportError  → 502 BAD_GATEWAY
//   - прочие                  → 500 INTERNAL_ERROR
//
// Служебные endpoints: /healthz, /metrics, /api/v1/routes, /api/v1/invocations,
// /api/v1/schedules.
package gateway
