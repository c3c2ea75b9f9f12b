package action

import (
	"context"
)

// TypeHTTP — тип HTTP action.
const TypeHTTP = "http"

// Action — интерфейс для типов action.
type Action interface {
	// Type возвращает тип action.
	Type() string

	// Execute выполняет вызов и возвращает результат.
	// Ошибки не логируются и не оборачиваются: это делает хост.
	Execute(ctx context.Context, inv *Invocation) (*Result, error)
}

// HTTPAction — action, выполняющий один исходящий HTTP запрос.
//
// Не хранит состояния между вызовами и безопасен для конкурентного использования.
type HTTPAction struct {
	transport Transport
}

// NewHTTPAction создаёт HTTPAction.
// Если transport == nil, используется NewHTTPTransport с таймаутом по умолчанию.
func NewHTTPAction(transport Transport) *HTTPAction {
	if transport == nil {
		transport = NewHTTPTransport(0)
	}
	return &HTTPAction{transport: transport}
}

// Type возвращает тип action.
func (a *HTTPAction) Type() string {
	return TypeHTTP
}

// Run проводит вызов через конвейер и возвращает финальное состояние.
func (a *HTTPAction) Run(ctx context.Context, inv *Invocation) (State, error) {
	return Run(ctx, a.transport, inv)
}

// Execute выполняет вызов.
//
// Output — сырое тело ответа, независимо от того, что было отправлено вызывающему.
func (a *HTTPAction) Execute(ctx context.Context, inv *Invocation) (*Result, error) {
	state, err := a.Run(ctx, inv)
	if err != nil {
		return nil, err
	}

	return &Result{
		Output:     state.Response.Body,
		StatusCode: state.Response.StatusCode,
		Request:    state.Request,
		Dispatched: state.Dispatched,
		Final:      state,
	}, nil
}

// TypeOf возвращает тип action из определения. Пустой тип означает http.
func TypeOf(definition map[string]any) string {
	if t, ok := definition["type"].(string); ok && t != "" {
		return t
	}
	return TypeHTTP
}
